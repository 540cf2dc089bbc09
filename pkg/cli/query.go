package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/lfti/trustindex/pkg/data"
	"github.com/lfti/trustindex/pkg/trust"
)

const queryResultLimitDefault = 100

var (
	queryLimitFlag = &cli.IntFlag{
		Name:  "limit",
		Usage: "Limits number of results returned",
		Value: queryResultLimitDefault,
	}

	sourceIDFlag = &cli.StringFlag{
		Name:     "id",
		Usage:    "Source id",
		Required: true,
	}

	historyFlag = &cli.BoolFlag{
		Name:  "history",
		Usage: "Include past scores",
	}

	queryCmd = &cli.Command{
		Name:    "query",
		Aliases: []string{"q"},
		Usage:   "Query scored sources",
		Subcommands: []*cli.Command{
			{
				Name:    "rank",
				Aliases: []string{"r"},
				Usage:   "Rank sources by composite trust score",
				Action:  cmdQueryRank,
				Flags:   []cli.Flag{queryLimitFlag},
			},
			{
				Name:    "source",
				Aliases: []string{"s"},
				Usage:   "Get one source's latest score and check detail",
				Action:  cmdQuerySource,
				Flags:   []cli.Flag{sourceIDFlag, historyFlag, queryLimitFlag},
			},
			{
				Name:   "summary",
				Usage:  "Summarize the latest scoring run across all sources",
				Action: cmdQuerySummary,
			},
			{
				Name:    "grades",
				Aliases: []string{"g"},
				Usage:   "Grade distribution over the latest scores",
				Action:  cmdQueryGrades,
			},
			{
				Name:   "runs",
				Usage:  "List recent scoring runs",
				Action: cmdQueryRuns,
				Flags:  []cli.Flag{queryLimitFlag},
			},
		},
	}
)

// SourceDetail is the per-source query output: the raw record plus its
// scores, newest first.
type SourceDetail struct {
	Source *trust.SourceRecord    `json:"source" yaml:"source"`
	Scores []trust.CompositeScore `json:"scores" yaml:"scores"`
}

func cmdQueryRank(c *cli.Context) error {
	cfg := getAppConfig(c)

	ranking, err := data.GetRanking(cfg.DB, c.Int(queryLimitFlag.Name))
	if err != nil {
		return fmt.Errorf("querying ranking: %w", err)
	}
	return encode(ranking)
}

func cmdQuerySource(c *cli.Context) error {
	cfg := getAppConfig(c)
	id := c.String(sourceIDFlag.Name)

	rec, err := data.GetSource(cfg.DB, id)
	if err != nil {
		return fmt.Errorf("querying source: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("unknown source: %s", id)
	}

	limit := 1
	if c.Bool(historyFlag.Name) {
		limit = c.Int(queryLimitFlag.Name)
	}

	scores, err := data.GetScoreHistory(cfg.DB, id, limit)
	if err != nil {
		return fmt.Errorf("querying score history: %w", err)
	}

	return encode(&SourceDetail{Source: rec, Scores: scores})
}

func cmdQuerySummary(c *cli.Context) error {
	cfg := getAppConfig(c)

	s, err := data.GetSummary(cfg.DB)
	if err != nil {
		return fmt.Errorf("querying summary: %w", err)
	}
	return encode(s)
}

func cmdQueryGrades(c *cli.Context) error {
	cfg := getAppConfig(c)

	dist, err := data.GetGradeDistribution(cfg.DB)
	if err != nil {
		return fmt.Errorf("querying grade distribution: %w", err)
	}
	return encode(dist)
}

func cmdQueryRuns(c *cli.Context) error {
	cfg := getAppConfig(c)

	runs, err := data.GetRuns(cfg.DB, c.Int(queryLimitFlag.Name))
	if err != nil {
		return fmt.Errorf("querying runs: %w", err)
	}
	return encode(runs)
}
