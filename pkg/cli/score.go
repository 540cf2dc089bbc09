package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/lfti/trustindex/pkg/config"
	"github.com/lfti/trustindex/pkg/data"
	"github.com/lfti/trustindex/pkg/metrics"
	"github.com/lfti/trustindex/pkg/trust"
)

var (
	scoreSourceFlag = &cli.StringSliceFlag{
		Name:  "source",
		Usage: "Source id to score (can be specified multiple times, default: all)",
	}

	scoreCmd = &cli.Command{
		Name:    "score",
		Aliases: []string{"s"},
		Usage:   "Run the trust audit over stored sources",
		UsageText: `trustindex score                            # score everything
   trustindex score --source fca-register      # re-score one source`,
		Action: cmdScore,
		Flags: []cli.Flag{
			scoreSourceFlag,
		},
	}
)

// ScoreRunResult summarizes one scoring run for CLI output.
type ScoreRunResult struct {
	RunID        string         `json:"run_id" yaml:"runId"`
	Sources      int            `json:"sources" yaml:"sources"`
	Insufficient int            `json:"insufficient" yaml:"insufficient"`
	Grades       map[string]int `json:"grades" yaml:"grades"`
	Duration     string         `json:"duration" yaml:"duration"`
}

func cmdScore(c *cli.Context) error {
	cfg := getAppConfig(c)

	scorer, err := buildScorer(cfg.Conf)
	if err != nil {
		return err
	}

	res, err := runScoring(c.Context, cfg.DB, scorer, c.StringSlice(scoreSourceFlag.Name), nil)
	if err != nil {
		return err
	}
	return encode(res)
}

// buildScorer assembles the scoring engine from validated configuration.
func buildScorer(conf *config.Config) (*trust.Scorer, error) {
	scheme, err := conf.Scheme()
	if err != nil {
		return nil, err
	}
	scale, err := conf.Scale()
	if err != nil {
		return nil, err
	}
	return trust.NewScorer(scheme, scale, trust.BuiltinChecks(conf.TrustExpectations()))
}

// runScoring scores the selected sources (all when ids is empty), persists
// the results under a fresh run id, and returns the run summary. Shared by
// the score command and the server's scheduled refresh.
func runScoring(ctx context.Context, db *sql.DB, scorer *trust.Scorer, ids []string, m *metrics.Metrics) (*ScoreRunResult, error) {
	start := time.Now().UTC()
	runID := uuid.NewString()

	recs, err := selectSources(db, ids)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("no sources to score, import first")
	}

	if err := data.StartRun(db, runID, start); err != nil {
		return nil, err
	}

	scores, err := scorer.ScoreBatch(ctx, recs, start)
	if err != nil {
		return nil, fmt.Errorf("scoring batch: %w", err)
	}
	for i := range scores {
		scores[i].RunID = runID
	}

	if err := data.SaveScores(db, runID, scores); err != nil {
		return nil, fmt.Errorf("saving scores: %w", err)
	}

	res := &ScoreRunResult{
		RunID:   runID,
		Sources: len(scores),
		Grades:  make(map[string]int),
	}
	for _, cs := range scores {
		res.Grades[string(cs.Grade)]++
		if cs.Insufficient {
			res.Insufficient++
		}
	}

	if err := data.CompleteRun(db, runID, time.Now().UTC(), res.Sources, res.Insufficient); err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	res.Duration = elapsed.String()

	if m != nil {
		m.RecordRun(scores, elapsed)
	}

	slog.Info("scoring run complete",
		"run", runID,
		"sources", res.Sources,
		"insufficient", res.Insufficient,
		"duration", res.Duration,
	)
	return res, nil
}

func selectSources(db *sql.DB, ids []string) ([]trust.SourceRecord, error) {
	if len(ids) == 0 {
		return data.GetSources(db, "")
	}

	recs := make([]trust.SourceRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := data.GetSource(db, id)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, fmt.Errorf("unknown source: %s", id)
		}
		recs = append(recs, *rec)
	}
	return recs, nil
}
