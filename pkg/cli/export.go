package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/lfti/trustindex/pkg/data"
	"github.com/lfti/trustindex/pkg/trust"
)

var (
	exportOutFlag = &cli.StringFlag{
		Name:    "out",
		Aliases: []string{"o"},
		Usage:   "Output file (default: stdout)",
	}

	exportCmd = &cli.Command{
		Name:    "export",
		Aliases: []string{"e"},
		Usage:   "Export the latest scores as CSV",
		Action:  cmdExport,
		Flags: []cli.Flag{
			exportOutFlag,
		},
	}
)

func cmdExport(c *cli.Context) error {
	cfg := getAppConfig(c)

	scores, err := data.GetLatestScores(cfg.DB)
	if err != nil {
		return fmt.Errorf("querying latest scores: %w", err)
	}

	out := os.Stdout
	if path := c.String(exportOutFlag.Name); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating export file %s: %w", path, err)
		}
		defer f.Close()
		out = f
	}

	return writeScoresCSV(out, scores)
}

// writeScoresCSV renders one row per source: identity, composite, grade,
// then one sub-score column per check (empty when the check could not
// run), notes, and the run metadata.
func writeScoresCSV(w io.Writer, scores []trust.CompositeScore) error {
	checks := checkColumns(scores)

	header := []string{"source_id", "source_type", "composite", "grade", "confidence", "insufficient"}
	header = append(header, checks...)
	header = append(header, "notes", "run_id", "computed_at")

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, cs := range scores {
		byName := make(map[string]trust.CheckResult, len(cs.Checks))
		for _, r := range cs.Checks {
			byName[r.Check] = r
		}

		row := []string{
			cs.SourceID,
			string(cs.SourceType),
			strconv.FormatFloat(cs.Composite, 'f', 2, 64),
			string(cs.Grade),
			strconv.FormatFloat(cs.Confidence, 'f', 2, 64),
			strconv.FormatBool(cs.Insufficient),
		}

		var notes []string
		for _, name := range checks {
			r, ok := byName[name]
			if !ok || !r.Valid {
				row = append(row, "")
			} else {
				row = append(row, strconv.FormatFloat(r.Score, 'f', 4, 64))
			}
			if ok && len(r.Notes) > 0 {
				notes = append(notes, name+": "+strings.Join(r.Notes, "; "))
			}
		}

		row = append(row, strings.Join(notes, " | "), cs.RunID, cs.ComputedAt.UTC().Format(time.RFC3339))
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row for %s: %w", cs.SourceID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// checkColumns returns the union of check names across all scores,
// keeping the order they appear in (scheme order for a normal run).
func checkColumns(scores []trust.CompositeScore) []string {
	seen := make(map[string]bool)
	cols := make([]string, 0)
	for _, cs := range scores {
		for _, r := range cs.Checks {
			if !seen[r.Check] {
				seen[r.Check] = true
				cols = append(cols, r.Check)
			}
		}
	}
	return cols
}
