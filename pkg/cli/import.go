package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/lfti/trustindex/pkg/auth"
	"github.com/lfti/trustindex/pkg/data"
	"github.com/lfti/trustindex/pkg/net"
	"github.com/lfti/trustindex/pkg/trust"
)

var (
	importFileFlag = &cli.StringFlag{
		Name:  "file",
		Usage: "Path to a local snapshot feed file",
	}

	importURLFlag = &cli.StringFlag{
		Name:  "url",
		Usage: "Snapshot feed URL (overrides the configured ingest url)",
	}

	importCmd = &cli.Command{
		Name:    "import",
		Aliases: []string{"i"},
		Usage:   "Import source snapshots from the collector feed or a local file",
		UsageText: `trustindex import                                  # pull from the configured feed
   trustindex import --url https://feed.example.com   # pull from an explicit feed
   trustindex import --file snapshots.json            # load a local snapshot file`,
		Action: cmdImport,
		Flags: []cli.Flag{
			importFileFlag,
			importURLFlag,
		},
	}
)

// snapshotFeed is the collector's publish format: one entry per source,
// each carrying the raw scraped fields.
type snapshotFeed struct {
	Sources []trust.SourceRecord `json:"sources"`
}

// ImportResult summarizes one feed import.
type ImportResult struct {
	Sources  int            `json:"sources" yaml:"sources"`
	Skipped  int            `json:"skipped" yaml:"skipped"`
	ByType   map[string]int `json:"by_type" yaml:"byType"`
	Duration string         `json:"duration" yaml:"duration"`
}

func cmdImport(c *cli.Context) error {
	start := time.Now()
	cfg := getAppConfig(c)

	recs, err := loadSnapshots(c, cfg)
	if err != nil {
		return err
	}

	recs, skipped := dropMalformed(recs)
	if len(recs) == 0 {
		return errors.New("feed contained no usable sources")
	}

	if err := data.SaveSources(cfg.DB, recs); err != nil {
		return fmt.Errorf("saving sources: %w", err)
	}

	res := &ImportResult{
		Sources:  len(recs),
		Skipped:  skipped,
		ByType:   make(map[string]int),
		Duration: time.Since(start).String(),
	}
	for _, r := range recs {
		res.ByType[string(r.Type)]++
	}

	slog.Info("import complete", "sources", res.Sources, "skipped", res.Skipped)
	return encode(res)
}

// dropMalformed filters out records that cannot be stored or scored.
// A bad record in the feed should not abort the whole import.
func dropMalformed(recs []trust.SourceRecord) (kept []trust.SourceRecord, skipped int) {
	kept = recs[:0]
	for _, r := range recs {
		if r.ID == "" {
			slog.Warn("skipping record without id")
			skipped++
			continue
		}
		kept = append(kept, r)
	}
	return kept, skipped
}

func loadSnapshots(c *cli.Context, cfg *appConfig) ([]trust.SourceRecord, error) {
	if file := c.String(importFileFlag.Name); file != "" {
		return readSnapshotFile(file)
	}

	url := c.String(importURLFlag.Name)
	if url == "" {
		url = cfg.Conf.Ingest.URL
	}
	if url == "" {
		return nil, errors.New("no feed configured, pass --file or --url or set ingest.url")
	}

	ctx := c.Context
	client, err := feedClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var feed snapshotFeed
	if err := net.GetJSON(ctx, client, url, &feed); err != nil {
		return nil, fmt.Errorf("fetching feed %s: %w", url, err)
	}
	return normalize(feed.Sources), nil
}

// feedClient uses the stored collector token when one exists; public
// feeds work without it.
func feedClient(ctx context.Context, cfg *appConfig) (*http.Client, error) {
	var client *http.Client
	token := cfg.Conf.Ingest.Token
	if token == "" {
		var err error
		token, err = auth.GetToken(cfg.HomeDir)
		if errors.Is(err, auth.ErrNoToken) {
			slog.Debug("no collector token, using anonymous client")
			client, err = net.GetHTTPClient()
			if err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, err
		}
	}
	if client == nil {
		client = net.GetOAuthClient(ctx, token)
	}
	if d := time.Duration(cfg.Conf.Ingest.Timeout); d > 0 {
		client.Timeout = d
	}
	return client, nil
}

func readSnapshotFile(path string) ([]trust.SourceRecord, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot file %s: %w", path, err)
	}

	var feed snapshotFeed
	if err := json.Unmarshal(b, &feed); err == nil && len(feed.Sources) > 0 {
		return normalize(feed.Sources), nil
	}

	// Bare arrays are accepted too.
	var recs []trust.SourceRecord
	if err := json.Unmarshal(b, &recs); err != nil {
		return nil, fmt.Errorf("parsing snapshot file %s: %w", path, err)
	}
	return normalize(recs), nil
}

func normalize(recs []trust.SourceRecord) []trust.SourceRecord {
	for i := range recs {
		recs[i].Type = trust.ParseSourceType(string(recs[i].Type))
	}
	return recs
}
