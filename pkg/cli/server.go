package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"

	"github.com/lfti/trustindex/pkg/metrics"
	"github.com/lfti/trustindex/pkg/trust"
)

const (
	serverShutdownWaitSeconds = 5
	serverTimeoutSeconds      = 300
	serverMaxHeaderBytes      = 20
)

var (
	portFlag = &cli.IntFlag{
		Name:  "port",
		Usage: "Port on which the server will listen (default: from config)",
	}

	refreshFlag = &cli.StringFlag{
		Name:  "refresh",
		Usage: "Cron expression for scheduled re-scoring (e.g. '0 */6 * * *', default: from config)",
	}

	serverCmd = &cli.Command{
		Name:    "server",
		Aliases: []string{"serve"},
		Usage:   "Start the local dashboard data API",
		Action:  cmdStartServer,
		Flags: []cli.Flag{
			portFlag,
			refreshFlag,
			debugFlag,
		},
	}
)

func cmdStartServer(c *cli.Context) error {
	cfg := getAppConfig(c)

	port := c.Int(portFlag.Name)
	if port == 0 {
		port = cfg.Conf.Server.Port
	}
	address := fmt.Sprintf("127.0.0.1:%d", port)

	scorer, err := buildScorer(cfg.Conf)
	if err != nil {
		return err
	}

	m := metrics.New()
	mux := makeRouter(cfg.DB, m)
	s := &http.Server{
		Addr:           address,
		Handler:        mux,
		ReadTimeout:    serverTimeoutSeconds * time.Second,
		WriteTimeout:   serverTimeoutSeconds * time.Second,
		MaxHeaderBytes: 1 << serverMaxHeaderBytes,
	}

	schedule := c.String(refreshFlag.Name)
	if schedule == "" {
		schedule = cfg.Conf.Server.Refresh
	}
	if schedule != "" {
		stop, err := startRefresh(cfg.DB, scorer, m, schedule)
		if err != nil {
			return err
		}
		defer stop()
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("error starting server", "error", err)
		}
	}()

	slog.Info("server started", "address", fmt.Sprintf("http://%s", address))

	<-done

	ctx, cancel := context.WithTimeout(context.Background(), serverShutdownWaitSeconds*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("error shutting down server", "error", err)
	}
	return nil
}

// startRefresh schedules recurring scoring runs. The returned stop
// function waits for an in-flight run to finish.
func startRefresh(db *sql.DB, scorer *trust.Scorer, m *metrics.Metrics, schedule string) (func(), error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if _, err := runScoring(context.Background(), db, scorer, nil, m); err != nil {
			slog.Error("scheduled scoring run failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}

	c.Start()
	slog.Info("scheduled re-scoring enabled", "schedule", schedule)

	return func() {
		ctx := c.Stop()
		<-ctx.Done()
	}, nil
}

func makeRouter(db *sql.DB, m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()

	// Dashboard data API
	mux.HandleFunc("GET /data/scores", scoresAPIHandler(db))
	mux.HandleFunc("GET /data/source", sourceAPIHandler(db))
	mux.HandleFunc("GET /data/rankings", rankingsAPIHandler(db))
	mux.HandleFunc("GET /data/summary", summaryAPIHandler(db))
	mux.HandleFunc("GET /data/grades", gradesAPIHandler(db))
	mux.HandleFunc("GET /data/runs", runsAPIHandler(db))
	mux.HandleFunc("GET /data/export", exportAPIHandler(db))

	mux.Handle("GET /metrics", m.Handler())

	return mux
}
