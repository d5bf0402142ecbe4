package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"equity-advisor/internal/httpapi"
	"equity-advisor/internal/logger"
	"equity-advisor/internal/trace"
)

const usage = `usage: advisor <command> [flags]

commands:
  serve              run the HTTP API and the scheduled refresh
  analyze -symbol S  analyze one symbol and print the result
  refresh            re-analyze the watchlist and every stored symbol
`

func main() {
	if err := initializeSystem(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := trace.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to shut down tracer: %v\n", err)
	}
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	cmd := "serve"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return 1
	}

	a, err := bootstrap(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to start", err)
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn(ctx, "Failed to close resources", "error", err)
		}
	}()

	switch cmd {
	case "serve":
		err = serve(ctx, a)
	case "analyze":
		err = analyzeOnce(ctx, a, args)
	case "refresh":
		err = refreshOnce(ctx, a)
	default:
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
	if err != nil {
		logger.ErrorWithErr(ctx, "Command failed", err, "command", cmd)
		return 1
	}
	return 0
}

func analyzeOnce(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	symbol := fs.String("symbol", "", "ticker to analyze")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *symbol == "" && fs.NArg() > 0 {
		*symbol = fs.Arg(0)
	}
	if *symbol == "" {
		return errors.New("analyze needs -symbol")
	}

	res, err := a.advisor.AnalyzeSymbol(ctx, *symbol)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func refreshOnce(ctx context.Context, a *app) error {
	sum, err := a.advisor.RefreshAll(ctx)
	if err != nil {
		return err
	}
	return printJSON(sum)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func serve(ctx context.Context, a *app) error {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      httpapi.NewRouter(a.advisor, a.rec.Handler()),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	sched, err := schedule(ctx, a)
	if err != nil {
		return err
	}
	sched.Start()
	defer func() { <-sched.Stop().Done() }()

	errc := make(chan error, 1)
	go func() {
		logger.Info(ctx, "Advisor API listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info(ctx, "Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// schedule registers the periodic refresh and the daily journal compaction.
func schedule(ctx context.Context, a *app) (*cron.Cron, error) {
	c := cron.New()

	if expr := a.cfg.Refresh.Schedule; expr != "" {
		_, err := c.AddFunc(expr, func() {
			sum, err := a.advisor.RefreshAll(ctx)
			if err != nil {
				logger.Warn(ctx, "Scheduled refresh failed", "error", err)
				return
			}
			logger.Info(ctx, "Scheduled refresh done",
				"updated", sum.UpdatedCount,
				"changed", sum.ChangedCount,
				"total", sum.TotalStocks,
			)
		})
		if err != nil {
			return nil, fmt.Errorf("invalid refresh.schedule %q: %w", expr, err)
		}
		logger.Info(ctx, "Scheduled refresh enabled", "schedule", expr)
	}

	if _, err := c.AddFunc("@daily", func() {
		compressOldLogs(ctx, a.journal, a.cfg.Journal.RetentionDays)
	}); err != nil {
		return nil, err
	}
	compressOldLogs(ctx, a.journal, a.cfg.Journal.RetentionDays)
	return c, nil
}
