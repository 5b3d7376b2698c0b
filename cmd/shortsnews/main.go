// Command shortsnews extracts news content and media from supported source
// URLs and stores publishable records.
//
// One-shot mode processes the URLs given as arguments and exits. Daemon mode
// (-daemon) reads one URL per line from stdin and runs the artifact cleanup
// schedule until the input closes or the process is signalled.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/woai-art/shorts-news-us/internal/app"
	"github.com/woai-art/shorts-news-us/internal/config"
	"github.com/woai-art/shorts-news-us/internal/logging"
)

func main() {
	daemon := flag.Bool("daemon", false, "read URLs from stdin and run scheduled cleanup")
	flag.Parse()

	// Missing .env is fine; environment variables may be set directly.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.JSON)

	if !*daemon && flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: shortsnews [-daemon] <url> [<url> ...]")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	if *daemon {
		if err := application.StartJanitor(); err != nil {
			logger.Error("cannot start cleanup schedule", "error", err)
			os.Exit(1)
		}
		runDaemon(ctx, application, logger)
		return
	}

	accepted := application.ProcessAll(ctx, flag.Args())
	logger.Info("batch finished", "submitted", flag.NArg(), "accepted", accepted)
	if accepted == 0 {
		os.Exit(1)
	}
}

// runDaemon consumes one URL per stdin line until EOF or cancellation.
func runDaemon(ctx context.Context, application *app.Application, logger *slog.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		application.ProcessAll(ctx, []string{line})
	}
	if err := scanner.Err(); err != nil {
		logger.Error("reading stdin", "error", err)
		return
	}
	logger.Info("input closed, shutting down")
}
