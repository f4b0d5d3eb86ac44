package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/samvad-blog-client/internal/app"
	"github.com/samvad-hq/samvad-blog-client/internal/config"
	"github.com/samvad-hq/samvad-blog-client/internal/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "blogctl: %v\n", err)
		os.Exit(app.ExitCode(err))
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.DebugObj("blogctl starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli, err := app.NewApp(ctx, cfg, log, os.Stdin, os.Stdout)
	if err != nil {
		logger.ErrorObj("failed to initialize blogctl", "error", err)
		return err
	}
	defer func() {
		if cerr := cli.Close(); cerr != nil {
			logger.WarnObj("shutdown incomplete", "error", cerr)
		}
	}()

	return cli.Run(ctx, args)
}
