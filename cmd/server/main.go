package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/KDT2006/roguelobby/internal/config"
	"github.com/KDT2006/roguelobby/internal/dungeon"
	"github.com/KDT2006/roguelobby/internal/logging"
	"github.com/KDT2006/roguelobby/internal/server"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "roguelobby:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := config.NewFlagSet("roguelobby-server")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadConfig("", flags)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	catalog, err := dungeon.LoadCatalog(cfg.Dungeons.Dir, cfg.Dungeons.AllowDefault)
	if err != nil {
		return fmt.Errorf("failed to load dungeons: %w", err)
	}
	log.Info("loaded dungeons",
		zap.Strings("ids", catalog.IDs()),
		zap.Bool("allow_default", cfg.Dungeons.AllowDefault))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.Server, catalog, log)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("stopping server", zap.Error(context.Cause(ctx)))
		srv.Shutdown()
		return nil
	})

	return g.Wait()
}
