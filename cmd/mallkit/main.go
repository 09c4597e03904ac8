package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mallkit/mallkit/config"
	"github.com/mallkit/mallkit/internal/app"
	"github.com/mallkit/mallkit/internal/storeapi"
	"github.com/mallkit/mallkit/internal/webserver"
)

var (
	confFile = flag.String("c", "mallkit.yml", "config file")
	initDB   = flag.Bool("initdb", false, "drop and recreate all tables, then exit")
	showConf = flag.Bool("p", false, "print effective config and exit")
)

func main() {
	flag.Parse()

	cfg := config.LoadConfig(*confFile)
	if *showConf {
		fmt.Printf("%+v\n", *cfg)
		return
	}

	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initDB {
		application.InitDb()
		zap.L().Info("database reinitialized")
		return
	}

	webserver.Init(application)
	storeapi.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		application.StartBackgroundJobs(ctx)
		return nil
	})
	g.Go(func() error {
		if err := webserver.Listen(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		zap.L().Info("shutting down")
		return webserver.Shutdown()
	})

	if err := g.Wait(); err != nil {
		zap.S().Errorf("server exited with error: %v", err)
		os.Exit(1)
	}
}
