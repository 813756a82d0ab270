package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"grocerly/internal/cache"
	"grocerly/internal/config"
	"grocerly/internal/http/handlers"
	applog "grocerly/internal/log"
	"grocerly/internal/repos"
)

func main() {
	cfg := config.Load()

	if err := applog.Setup(cfg.Log); err != nil {
		log.Printf("[warn] could not open log file %s: %v", cfg.Log.File, err)
	}

	db, err := repos.OpenDB(cfg.DB)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	c := cache.New(cfg.Redis)
	if c == nil {
		applog.Info(nil, "cache.disabled", nil)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := c.Ping(ctx); err != nil {
			applog.Error(nil, "cache.ping.fail", err, map[string]any{"addr": cfg.Redis.Addr})
		}
		cancel()
	}
	defer c.Close()

	app := handlers.NewApp(cfg, handlers.NewDeps(db, cfg, c))

	go func() {
		applog.Info(nil, "server.start", map[string]any{"port": cfg.Port})
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	applog.Info(nil, "server.shutdown", nil)
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		applog.Error(nil, "server.shutdown.fail", err, nil)
	}
}
