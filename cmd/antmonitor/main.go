package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"antmonitor/config"
	"antmonitor/engine"
	"antmonitor/fleet"
	"antmonitor/fleet/antfleet"
	"antmonitor/messaging"
	"antmonitor/metrics"
	"antmonitor/snapshot"
	"antmonitor/store"
	"antmonitor/www"
)

var Version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "antmonitor.yaml", "path to config file")
	writeConfig := flag.Bool("write-config", false, "write the effective config to -config and exit")
	debug := flag.Bool("debug", false, "log automatic refresh failures and collection changes")
	flag.Parse()

	if *showVersion {
		fmt.Println("antmonitor", Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *writeConfig {
		if err := cfg.Save(*configPath); err != nil {
			log.Fatalf("save config: %v", err)
		}
		log.Printf("antmonitor: wrote %s", *configPath)
		return
	}

	// Database
	db, err := store.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	log.Printf("antmonitor: database open (%s)", cfg.Database.Driver)

	m := metrics.New()

	// Redis snapshots
	var snapshots engine.SnapshotSink
	if cfg.Redis.Address != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		rs := snapshot.NewRedisStore(redisClient, cfg.Redis.Prefix, cfg.Redis.TTL)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rs.Ping(ctx); err != nil {
			log.Printf("antmonitor: redis not available (%v), snapshots will retry on each change", err)
		} else {
			log.Printf("antmonitor: redis connected (%s)", cfg.Redis.Address)
			if err := rs.FlushAll(ctx); err != nil {
				log.Printf("antmonitor: clear old snapshots: %v", err)
			}
		}
		cancel()
		w := snapshot.NewWriter(rs)
		defer w.Stop()
		snapshots = w
	}

	// Messaging
	var notifier engine.Notifier
	if cfg.Messaging.Backend != "" {
		msgClient := messaging.NewClient(&cfg.Messaging)
		streams := []string{"connection", "commands"}
		for _, k := range fleet.Kinds {
			streams = append(streams, string(k))
		}
		if err := msgClient.Connect(streams...); err != nil {
			log.Printf("antmonitor: messaging connect failed (%v)", err)
		} else {
			log.Printf("antmonitor: messaging connected (%s)", msgClient.Backend())
		}
		defer msgClient.Close()
		n := messaging.NewNotifier(msgClient, cfg.Messaging.StationID)
		defer n.Stop()
		notifier = n
	}

	// Fleet backend (ANT adapter)
	fleetAdapter := antfleet.New(antfleet.Config{
		BaseURL: cfg.ANT.BaseURL,
		Timeout: cfg.ANT.Timeout,
	})

	// Engine
	eng := engine.New(engine.Config{
		AppConfig:  cfg,
		ConfigPath: *configPath,
		DB:         db,
		Fleet:      fleetAdapter,
		Snapshots:  snapshots,
		Notifier:   notifier,
		Metrics:    m,
		Debug:      *debug,
	})
	eng.Start()
	defer eng.Stop()

	// Web server
	handler, stopWeb := www.NewRouter(eng)

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		log.Printf("antmonitor: web server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("web server: %v", err)
		}
	}()

	log.Printf("antmonitor: ready")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Printf("antmonitor: shutting down...")
	stopWeb()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	log.Printf("antmonitor: stopped")
}
