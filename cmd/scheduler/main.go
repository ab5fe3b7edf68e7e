package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/seguro-platform/scheduler/pkg/aclsync"
	"github.com/seguro-platform/scheduler/pkg/api"
	"github.com/seguro-platform/scheduler/pkg/compose"
	"github.com/seguro-platform/scheduler/pkg/config"
	"github.com/seguro-platform/scheduler/pkg/events"
	"github.com/seguro-platform/scheduler/pkg/job"
	"github.com/seguro-platform/scheduler/pkg/log"
	"github.com/seguro-platform/scheduler/pkg/metrics"
	"github.com/seguro-platform/scheduler/pkg/scheduler"
	"github.com/seguro-platform/scheduler/pkg/store"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "scheduler",
	Short:   "Catalog-driven job scheduler",
	Long:    "scheduler watches an object-store job catalog and keeps a set of triggered compose containers in sync with it.",
	Version: Version,
	RunE:    run,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("scheduler version %s\nCommit: %s\n", Version, Commit))
	rootCmd.Flags().String("admin-addr", "127.0.0.1:7443", "admin API listen address")
	rootCmd.Flags().String("metrics-addr", "127.0.0.1:9090", "metrics/health listen address")
	rootCmd.Flags().Bool("log-json", true, "output logs as JSON")
	rootCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func run(cmd *cobra.Command, args []string) error {
	logLevel, _ := cmd.Flags().GetString("log-level")
	logJSON, _ := cmd.Flags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(logLevel), JSONOutput: logJSON})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	storeClient, err := store.New(store.Config{
		Host:      fmt.Sprintf("%s:%d", cfg.S3Host, cfg.S3Port),
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		Secure:    cfg.S3Secure,
		TLSCACert: cfg.TLSCACert,
		TLSCert:   cfg.TLSCert,
		TLSKey:    cfg.TLSKey,
	})
	if err != nil {
		return fmt.Errorf("connecting to object store: %w", err)
	}

	composer := compose.NewComposer(compose.Config{
		BinaryAndArgs: []string{cfg.ComposeBin, "compose"},
		ProjectName:   "scheduler",
		NetworkName:   cfg.NetworkName,
	})

	eventBroker := events.NewBroker()
	eventBroker.Start()
	defer eventBroker.Stop()

	sched, err := scheduler.New(storeClient, composer, eventBroker, scheduler.Config{
		Invoke: job.InvocationContext{
			S3Host:    cfg.S3Host,
			MQTTHost:  cfg.MQTTHost,
			TLSCACert: cfg.TLSCACert,
			TLSCert:   cfg.TLSCert,
			TLSKey:    cfg.TLSKey,
		},
		ComposeCfg: compose.Config{
			BinaryAndArgs: []string{cfg.ComposeBin, "compose"},
			ProjectName:   "scheduler",
			NetworkName:   cfg.NetworkName,
		},
	})
	if err != nil {
		return fmt.Errorf("constructing scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		if err := sched.Start(ctx); err != nil {
			errCh <- fmt.Errorf("scheduler stopped: %w", err)
		}
	}()
	fmt.Println("scheduler: catalog watcher started")

	metrics.SetVersion(Version)
	metrics.RegisterComponent("store", true, "connected")
	metrics.RegisterComponent("broker", false, "starting")
	metrics.RegisterComponent("api", false, "starting")

	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	go func() {
		http.Handle("/metrics", metrics.Handler())
		http.Handle("/health", metrics.HealthHandler())
		http.Handle("/ready", metrics.ReadyHandler())
		http.Handle("/live", metrics.LivenessHandler())
		if err := http.ListenAndServe(metricsAddr, nil); err != nil {
			fmt.Fprintf(os.Stderr, "metrics server error: %v\n", err)
		}
	}()
	fmt.Printf("scheduler: metrics endpoint http://%s/metrics\n", metricsAddr)

	wired, err := aclsync.Build(aclsync.WiringConfig{
		MQTTHost:  cfg.MQTTHost,
		MQTTPort:  cfg.MQTTPort,
		TLSCACert: cfg.TLSCACert,
		TLSCert:   cfg.TLSCert,
		TLSKey:    cfg.TLSKey,
		S3Host:    cfg.S3Host,
		S3Port:    cfg.S3Port,
		S3Secure:  cfg.S3Secure,
		DataDir:   cfg.DataDir,
	})
	if err != nil {
		return fmt.Errorf("constructing ACL reconcilers: %w", err)
	}
	defer wired.Snapshot.Close()
	metrics.UpdateComponent("broker", true, "connected")

	recon := api.Reconcilers{
		Store:          storeClient,
		Broker:         wired.Broker,
		StoreRec:       wired.Store,
		CatalogPrefix:  "config/acls/",
		IgnoredClients: nil,
	}

	adminServer, err := api.NewServer(sched, eventBroker, recon, cfg.TLSCert, cfg.TLSKey, cfg.TLSCACert)
	if err != nil {
		return fmt.Errorf("constructing admin API server: %w", err)
	}
	adminAddr, _ := cmd.Flags().GetString("admin-addr")
	go func() {
		if err := adminServer.Start(adminAddr); err != nil {
			errCh <- fmt.Errorf("admin API error: %w", err)
		}
	}()

	time.Sleep(200 * time.Millisecond)
	metrics.UpdateComponent("api", true, "ready")
	fmt.Printf("scheduler: admin API listening on %s\n", adminAddr)
	fmt.Println("scheduler: running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		fmt.Println("scheduler: shutting down")
	case err := <-errCh:
		fmt.Fprintf(os.Stderr, "scheduler: %v\n", err)
	}

	adminServer.Stop()
	sched.Stop(context.Background())
	fmt.Println("scheduler: shutdown complete")
	return nil
}
