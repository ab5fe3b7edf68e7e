package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seguro-platform/scheduler/pkg/aclsync"
	"github.com/seguro-platform/scheduler/pkg/config"
	"github.com/seguro-platform/scheduler/pkg/log"
	"github.com/seguro-platform/scheduler/pkg/store"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	os.Exit(runMain())
}

func runMain() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return aclsync.ExitBrokerFailed | aclsync.ExitStoreFailed
	}
	return exitCode
}

// exitCode carries RunOnce's bitmask result out to os.Exit, since a
// cobra RunE return value only distinguishes error/no-error. It stays
// 0 unless a reconcile actually ran and reported failures.
var exitCode int

var rootCmd = &cobra.Command{
	Use:   "aclsync",
	Short: "Reconcile broker and object-store ACLs against the catalog",
	Long: `aclsync loads every ACL document under config/acls/, merges them into
one effective access-control list, and reconciles both the MQTT broker's
dynamic-security state and the object store's IAM policies against it.

It runs once and exits; schedule it externally (cron, a ScheduleTrigger
job, or the admin API's TriggerACLReconcile RPC) for periodic reconcile.`,
	Version: Version,
	RunE:    run,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("aclsync version %s\nCommit: %s\n", Version, Commit))
	rootCmd.Flags().String("acl-prefix", "config/acls/", "object store prefix holding ACL catalog documents")
	rootCmd.Flags().StringSlice("ignore-client", nil, "client name to skip during reconcile (repeatable)")
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

	prefix, _ := cmd.Flags().GetString("acl-prefix")
	ignored, _ := cmd.Flags().GetStringSlice("ignore-client")

	exitCode = aclsync.RunOnce(context.Background(), storeClient, wired.Broker, wired.Store, prefix, ignored)
	if exitCode != 0 {
		fmt.Fprintf(os.Stderr, "aclsync: reconcile finished with failures (exit code %d)\n", exitCode)
		return nil
	}
	fmt.Println("aclsync: reconcile converged")
	return nil
}
