package aclsync

import (
	"fmt"
	"os"

	"github.com/minio/madmin-go/v3"

	"github.com/seguro-platform/scheduler/pkg/broker"
)

// WiringConfig carries the connection details both the scheduler and
// the acl-sync CLI need to build a broker and store reconciler against
// the same snapshot database.
type WiringConfig struct {
	MQTTHost  string
	MQTTPort  int
	TLSCACert string
	TLSCert   string
	TLSKey    string

	S3Host   string
	S3Port   int
	S3Secure bool

	DataDir string
}

// Wired is the pair of reconcile halves TriggerACLReconcile (and the
// acl-sync CLI's one-shot run) drives against a shared snapshot.
type Wired struct {
	Broker   *BrokerReconciler
	Store    *StoreReconciler
	Snapshot *Snapshot
}

// Build connects to the broker and the store's admin API and
// constructs both reconcile halves against one on-disk snapshot.
func Build(cfg WiringConfig) (*Wired, error) {
	snapshot, err := OpenSnapshot(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening ACL snapshot: %w", err)
	}

	mqttClient, err := broker.New(broker.Config{
		Host:      cfg.MQTTHost,
		Port:      cfg.MQTTPort,
		ClientID:  "scheduler-aclsync",
		TLSCACert: cfg.TLSCACert,
		TLSCert:   cfg.TLSCert,
		TLSKey:    cfg.TLSKey,
	})
	if err != nil {
		snapshot.Close()
		return nil, fmt.Errorf("connecting to broker: %w", err)
	}
	plugin := NewPlugin(mqttClient)

	// The IAM admin API authenticates with the store's root credentials
	// rather than a per-client certificate identity, since reconciling
	// canned policies requires admin rights no client role grants.
	endpoint := fmt.Sprintf("%s:%d", cfg.S3Host, cfg.S3Port)
	admin, err := madmin.New(endpoint, os.Getenv("MINIO_ROOT_USER"), os.Getenv("MINIO_ROOT_PASSWORD"), cfg.S3Secure)
	if err != nil {
		snapshot.Close()
		return nil, fmt.Errorf("constructing object store admin client: %w", err)
	}

	return &Wired{
		Broker:   NewBrokerReconciler(plugin, snapshot),
		Store:    NewStoreReconciler(admin, snapshot),
		Snapshot: snapshot,
	}, nil
}
