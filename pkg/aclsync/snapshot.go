package aclsync

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketBrokerRoles   = []byte("broker_roles")
	bucketBrokerGroups  = []byte("broker_groups")
	bucketBrokerClients = []byte("broker_clients")
	bucketStorePolicies = []byte("store_policies")
)

// Snapshot persists the last successfully-applied desired state for
// each reconciled subsystem, as a fallback cache for when a reconcile's
// live introspection of the broker or store is itself unreachable. The
// live broker/store state is always preferred when it can be fetched.
type Snapshot struct {
	db *bolt.DB
}

// OpenSnapshot opens (creating if absent) the snapshot database under
// dataDir.
func OpenSnapshot(dataDir string) (*Snapshot, error) {
	dbPath := filepath.Join(dataDir, "aclsync.db")
	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening aclsync snapshot db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketBrokerRoles, bucketBrokerGroups, bucketBrokerClients, bucketStorePolicies} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("creating bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Snapshot{db: db}, nil
}

// Close closes the underlying database.
func (s *Snapshot) Close() error {
	return s.db.Close()
}

func (s *Snapshot) load(bucket []byte) (Set, error) {
	out := make(Set)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.ForEach(func(k, v []byte) error {
			var e Entity
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("decoding snapshot entry %s: %w", k, err)
			}
			out[string(k)] = e
			return nil
		})
	})
	return out, err
}

func (s *Snapshot) save(bucket []byte, set Set) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		// Clear the bucket first so deleted entities don't linger.
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		for name, e := range set {
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("encoding snapshot entry %s: %w", name, err)
			}
			if err := b.Put([]byte(name), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Snapshot) LoadBrokerRoles() (Set, error)   { return s.load(bucketBrokerRoles) }
func (s *Snapshot) LoadBrokerGroups() (Set, error)  { return s.load(bucketBrokerGroups) }
func (s *Snapshot) LoadBrokerClients() (Set, error) { return s.load(bucketBrokerClients) }
func (s *Snapshot) LoadStorePolicies() (Set, error) { return s.load(bucketStorePolicies) }

func (s *Snapshot) SaveBrokerRoles(set Set) error   { return s.save(bucketBrokerRoles, set) }
func (s *Snapshot) SaveBrokerGroups(set Set) error  { return s.save(bucketBrokerGroups, set) }
func (s *Snapshot) SaveBrokerClients(set Set) error { return s.save(bucketBrokerClients, set) }
func (s *Snapshot) SaveStorePolicies(set Set) error { return s.save(bucketStorePolicies, set) }
