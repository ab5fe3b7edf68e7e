package aclsync

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/seguro-platform/scheduler/pkg/acl"
	"github.com/seguro-platform/scheduler/pkg/log"
	"github.com/seguro-platform/scheduler/pkg/store"
	"github.com/seguro-platform/scheduler/pkg/types"
)

// LoadCatalog fetches every ACL catalog document under prefix, prefixes
// each document's client/group/role names with its file stem to
// namespace tenants, and merges them into one effective
// AccessControlList, in lexicographic key order (acl.MergeAll's
// order-deterministic union). A document that fails to fetch or parse
// is logged and skipped; the rest still merge, matching the job
// catalog's skip-the-offending-entry policy.
func LoadCatalog(ctx context.Context, storeClient *store.Client, prefix string) (types.AccessControlList, error) {
	logger := log.WithComponent("aclsync")

	keys, err := storeClient.ListKeys(ctx, prefix)
	if err != nil {
		return types.AccessControlList{}, fmt.Errorf("listing ACL catalog: %w", err)
	}

	docs := make([]types.AccessControlList, 0, len(keys))
	for _, key := range keys {
		data, err := storeClient.GetObject(ctx, key)
		if err != nil {
			logger.Error().Err(err).Str("key", key).Msg("fetching ACL document, skipping")
			continue
		}
		var doc types.AccessControlList
		if err := yaml.Unmarshal(data, &doc); err != nil {
			logger.Error().Err(err).Str("key", key).Msg("parsing ACL document, skipping")
			continue
		}
		docs = append(docs, acl.Prefix(doc, docStem(key)))
	}
	return acl.MergeAll(docs), nil
}

// docStem derives an ACL document's namespace prefix from its catalog
// object key: the basename with its extension stripped.
func docStem(key string) string {
	base := key
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '/' {
			base = base[i+1:]
			break
		}
	}
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '.' {
			return base[:i]
		}
	}
	return base
}

// Result bitmask bits, per the ACL reconciler's documented exit-code
// contract: bit 0 is a broker reconcile failure, bit 1 a store one.
const (
	ExitBrokerFailed = 1 << 0
	ExitStoreFailed  = 1 << 1
)

// RunOnce loads the ACL catalog, reconciles both the broker and the
// object store against it, and returns the bitmask exit code. Both
// reconciles run even if one fails, so a broker outage never prevents
// the store policies from converging (and vice versa).
func RunOnce(ctx context.Context, storeClient *store.Client, brokerRec *BrokerReconciler, storeRec *StoreReconciler, catalogPrefix string, ignoredClients []string) int {
	logger := log.WithComponent("aclsync")

	merged, err := LoadCatalog(ctx, storeClient, catalogPrefix)
	if err != nil {
		logger.Error().Err(err).Msg("loading ACL catalog")
		return ExitBrokerFailed | ExitStoreFailed
	}

	code := 0
	if err := brokerRec.Reconcile(merged, ignoredClients); err != nil {
		logger.Error().Err(err).Msg("reconciling broker ACL")
		code |= ExitBrokerFailed
	}
	if err := storeRec.Reconcile(ctx, merged, ignoredClients); err != nil {
		logger.Error().Err(err).Msg("reconciling store ACL")
		code |= ExitStoreFailed
	}
	return code
}
