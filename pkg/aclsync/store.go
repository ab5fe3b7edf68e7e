package aclsync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/minio/madmin-go/v3"

	"github.com/seguro-platform/scheduler/pkg/acl"
	"github.com/seguro-platform/scheduler/pkg/log"
	"github.com/seguro-platform/scheduler/pkg/types"
)

// iamStatement is a single entry in the rendered IAM policy document.
type iamStatement struct {
	Effect   string   `json:"Effect"`
	Action   []string `json:"Action"`
	Resource []string `json:"Resource"`
}

type iamPolicy struct {
	Version   string         `json:"Version"`
	Statement []iamStatement `json:"Statement"`
}

func storeActionName(a types.StoreAction) string {
	if a == types.StoreActionAny {
		return "s3:*"
	}
	return "s3:" + string(a)
}

// renderIAMPolicy converts a client's resolved store statements into an
// AWS-style IAM policy document, one Statement block per ACL statement,
// mirroring the original's arn:aws:s3:::{pattern} resource rendering.
func renderIAMPolicy(statements []types.StoreStatement) ([]byte, error) {
	policy := iamPolicy{Version: "2012-10-17"}
	for _, st := range statements {
		effect := "Allow"
		if st.Effect == types.EffectDeny {
			effect = "Deny"
		}
		actions := make([]string, 0, len(st.Actions))
		for _, a := range st.Actions {
			actions = append(actions, storeActionName(a))
		}
		policy.Statement = append(policy.Statement, iamStatement{
			Effect:   effect,
			Action:   actions,
			Resource: []string{fmt.Sprintf("arn:aws:s3:::%s", st.Object)},
		})
	}
	return json.Marshal(policy)
}

// StoreReconciler drives the object store's IAM policy admin API so
// each client's canned policy matches its resolved store statements.
type StoreReconciler struct {
	admin    *madmin.AdminClient
	snapshot *Snapshot
}

// NewStoreReconciler constructs a StoreReconciler.
func NewStoreReconciler(admin *madmin.AdminClient, snapshot *Snapshot) *StoreReconciler {
	return &StoreReconciler{admin: admin, snapshot: snapshot}
}

// Reconcile resolves one IAM policy per client in merged (skipping
// ignoredClients), diffs the rendered policies against the store's live
// canned policies (falling back to the snapshot cache only if that live
// query fails), and adds/updates or removes canned policies to match. A
// client whose resolved statement list is empty has its policy removed
// entirely rather than applied as a no-op allow-nothing policy.
func (r *StoreReconciler) Reconcile(ctx context.Context, merged types.AccessControlList, ignoredClients []string) error {
	ignored := make(map[string]bool, len(ignoredClients))
	for _, name := range ignoredClients {
		ignored[name] = true
	}

	desired := make(Set)
	policies := make(map[string][]byte)
	for name := range merged.Clients {
		if ignored[name] {
			continue
		}
		statements, err := acl.ResolveStoreStatements(merged, name)
		if err != nil {
			return fmt.Errorf("resolving store statements for %s: %w", name, err)
		}
		if len(statements) == 0 {
			continue
		}
		doc, err := renderIAMPolicy(statements)
		if err != nil {
			return fmt.Errorf("rendering policy for %s: %w", name, err)
		}
		policies[name] = doc
		desired[name] = Entity{Name: name, Fingerprint: string(doc)}
	}

	current, err := r.currentPolicies(ctx)
	if err != nil {
		return fmt.Errorf("determining current store policies: %w", err)
	}
	for name := range ignored {
		delete(current, name)
	}

	plan := Diff(current, desired)
	logger := log.WithComponent("aclsync-store")
	if len(plan.Create) == 0 && len(plan.Modify) == 0 && len(plan.Delete) == 0 {
		logger.Debug().Msg("store ACL already converged")
		return nil
	}

	for _, name := range append(plan.Create.Names(), plan.Modify.Names()...) {
		if err := r.admin.AddCannedPolicy(ctx, name, policies[name]); err != nil {
			return fmt.Errorf("applying store policy for %s: %w", name, err)
		}
	}
	for _, name := range plan.Delete.Names() {
		if err := r.admin.RemoveCannedPolicy(ctx, name); err != nil {
			return fmt.Errorf("removing store policy for %s: %w", name, err)
		}
	}

	logger.Info().
		Int("create_or_modify", len(plan.Create)+len(plan.Modify)).
		Int("delete", len(plan.Delete)).
		Msg("reconciled store ACL")

	if err := r.snapshot.SaveStorePolicies(desired); err != nil {
		return fmt.Errorf("saving store policy snapshot: %w", err)
	}
	return nil
}

// currentPolicies enumerates the object store's live canned policies.
// The snapshot is only a cache in front of this live call: it's
// consulted solely when the admin API itself is unreachable, so a lost
// or empty aclsync.db never makes the reconciler blind to policies it
// didn't create, and it never replays an AddCannedPolicy the store
// already holds.
func (r *StoreReconciler) currentPolicies(ctx context.Context) (Set, error) {
	live, err := r.admin.ListCannedPolicies(ctx)
	if err == nil {
		out := make(Set, len(live))
		for name, doc := range live {
			out[name] = Entity{Name: name, Fingerprint: string(doc)}
		}
		return out, nil
	}
	log.WithComponent("aclsync-store").Warn().Err(err).Msg("live ListCannedPolicies failed, falling back to snapshot cache")
	return r.snapshot.LoadStorePolicies()
}
