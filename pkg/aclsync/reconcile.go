package aclsync

import (
	"fmt"

	"github.com/seguro-platform/scheduler/pkg/log"
	"github.com/seguro-platform/scheduler/pkg/types"
)

// BrokerReconciler drives the MQTT broker's dynamic-security plugin to
// match a merged AccessControlList.
type BrokerReconciler struct {
	plugin   *Plugin
	snapshot *Snapshot
}

// NewBrokerReconciler constructs a BrokerReconciler.
func NewBrokerReconciler(plugin *Plugin, snapshot *Snapshot) *BrokerReconciler {
	return &BrokerReconciler{plugin: plugin, snapshot: snapshot}
}

// Reconcile diffs merged against the broker's live roles/groups/clients
// (falling back to the last-applied snapshot only if that live query
// fails), excluding ignoredClients from every one of the desired and
// current role/group/client sets (they are managed outside the catalog
// — system principals such as the scheduler's own broker client and
// its role/group), executes the resulting command plan, and on success
// updates the snapshot cache to the new desired state.
func (r *BrokerReconciler) Reconcile(merged types.AccessControlList, ignoredClients []string) error {
	desiredRoles, desiredGroups, desiredClients, err := BrokerDesiredState(merged)
	if err != nil {
		return fmt.Errorf("computing broker desired state: %w", err)
	}

	currentRoles, err := r.currentRoles()
	if err != nil {
		return fmt.Errorf("determining current broker roles: %w", err)
	}
	currentGroups, err := r.currentGroups()
	if err != nil {
		return fmt.Errorf("determining current broker groups: %w", err)
	}
	currentClients, err := r.currentClients()
	if err != nil {
		return fmt.Errorf("determining current broker clients: %w", err)
	}

	// Ignored principals are system-owned names (e.g. the built-in admin
	// account) that must never be created, modified, or deleted,
	// regardless of whether the name shows up as a client, a group, or a
	// role. Strip them from every changeset up front, the same way on
	// both the desired and current side, mirroring the original's
	// `cfg.not_in(cfg.belonging_to(ignored_clients))` on both operands.
	desiredRoles = desiredRoles.NotIn(desiredRoles.BelongingTo(ignoredClients))
	desiredGroups = desiredGroups.NotIn(desiredGroups.BelongingTo(ignoredClients))
	desiredClients = desiredClients.NotIn(desiredClients.BelongingTo(ignoredClients))
	currentRoles = currentRoles.NotIn(currentRoles.BelongingTo(ignoredClients))
	currentGroups = currentGroups.NotIn(currentGroups.BelongingTo(ignoredClients))
	currentClients = currentClients.NotIn(currentClients.BelongingTo(ignoredClients))

	rolePlan := Diff(currentRoles, desiredRoles)
	groupPlan := Diff(currentGroups, desiredGroups)
	clientPlan := Diff(currentClients, desiredClients)

	cmds := BuildPlan(merged, rolePlan, groupPlan, clientPlan)

	logger := log.WithComponent("aclsync-broker")
	if len(cmds) == 0 {
		logger.Debug().Msg("broker ACL already converged")
		return nil
	}
	logger.Info().
		Int("create_roles", len(rolePlan.Create)).
		Int("modify_roles", len(rolePlan.Modify)).
		Int("delete_roles", len(rolePlan.Delete)).
		Int("create_clients", len(clientPlan.Create)).
		Int("delete_clients", len(clientPlan.Delete)).
		Int("commands", len(cmds)).
		Msg("reconciling broker ACL")

	if err := r.plugin.Execute(cmds); err != nil {
		return fmt.Errorf("applying broker ACL plan: %w", err)
	}

	if err := r.snapshot.SaveBrokerRoles(desiredRoles); err != nil {
		return fmt.Errorf("saving broker role snapshot: %w", err)
	}
	if err := r.snapshot.SaveBrokerGroups(desiredGroups); err != nil {
		return fmt.Errorf("saving broker group snapshot: %w", err)
	}
	if err := r.snapshot.SaveBrokerClients(desiredClients); err != nil {
		return fmt.Errorf("saving broker client snapshot: %w", err)
	}
	return nil
}

// currentRoles enumerates the broker's live roles. The snapshot is only
// a cache in front of this: it's consulted solely when the live query
// itself fails, so a lost or empty aclsync.db never makes the
// reconciler blind to state it didn't create.
func (r *BrokerReconciler) currentRoles() (Set, error) {
	live, err := r.plugin.ListRoles()
	if err == nil {
		return live, nil
	}
	log.WithComponent("aclsync-broker").Warn().Err(err).Msg("live listRoles failed, falling back to snapshot cache")
	return r.snapshot.LoadBrokerRoles()
}

func (r *BrokerReconciler) currentGroups() (Set, error) {
	live, err := r.plugin.ListGroups()
	if err == nil {
		return live, nil
	}
	log.WithComponent("aclsync-broker").Warn().Err(err).Msg("live listGroups failed, falling back to snapshot cache")
	return r.snapshot.LoadBrokerGroups()
}

func (r *BrokerReconciler) currentClients() (Set, error) {
	live, err := r.plugin.ListClients()
	if err == nil {
		return live, nil
	}
	log.WithComponent("aclsync-broker").Warn().Err(err).Msg("live listClients failed, falling back to snapshot cache")
	return r.snapshot.LoadBrokerClients()
}
