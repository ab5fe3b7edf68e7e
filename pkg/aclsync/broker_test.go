package aclsync

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seguro-platform/scheduler/pkg/types"
)

func TestRoleCreateCommandsSubscribeExpansion(t *testing.T) {
	cmds := roleCreateCommands("r1", types.Role{
		Broker: []types.BrokerStatement{
			{Effect: types.EffectAllow, Actions: []types.BrokerAction{types.BrokerActionSubscribe}, Topic: "data/#", Priority: 0},
		},
	})
	assert.Equal(t, "createRole", cmds[0].Command)
	// Subscribe expands into two ACL entries per spec (pattern + receive).
	assert.Len(t, cmds, 3)
}

func TestBuildPlanOrdersRolesGroupsClients(t *testing.T) {
	merged := types.AccessControlList{
		Roles:   map[string]types.Role{"r1": {}},
		Groups:  map[string]types.Group{"g1": {Roles: []string{"r1"}}},
		Clients: map[string]types.Client{"c1": {Groups: []string{"g1"}}},
	}
	rolePlan := Plan{Create: entitySet("r1")}
	groupPlan := Plan{Create: entitySet("g1")}
	clientPlan := Plan{Create: entitySet("c1")}

	cmds := BuildPlan(merged, rolePlan, groupPlan, clientPlan)
	assert.Equal(t, "createRole", cmds[0].Command)
	assert.Equal(t, "createGroup", cmds[1].Command)
	assert.Equal(t, "addGroupRole", cmds[2].Command)
	assert.Equal(t, "createClient", cmds[3].Command)
	assert.Equal(t, "addClientGroup", cmds[4].Command)
}

func TestBuildPlanDeleteOrderIsReversed(t *testing.T) {
	merged := types.AccessControlList{}
	rolePlan := Plan{Delete: entitySet("r1")}
	groupPlan := Plan{Delete: entitySet("g1")}
	clientPlan := Plan{Delete: entitySet("c1")}

	cmds := BuildPlan(merged, rolePlan, groupPlan, clientPlan)
	assert.Equal(t, "deleteClient", cmds[0].Command)
	assert.Equal(t, "deleteGroup", cmds[1].Command)
	assert.Equal(t, "deleteRole", cmds[2].Command)
}

// TestIgnoredPrincipalsExcludedFromEveryEntityKind exercises the
// NotIn(BelongingTo(ignored)) filter Reconcile applies to roles, groups,
// and clients on both the desired and current side: an ignored name
// must never surface in a Diff plan, whichever entity kind it names.
func TestIgnoredPrincipalsExcludedFromEveryEntityKind(t *testing.T) {
	ignored := []string{"admin"}

	desiredRoles := entitySet("admin", "reader")
	currentRoles := Set{"admin": {Name: "admin", Fingerprint: "stale"}}
	desiredGroups := entitySet("admin", "viewers")
	currentGroups := entitySet("admin")
	desiredClients := entitySet("admin", "sensor-1")
	currentClients := entitySet("admin")

	desiredRoles = desiredRoles.NotIn(desiredRoles.BelongingTo(ignored))
	currentRoles = currentRoles.NotIn(currentRoles.BelongingTo(ignored))
	desiredGroups = desiredGroups.NotIn(desiredGroups.BelongingTo(ignored))
	currentGroups = currentGroups.NotIn(currentGroups.BelongingTo(ignored))
	desiredClients = desiredClients.NotIn(desiredClients.BelongingTo(ignored))
	currentClients = currentClients.NotIn(currentClients.BelongingTo(ignored))

	rolePlan := Diff(currentRoles, desiredRoles)
	groupPlan := Diff(currentGroups, desiredGroups)
	clientPlan := Diff(currentClients, desiredClients)

	// "admin" never appears in any plan, even though it was present
	// (and even stale/fingerprint-mismatched) on both sides.
	for _, plan := range []Plan{rolePlan, groupPlan, clientPlan} {
		assert.NotContains(t, plan.Create, "admin")
		assert.NotContains(t, plan.Modify, "admin")
		assert.NotContains(t, plan.Delete, "admin")
	}
	assert.Contains(t, rolePlan.Create, "reader")
	assert.Contains(t, groupPlan.Create, "viewers")
	assert.Contains(t, clientPlan.Create, "sensor-1")
}
