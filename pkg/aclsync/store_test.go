package aclsync

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seguro-platform/scheduler/pkg/types"
)

func TestRenderIAMPolicyActionNames(t *testing.T) {
	statements := []types.StoreStatement{
		{Effect: types.EffectAllow, Actions: []types.StoreAction{types.StoreActionGetObject, types.StoreActionListObjects}, Object: "config/jobs/*"},
		{Effect: types.EffectDeny, Actions: []types.StoreAction{types.StoreActionAny}, Object: "config/acls/*"},
	}

	doc, err := renderIAMPolicy(statements)
	require.NoError(t, err)

	var policy iamPolicy
	require.NoError(t, json.Unmarshal(doc, &policy))

	assert.Equal(t, "2012-10-17", policy.Version)
	require.Len(t, policy.Statement, 2)
	assert.Equal(t, "Allow", policy.Statement[0].Effect)
	assert.Equal(t, []string{"s3:GetObject", "s3:ListObjects"}, policy.Statement[0].Action)
	assert.Equal(t, []string{"arn:aws:s3:::config/jobs/*"}, policy.Statement[0].Resource)
	assert.Equal(t, "Deny", policy.Statement[1].Effect)
	assert.Equal(t, []string{"s3:*"}, policy.Statement[1].Action)
}

// TestIgnoredClientPolicyNeverDeleted mirrors the store reconciler's own
// filtering of `current` by ignored client name before diffing: an
// ignored client's policy must never land in Delete, even when it's
// absent from desired (as it always is, since Reconcile never resolves
// statements for an ignored name either).
func TestIgnoredClientPolicyNeverDeleted(t *testing.T) {
	ignored := map[string]bool{"admin": true}

	current := entitySet("admin", "sensor-1")
	desired := entitySet("sensor-1")

	for name := range ignored {
		delete(current, name)
	}

	plan := Diff(current, desired)
	assert.NotContains(t, plan.Delete, "admin")
	assert.Empty(t, plan.Delete)
}
