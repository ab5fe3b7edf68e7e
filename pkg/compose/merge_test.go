package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeepMergeScalarOverlayWins(t *testing.T) {
	base := map[string]any{"image": "base:latest"}
	overlay := map[string]any{"image": "overlay:latest"}
	merged := DeepMerge(base, overlay)
	assert.Equal(t, "overlay:latest", merged["image"])
}

func TestDeepMergeNestedMaps(t *testing.T) {
	base := map[string]any{
		"services": map[string]any{
			"job": map[string]any{"image": "base:latest", "environment": map[string]any{"A": "1"}},
		},
	}
	overlay := map[string]any{
		"services": map[string]any{
			"job": map[string]any{"environment": map[string]any{"B": "2"}},
		},
	}
	merged := DeepMerge(base, overlay)
	job := merged["services"].(map[string]any)["job"].(map[string]any)
	assert.Equal(t, "base:latest", job["image"])
	env := job["environment"].(map[string]any)
	assert.Equal(t, "1", env["A"])
	assert.Equal(t, "2", env["B"])
}

func TestDeepMergeListsByStableKeyUnion(t *testing.T) {
	base := []any{
		map[string]any{"target": "/certs", "source": "certs", "read_only": true},
	}
	overlay := []any{
		map[string]any{"target": "/keys/clients", "source": "key_clients", "read_only": true},
	}
	merged, ok := mergeListByKey(base, overlay)
	assert.True(t, ok)
	assert.Len(t, merged, 2)
}

func TestDeepMergeListsWithoutStableKeyReplaces(t *testing.T) {
	base := map[string]any{"command": []any{"base-cmd"}}
	overlay := map[string]any{"command": []any{"overlay-cmd"}}
	merged := DeepMerge(base, overlay)
	assert.Equal(t, []any{"overlay-cmd"}, merged["command"])
}
