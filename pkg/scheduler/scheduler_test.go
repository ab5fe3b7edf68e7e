package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobNameFromKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"config/jobs/hello.yaml", "hello"},
		{"config/jobs/Scale Job.yml", "scale-job"},
		{"hello.yaml", "hello"},
		{"config/jobs/nested/path/name.yaml", "name"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, jobNameFromKey(tt.key))
		})
	}
}

func TestIsYAMLKey(t *testing.T) {
	assert.True(t, isYAMLKey("config/jobs/hello.yaml"))
	assert.True(t, isYAMLKey("config/jobs/hello.yml"))
	assert.False(t, isYAMLKey("config/jobs/hello.json"))
	assert.False(t, isYAMLKey("config/jobs/README.md"))
}
