package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seguro-platform/scheduler/pkg/types"
)

func TestParseAtTime(t *testing.T) {
	tests := []struct {
		name    string
		at      string
		wantErr bool
	}{
		{"hh:mm", "14:30", false},
		{"hh:mm:ss", "14:30:15", false},
		{"colon-minute", ":30", false},
		{"malformed", "not-a-time", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseAtTime(tt.at)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUnitToDuration(t *testing.T) {
	tests := []struct {
		unit    types.ScheduleUnit
		wantErr bool
	}{
		{types.UnitSeconds, false},
		{types.UnitMinutes, false},
		{types.UnitHours, false},
		{types.UnitDays, false},
		{types.UnitWeeks, false},
		{"fortnights", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.unit), func(t *testing.T) {
			_, err := unitToDuration(tt.unit)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScheduleJobDefinitionPlainInterval(t *testing.T) {
	trig := types.ScheduleTrigger{Interval: 5, Unit: types.UnitSeconds}
	def, err := scheduleJobDefinition(trig)
	require.NoError(t, err)
	assert.NotNil(t, def)
}

func TestScheduleJobDefinitionRandomInterval(t *testing.T) {
	to := 10
	trig := types.ScheduleTrigger{Interval: 5, IntervalTo: &to, Unit: types.UnitSeconds}
	def, err := scheduleJobDefinition(trig)
	require.NoError(t, err)
	assert.NotNil(t, def)
}

func TestScheduleJobDefinitionDailyAt(t *testing.T) {
	trig := types.ScheduleTrigger{Interval: 1, Unit: types.UnitDays, At: "03:00"}
	def, err := scheduleJobDefinition(trig)
	require.NoError(t, err)
	assert.NotNil(t, def)
}

func TestScheduleJobDefinitionWeeklyAt(t *testing.T) {
	trig := types.ScheduleTrigger{Interval: 1, Unit: types.UnitWeeks, At: "03:00", StartDay: types.Monday}
	def, err := scheduleJobDefinition(trig)
	require.NoError(t, err)
	assert.NotNil(t, def)
}

func TestIntervalOrOneDefaultsToOne(t *testing.T) {
	assert.Equal(t, 1, intervalOrOne(0))
	assert.Equal(t, 1, intervalOrOne(-3))
	assert.Equal(t, 5, intervalOrOne(5))
}
