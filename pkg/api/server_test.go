package api

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seguro-platform/scheduler/pkg/types"
)

func TestTriggerIDs(t *testing.T) {
	spec := types.JobSpec{
		Triggers: map[string]types.Trigger{
			"on-upload": {Kind: types.TriggerKindStore},
			"nightly":   {Kind: types.TriggerKindSchedule},
		},
	}
	ids := triggerIDs(spec)
	require.Len(t, ids, 2)
	require.Contains(t, ids, "on-upload")
	require.Contains(t, ids, "nightly")
}

func TestTriggerIDsEmpty(t *testing.T) {
	require.Empty(t, triggerIDs(types.JobSpec{}))
}

func TestTriggerSummaryStore(t *testing.T) {
	summary := triggerSummary(types.Trigger{
		Kind:  types.TriggerKindStore,
		Store: &types.StoreTrigger{Type: types.StoreEventCreated, Prefix: "raw/"},
	})
	require.Equal(t, "store created under raw/", summary)
}

func TestTriggerSummarySchedule(t *testing.T) {
	summary := triggerSummary(types.Trigger{
		Kind:     types.TriggerKindSchedule,
		Schedule: &types.ScheduleTrigger{Interval: 5, Unit: types.UnitMinutes},
	})
	require.Equal(t, "every 5 minutes", summary)
}

func TestTriggerSummaryEvent(t *testing.T) {
	summary := triggerSummary(types.Trigger{
		Kind:  types.TriggerKindEvent,
		Event: &types.EventTrigger{Type: types.EventStartup},
	})
	require.Equal(t, "on startup", summary)
}

func TestTriggerSummaryNilVariant(t *testing.T) {
	require.Equal(t, "store trigger", triggerSummary(types.Trigger{Kind: types.TriggerKindStore}))
}
