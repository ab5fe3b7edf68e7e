package types

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// triggerTypeProbe decodes just enough of a trigger document to learn
// its discriminator before committing to a variant.
type triggerTypeProbe struct {
	Type string `yaml:"type"`
}

// UnmarshalYAML implements the tagged-variant dispatch described for
// Trigger: every entry under a JobSpec's triggers map is a flat mapping
// whose "type" field selects which of StoreTrigger, ScheduleTrigger, or
// EventTrigger the remaining fields belong to. yaml.v3 calls this with
// the undecoded *yaml.Node, so the discriminator and each variant are
// both decoded from the same node via value.Decode.
func (t *Trigger) UnmarshalYAML(value *yaml.Node) error {
	var probe triggerTypeProbe
	if err := value.Decode(&probe); err != nil {
		return fmt.Errorf("decoding trigger discriminator: %w", err)
	}

	switch StoreEventKind(probe.Type) {
	case StoreEventCreated, StoreEventRemoved, StoreEventModified:
		st := StoreTrigger{Prefix: "/"}
		if err := value.Decode(&st); err != nil {
			return fmt.Errorf("decoding store trigger: %w", err)
		}
		t.Kind = TriggerKindStore
		t.Store = &st
		return nil
	}

	switch probe.Type {
	case "schedule":
		sc := ScheduleTrigger{Interval: 1, Unit: UnitSeconds, StartDay: Monday}
		if err := value.Decode(&sc); err != nil {
			return fmt.Errorf("decoding schedule trigger: %w", err)
		}
		t.Kind = TriggerKindSchedule
		t.Schedule = &sc
		return nil
	}

	switch EventTriggerKind(probe.Type) {
	case EventStartup, EventShutdown:
		ev := EventTrigger{}
		if err := value.Decode(&ev); err != nil {
			return fmt.Errorf("decoding event trigger: %w", err)
		}
		t.Kind = TriggerKindEvent
		t.Event = &ev
		return nil
	}

	return fmt.Errorf("unknown trigger type %q", probe.Type)
}

// MarshalYAML flattens the active variant back into a single mapping
// with its discriminator, the inverse of UnmarshalYAML.
func (t Trigger) MarshalYAML() (interface{}, error) {
	switch t.Kind {
	case TriggerKindStore:
		return t.Store, nil
	case TriggerKindSchedule:
		node := &yaml.Node{}
		if err := node.Encode(t.Schedule); err != nil {
			return nil, err
		}
		node.Content = append([]*yaml.Node{
			{Kind: yaml.ScalarNode, Value: "type"},
			{Kind: yaml.ScalarNode, Value: "schedule"},
		}, node.Content...)
		return node, nil
	case TriggerKindEvent:
		return t.Event, nil
	default:
		return nil, fmt.Errorf("trigger has no variant set")
	}
}

// UnmarshalYAML decodes a BrokerStatement, applying the Priority
// default of -1 when the document omits it.
func (s *BrokerStatement) UnmarshalYAML(value *yaml.Node) error {
	type plain BrokerStatement
	p := plain{Priority: -1}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = BrokerStatement(p)
	return nil
}
