package job

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"github.com/seguro-platform/scheduler/pkg/compose"
	"github.com/seguro-platform/scheduler/pkg/log"
	"github.com/seguro-platform/scheduler/pkg/store"
	"github.com/seguro-platform/scheduler/pkg/types"
)

// InvocationContext carries the connection details every launched
// container needs, rendered into env vars on each Start.
type InvocationContext struct {
	S3Host    string
	MQTTHost  string
	TLSCACert string
	TLSCert   string
	TLSKey    string
	EnvFile   string // path to a .env file mounted/sourced by the container
	CertsDir  string // host path mounted read-only at /certs
	KeysDir   string // host path mounted read-only at /keys/clients
}

// Job is a single running workload: its compose service, its trigger
// wiring, and the invocation context handed to each launch.
type Job struct {
	Name string

	spec    types.JobSpec
	service *compose.Service
	invoke  InvocationContext

	storeClient *store.Client
	scheduler   gocron.Scheduler

	watchers        map[string]*store.Watcher
	scheduleJobs    []gocron.Job
	shutdownTrigger []string // trigger ids with an event=shutdown trigger, fired by the owner on teardown

	log zerolog.Logger
}

// New constructs a Job. It does not start any trigger yet; call Setup.
func New(name string, spec types.JobSpec, service *compose.Service, storeClient *store.Client, scheduler gocron.Scheduler, invoke InvocationContext) *Job {
	return &Job{
		Name:        name,
		spec:        spec,
		service:     service,
		invoke:      invoke,
		storeClient: storeClient,
		scheduler:   scheduler,
		watchers:    make(map[string]*store.Watcher),
		log:         log.WithJobName(name),
	}
}

// Setup wires every declared trigger and fires startup EventTriggers
// (including the implicit startup-on-no-triggers rule). It must be
// called once, after construction, before the Job is considered live.
func (j *Job) Setup(ctx context.Context) error {
	if len(j.spec.Triggers) == 0 {
		return j.startNoTrigger(ctx)
	}

	for id, trigger := range j.spec.Triggers {
		switch trigger.Kind {
		case types.TriggerKindStore:
			if err := j.setupStoreTrigger(ctx, id, trigger.Store); err != nil {
				return fmt.Errorf("setting up store trigger %s: %w", id, err)
			}
		case types.TriggerKindSchedule:
			if err := j.setupScheduleTrigger(id, trigger.Schedule); err != nil {
				return fmt.Errorf("setting up schedule trigger %s: %w", id, err)
			}
		case types.TriggerKindEvent:
			if err := j.setupEventTrigger(ctx, id, trigger.Event); err != nil {
				return fmt.Errorf("setting up event trigger %s: %w", id, err)
			}
		default:
			return fmt.Errorf("trigger %s has no variant set", id)
		}
	}
	return nil
}

func (j *Job) setupStoreTrigger(ctx context.Context, id string, t *types.StoreTrigger) error {
	var events []store.Event
	switch t.Type {
	case types.StoreEventCreated:
		events = []store.Event{store.EventCreated}
	case types.StoreEventRemoved:
		events = []store.Event{store.EventRemoved}
	case types.StoreEventModified:
		events = []store.Event{store.EventModified}
	default:
		return fmt.Errorf("unknown store trigger type %q", t.Type)
	}

	w, err := j.storeClient.Watch(ctx, t.Prefix, events, t.Initial)
	if err != nil {
		return err
	}
	j.watchers[id] = w

	go func() {
		for evt := range w.Events() {
			if err := j.Start(ctx, id, string(evt.Type), evt.Key); err != nil {
				j.log.Error().Err(err).Str("trigger_id", id).Msg("starting job from store trigger")
			}
		}
	}()
	go func() {
		for err := range w.Errors() {
			j.log.Warn().Err(err).Str("trigger_id", id).Msg("store watcher error")
		}
	}()
	return nil
}

func (j *Job) setupScheduleTrigger(id string, t *types.ScheduleTrigger) error {
	jobDef, err := scheduleJobDefinition(*t)
	if err != nil {
		return err
	}

	opts := []gocron.JobOption{gocron.WithTags(j.Name)}
	if t.Once {
		opts = append(opts, gocron.WithLimitedRuns(1))
	}
	if t.Until != nil {
		opts = append(opts, gocron.WithStopAt(gocron.WithStopDateTime(*t.Until)))
	}

	gj, err := j.scheduler.NewJob(jobDef, gocron.NewTask(func() {
		if err := j.Start(context.Background(), id, "schedule", ""); err != nil {
			j.log.Error().Err(err).Str("trigger_id", id).Msg("starting job from schedule trigger")
		}
	}), opts...)
	if err != nil {
		return fmt.Errorf("registering schedule trigger: %w", err)
	}
	j.scheduleJobs = append(j.scheduleJobs, gj)
	return nil
}

// scheduleJobDefinition converts a ScheduleTrigger into the gocron job
// definition that reproduces its semantics: a plain interval, a
// randomized interval when IntervalTo is set, or an at-time daily/weekly
// cadence when At/StartDay are meaningful for the trigger's Unit.
func scheduleJobDefinition(t types.ScheduleTrigger) (gocron.JobDefinition, error) {
	unitDuration, err := unitToDuration(t.Unit)
	if err != nil {
		return nil, err
	}

	if t.At != "" {
		atTime, err := parseAtTime(t.At)
		if err != nil {
			return nil, err
		}
		if t.Unit == types.UnitWeeks {
			return gocron.WeeklyJob(uint(intervalOrOne(t.Interval)), gocron.NewWeekdays(weekdayToTime(t.StartDay)), gocron.NewAtTimes(atTime)), nil
		}
		return gocron.DailyJob(uint(intervalOrOne(t.Interval)), gocron.NewAtTimes(atTime)), nil
	}

	interval := time.Duration(intervalOrOne(t.Interval)) * unitDuration
	if t.IntervalTo != nil {
		return gocron.DurationRandomJob(interval, time.Duration(*t.IntervalTo)*unitDuration), nil
	}
	return gocron.DurationJob(interval), nil
}

func intervalOrOne(i int) int {
	if i <= 0 {
		return 1
	}
	return i
}

func unitToDuration(u types.ScheduleUnit) (time.Duration, error) {
	switch u {
	case "", types.UnitSeconds:
		return time.Second, nil
	case types.UnitMinutes:
		return time.Minute, nil
	case types.UnitHours:
		return time.Hour, nil
	case types.UnitDays:
		return 24 * time.Hour, nil
	case types.UnitWeeks:
		return 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown schedule unit %q", u)
	}
}

func weekdayToTime(w types.Weekday) time.Weekday {
	switch w {
	case types.Sunday:
		return time.Sunday
	case types.Tuesday:
		return time.Tuesday
	case types.Wednesday:
		return time.Wednesday
	case types.Thursday:
		return time.Thursday
	case types.Friday:
		return time.Friday
	case types.Saturday:
		return time.Saturday
	default:
		return time.Monday
	}
}

// parseAtTime parses the "HH:MM[:SS]" or ":MM" schedule-trigger format
// into gocron's AtTime.
func parseAtTime(at string) (gocron.AtTime, error) {
	hour, min, sec := 0, 0, 0
	if strings.HasPrefix(at, ":") {
		m, err := strconv.Atoi(strings.TrimPrefix(at, ":"))
		if err != nil {
			return nil, fmt.Errorf("parsing at=%q: %w", at, err)
		}
		min = m
	} else {
		parts := strings.Split(at, ":")
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid at=%q", at)
		}
		var err error
		if hour, err = strconv.Atoi(parts[0]); err != nil {
			return nil, fmt.Errorf("parsing at=%q: %w", at, err)
		}
		if min, err = strconv.Atoi(parts[1]); err != nil {
			return nil, fmt.Errorf("parsing at=%q: %w", at, err)
		}
		if len(parts) == 3 {
			if sec, err = strconv.Atoi(parts[2]); err != nil {
				return nil, fmt.Errorf("parsing at=%q: %w", at, err)
			}
		}
	}
	return gocron.NewAtTime(uint(hour), uint(min), uint(sec)), nil
}

func (j *Job) setupEventTrigger(ctx context.Context, id string, t *types.EventTrigger) error {
	switch t.Type {
	case types.EventStartup:
		return j.Start(ctx, id, "startup", "")
	case types.EventShutdown:
		j.shutdownTrigger = append(j.shutdownTrigger, id)
		return nil
	default:
		return fmt.Errorf("unknown event trigger type %q", t.Type)
	}
}

// Spec returns the job's catalog definition, for read-only
// introspection (the admin API's ListJobs/GetJob RPCs).
func (j *Job) Spec() types.JobSpec {
	return j.spec
}

// FireShutdownTriggers invokes the job once per declared shutdown
// EventTrigger. Called by the owning scheduler before Stop, per the
// documented decision that shutdown firing happens during teardown.
func (j *Job) FireShutdownTriggers(ctx context.Context) {
	for _, id := range j.shutdownTrigger {
		if err := j.Start(ctx, id, "shutdown", ""); err != nil {
			j.log.Error().Err(err).Str("trigger_id", id).Msg("firing shutdown trigger")
		}
	}
}

// startNoTrigger launches a job that declares no triggers at all. Per
// the catalog's implicit-startup rule this happens once, immediately,
// with no TriggerInfo: the job was never fired by anything, so
// JobInfo.Trigger stays null.
func (j *Job) startNoTrigger(ctx context.Context) error {
	return j.start(ctx, nil)
}

// Start builds a JobInfo for the firing trigger and brings the
// service up with it injected as an overlay.
func (j *Job) Start(ctx context.Context, triggerID, event, object string) error {
	var triggerInfo *types.TriggerInfo
	if triggerID != "" {
		triggerInfo = &types.TriggerInfo{
			ID:     triggerID,
			Type:   event,
			Time:   time.Now(),
			Event:  event,
			Object: object,
		}
	}
	return j.start(ctx, triggerInfo)
}

func (j *Job) start(ctx context.Context, triggerInfo *types.TriggerInfo) error {
	info := types.JobInfo{Name: j.Name, Spec: j.spec, Trigger: triggerInfo}
	payload, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshaling job info: %w", err)
	}

	overlay := j.invocationOverlay(string(payload))

	logEvt := j.log.Info()
	if triggerInfo != nil {
		logEvt = logEvt.Str("trigger_id", triggerInfo.ID).Str("event", triggerInfo.Event).Str("object", triggerInfo.Object)
	}
	logEvt.Msg("starting job")
	if err := j.service.Start(ctx, overlay); err != nil {
		return fmt.Errorf("starting compose service: %w", err)
	}
	return nil
}

func (j *Job) invocationOverlay(jobInfoJSON string) compose.Overlay {
	env := map[string]any{
		"SEGURO_JOB_INFO": jobInfoJSON,
		"S3_HOST":         j.invoke.S3Host,
		"MQTT_HOST":       j.invoke.MQTTHost,
		"TLS_CACERT":      j.invoke.TLSCACert,
		"TLS_CERT":        j.invoke.TLSCert,
		"TLS_KEY":         j.invoke.TLSKey,
	}
	svc := map[string]any{"environment": env}
	if j.invoke.EnvFile != "" {
		svc["env_file"] = []any{j.invoke.EnvFile}
	}

	var volumes []any
	if j.invoke.KeysDir != "" {
		volumes = append(volumes, map[string]any{
			"type": "bind", "source": j.invoke.KeysDir, "target": "/keys/clients", "read_only": true,
		})
	}
	if j.invoke.CertsDir != "" {
		volumes = append(volumes, map[string]any{
			"type": "bind", "source": j.invoke.CertsDir, "target": "/certs", "read_only": true,
		})
	}
	if len(volumes) > 0 {
		svc["volumes"] = volumes
	}

	return compose.Overlay{
		"services": map[string]any{j.Name: svc},
	}
}

// Stop releases every watcher and schedule registration the Job owns
// and brings the underlying compose service down.
func (j *Job) Stop(ctx context.Context, down bool) error {
	for id, w := range j.watchers {
		w.Stop()
		delete(j.watchers, id)
	}
	if err := j.scheduler.RemoveByTags(j.Name); err != nil {
		j.log.Warn().Err(err).Msg("removing schedule entries")
	}
	j.scheduleJobs = nil

	if err := j.service.Stop(ctx, down); err != nil {
		return fmt.Errorf("stopping compose service: %w", err)
	}
	return nil
}
