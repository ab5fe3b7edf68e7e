package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-co-op/gocron/v2"
	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"

	"github.com/seguro-platform/scheduler/pkg/compose"
	"github.com/seguro-platform/scheduler/pkg/events"
	"github.com/seguro-platform/scheduler/pkg/job"
	"github.com/seguro-platform/scheduler/pkg/log"
	"github.com/seguro-platform/scheduler/pkg/metrics"
	"github.com/seguro-platform/scheduler/pkg/store"
	"github.com/seguro-platform/scheduler/pkg/types"
)

const catalogPrefix = "config/jobs/"

// Config configures the Scheduler's catalog watcher and the invocation
// context it passes through to every Job it creates.
type Config struct {
	Invoke     job.InvocationContext
	ComposeCfg compose.Config
}

// Scheduler owns the job catalog watcher, the live Job map, and the
// shared gocron timer wheel every ScheduleTrigger registers against.
// The job map is mutated only from the catalog watcher's goroutine;
// Start/Stop synchronize through mu purely to let other goroutines
// (the admin API) read it safely.
type Scheduler struct {
	store    *store.Client
	composer *compose.Composer
	cron     gocron.Scheduler
	broker   *events.Broker
	cfg      Config

	mu   sync.RWMutex
	jobs map[string]*job.Job

	catalogWatcher *store.Watcher
	stopCh         chan struct{}
}

// New constructs a Scheduler.
func New(storeClient *store.Client, composer *compose.Composer, broker *events.Broker, cfg Config) (*Scheduler, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("constructing timer wheel: %w", err)
	}
	return &Scheduler{
		store:    storeClient,
		composer: composer,
		cron:     cron,
		broker:   broker,
		cfg:      cfg,
		jobs:     make(map[string]*job.Job),
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching the job catalog and starts the timer wheel.
// It blocks until ctx is canceled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	logger := log.WithComponent("scheduler")

	w, err := s.store.Watch(ctx, catalogPrefix, []store.Event{store.EventModified}, true)
	if err != nil {
		return fmt.Errorf("watching job catalog: %w", err)
	}
	s.catalogWatcher = w
	s.cron.Start()

	for {
		select {
		case <-s.stopCh:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-w.Events():
			if !ok {
				return nil
			}
			s.handleCatalogEvent(ctx, evt)
		case err, ok := <-w.Errors():
			if !ok {
				continue
			}
			logger.Warn().Err(err).Msg("catalog watcher error")
		}
	}
}

func (s *Scheduler) handleCatalogEvent(ctx context.Context, evt store.ObjectEvent) {
	if !isYAMLKey(evt.Key) {
		log.WithComponent("scheduler").Warn().Str("key", evt.Key).Msg("ignoring non-YAML catalog entry")
		return
	}

	name := jobNameFromKey(evt.Key)
	logger := log.WithJobName(name)

	switch evt.Type {
	case store.EventCreated:
		data, err := s.store.GetObject(ctx, evt.Key)
		if err != nil {
			logger.Error().Err(err).Msg("fetching job catalog entry")
			return
		}
		var spec types.JobSpec
		if err := yaml.Unmarshal(data, &spec); err != nil {
			logger.Error().Err(err).Msg("parsing job catalog entry")
			return
		}
		s.replaceJob(ctx, name, spec)
		metrics.JobsTotal.Inc()
	case store.EventRemoved:
		s.removeJob(ctx, name)
	}
}

// replaceJob stops and discards any existing Job with this name before
// constructing and starting the new one, per the invariant that
// re-creating a Job with the same name stops the previous instance
// first.
func (s *Scheduler) replaceJob(ctx context.Context, name string, spec types.JobSpec) {
	s.mu.Lock()
	existing := s.jobs[name]
	delete(s.jobs, name)
	s.mu.Unlock()
	if existing != nil {
		if err := existing.Stop(ctx, true); err != nil {
			log.WithJobName(name).Warn().Err(err).Msg("stopping replaced job")
		}
	}

	svc, err := s.composer.NewService(name, spec)
	if err != nil {
		log.WithJobName(name).Error().Err(err).Msg("rendering compose service")
		return
	}

	j := job.New(name, spec, svc, s.store, s.cron, s.cfg.Invoke)
	if err := j.Setup(ctx); err != nil {
		log.WithJobName(name).Error().Err(err).Msg("setting up job triggers")
		return
	}

	s.mu.Lock()
	s.jobs[name] = j
	s.mu.Unlock()

	s.broker.Publish(string(types.EventJobCreated), name)
}

func (s *Scheduler) removeJob(ctx context.Context, name string) {
	s.mu.Lock()
	j, ok := s.jobs[name]
	delete(s.jobs, name)
	s.mu.Unlock()

	if !ok {
		log.WithJobName(name).Warn().Msg("removal of unknown job")
		return
	}

	if err := j.Stop(ctx, true); err != nil {
		log.WithJobName(name).Warn().Err(err).Msg("stopping removed job")
	}
	s.broker.Publish(string(types.EventJobRemoved), name)
}

// Stop tears down every live Job (firing shutdown triggers first, in
// arbitrary order) and then the catalog watcher itself.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.stopCh:
		return
	default:
		close(s.stopCh)
	}

	s.mu.Lock()
	jobs := s.jobs
	s.jobs = make(map[string]*job.Job)
	s.mu.Unlock()

	for name, j := range jobs {
		j.FireShutdownTriggers(ctx)
		if err := j.Stop(ctx, false); err != nil {
			log.WithJobName(name).Warn().Err(err).Msg("stopping job during shutdown")
		}
	}

	if s.catalogWatcher != nil {
		s.catalogWatcher.Stop()
	}
	if err := s.cron.Shutdown(); err != nil {
		log.WithComponent("scheduler").Warn().Err(err).Msg("shutting down timer wheel")
	}
}

// Jobs returns the live job names, for the admin API's ListJobs RPC.
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}

// GetJob returns the live Job by name, for the admin API's GetJob and
// ListTriggers RPCs.
func (s *Scheduler) GetJob(name string) (*job.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[name]
	return j, ok
}

// isYAMLKey reports whether a catalog object key has a recognized YAML
// extension; other files under the prefix are ignored (§6).
func isYAMLKey(key string) bool {
	return strings.HasSuffix(key, ".yaml") || strings.HasSuffix(key, ".yml")
}

// jobNameFromKey derives a Job's identity from its catalog object key:
// the basename with its extension stripped, slugified.
func jobNameFromKey(key string) string {
	base := key
	if idx := lastIndex(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := lastIndex(base, '.'); idx >= 0 {
		base = base[:idx]
	}
	return slug.Make(base)
}

func lastIndex(s string, b byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == b {
			return i
		}
	}
	return -1
}
