package compose

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/seguro-platform/scheduler/pkg/log"
	"github.com/seguro-platform/scheduler/pkg/types"
)

// Config configures a Composer's invocation of the external compose CLI.
type Config struct {
	// BinaryAndArgs is the compose CLI invocation, e.g. []string{"docker", "compose"}.
	BinaryAndArgs []string
	ProjectName   string
	NetworkName   string // external network every service attaches to
}

// Composer renders job specs to the external compose CLI's --file
// arguments and manages one named Service's lifecycle plus its event
// log stream.
type Composer struct {
	cfg Config
}

// NewComposer constructs a Composer.
func NewComposer(cfg Config) *Composer {
	return &Composer{cfg: cfg}
}

// Service is one named compose service wrapping a JobSpec's container
// definition, plus whatever overlays were added via Start.
type Service struct {
	composer      *Composer
	name          string
	base          map[string]any
	scale         int
	forceRecreate bool
	build         bool

	mu         sync.Mutex
	eventsDone context.CancelFunc
}

// NewService builds a Service from a job's container spec.
func (c *Composer) NewService(name string, spec types.JobSpec) (*Service, error) {
	base, err := containerSpecToComposeDocument(name, spec.Container, c.cfg.NetworkName)
	if err != nil {
		return nil, fmt.Errorf("rendering base compose document for %s: %w", name, err)
	}
	scale := spec.Scale
	if scale <= 0 {
		scale = 1
	}
	return &Service{
		composer:      c,
		name:          name,
		base:          base,
		scale:         scale,
		forceRecreate: spec.Recreate,
		build:         spec.Build,
	}, nil
}

func containerSpecToComposeDocument(name string, c types.ContainerSpec, network string) (map[string]any, error) {
	svc := map[string]any{"image": c.Image}
	if len(c.Command) > 0 {
		svc["command"] = toAnySlice(c.Command)
	}
	if len(c.Env) > 0 {
		svc["environment"] = toAnyMap(c.Env)
	}
	if len(c.EnvFile) > 0 {
		envFiles := make([]any, 0, len(c.EnvFile))
		for _, f := range c.EnvFile {
			abs, err := filepath.Abs(f)
			if err != nil {
				return nil, fmt.Errorf("resolving env_file %s: %w", f, err)
			}
			envFiles = append(envFiles, abs)
		}
		svc["env_file"] = envFiles
	}
	if len(c.Volumes) > 0 {
		svc["volumes"] = toAnySlice(c.Volumes)
	}
	networks := append([]string{}, c.Networks...)
	if network != "" {
		networks = append(networks, network)
	}
	if len(networks) > 0 {
		svc["networks"] = toAnySlice(networks)
	}
	for k, v := range c.Extra {
		svc[k] = v
	}

	doc := map[string]any{
		"name":     name,
		"services": map[string]any{name: svc},
	}
	if network != "" {
		doc["networks"] = map[string]any{
			network: map[string]any{"external": true, "name": network},
		}
	}
	return doc, nil
}

func toAnySlice(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func toAnyMap(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Overlay is an additional compose document deep-merged on top of the
// Service's base document before invocation.
type Overlay = map[string]any

// Start brings the service up with the given overlays deep-merged on
// top of the base document, in the order given (later wins). Any
// previously running event-log reader is terminated before the new
// `up` is issued, matching the contract that only one event stream per
// Service is ever live at a time.
func (s *Service) Start(ctx context.Context, overlays ...Overlay) error {
	s.mu.Lock()
	if s.eventsDone != nil {
		s.eventsDone()
		s.eventsDone = nil
	}
	s.mu.Unlock()

	doc := s.base
	for _, ov := range overlays {
		doc = DeepMerge(doc, ov)
	}

	args := []string{"up", "--detach", "--quiet-pull"}
	if s.scale != 1 {
		args = append(args, "--scale", fmt.Sprintf("%s=%d", s.name, s.scale))
	}
	if s.forceRecreate {
		args = append(args, "--force-recreate")
	}
	if s.build {
		args = append(args, "--build")
	}
	args = append(args, s.name)

	if err := s.composer.run(ctx, []map[string]any{doc}, args...); err != nil {
		return fmt.Errorf("starting service %s: %w", s.name, err)
	}

	eventsCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.eventsDone = cancel
	s.mu.Unlock()
	go s.composer.streamEvents(eventsCtx, s.name)

	return nil
}

// Stop brings the service down. When down is true, containers, networks,
// and anonymous volumes created by `up` are removed; otherwise only the
// running containers are stopped.
func (s *Service) Stop(ctx context.Context, down bool) error {
	s.mu.Lock()
	if s.eventsDone != nil {
		s.eventsDone()
		s.eventsDone = nil
	}
	s.mu.Unlock()

	if down {
		return s.composer.run(ctx, []map[string]any{s.base}, "down", s.name)
	}
	return s.composer.run(ctx, []map[string]any{s.base}, "stop", s.name)
}

// RemoveOrphans removes containers for services no longer defined in
// the compose project, via `down --remove-orphans`.
func (c *Composer) RemoveOrphans(ctx context.Context) error {
	return c.run(ctx, nil, "down", "--remove-orphans")
}

// run materializes each doc to its own pipe and invokes the compose CLI
// with one --file /proc/self/fd/N flag per document, in order.
func (c *Composer) run(ctx context.Context, docs []map[string]any, args ...string) error {
	if len(c.cfg.BinaryAndArgs) == 0 {
		return fmt.Errorf("compose binary not configured")
	}

	var extraFiles []*os.File
	var fileArgs []string
	for _, doc := range docs {
		data, err := yaml.Marshal(doc)
		if err != nil {
			return fmt.Errorf("marshaling compose document: %w", err)
		}
		r, w, err := os.Pipe()
		if err != nil {
			return fmt.Errorf("opening compose document pipe: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			w.Close()
			r.Close()
			return fmt.Errorf("writing compose document: %w", err)
		}
		w.Close()
		extraFiles = append(extraFiles, r)
		fileArgs = append(fileArgs, "--file", fmt.Sprintf("/proc/self/fd/%d", 3+len(extraFiles)-1))
	}
	defer func() {
		for _, f := range extraFiles {
			f.Close()
		}
	}()

	cmdArgs := append([]string{}, c.cfg.BinaryAndArgs[1:]...)
	cmdArgs = append(cmdArgs, "--project-name", c.cfg.ProjectName, "--ansi", "never", "--progress", "plain")
	cmdArgs = append(cmdArgs, fileArgs...)
	cmdArgs = append(cmdArgs, args...)

	cmd := exec.CommandContext(ctx, c.cfg.BinaryAndArgs[0], cmdArgs...)
	cmd.ExtraFiles = extraFiles
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("compose %v failed: %w: %s", args, err, stderr.String())
	}
	return nil
}

// streamEvents runs `compose events --json` for name and logs each
// line until ctx is canceled (by the next Start/Stop call) or the
// process exits on its own.
func (c *Composer) streamEvents(ctx context.Context, name string) {
	logger := log.WithComponent("compose-events")
	cmdArgs := append([]string{}, c.cfg.BinaryAndArgs[1:]...)
	cmdArgs = append(cmdArgs, "--project-name", c.cfg.ProjectName, "events", "--json", name)
	cmd := exec.CommandContext(ctx, c.cfg.BinaryAndArgs[0], cmdArgs...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		logger.Warn().Err(err).Msg("opening compose events stdout")
		return
	}
	if err := cmd.Start(); err != nil {
		logger.Warn().Err(err).Msg("starting compose events stream")
		return
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		var evt map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &evt); err != nil {
			continue
		}
		logger.Info().Str("service", name).Msg(fmt.Sprintf("%v", evt))
	}
	_ = cmd.Wait()
}
