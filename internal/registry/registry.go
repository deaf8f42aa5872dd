package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/docrelay/docrelay/internal/globaltime"
)

// Well-known dependency names.
const (
	ComponentKafka           = "kafka"
	ComponentObjectStore     = "object_store"
	ComponentDocumentService = "document_service"
	ComponentTranslator      = "translator"
)

type State string

const (
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
)

// ConnectionStatus is the last observed state of one external dependency.
type ConnectionStatus struct {
	Component   string    `json:"component"`
	State       State     `json:"state"`
	LastChecked time.Time `json:"last_checked"`
	Detail      string    `json:"detail,omitempty"`
}

// ProbeFunc attempts to establish (or verify) one external connection.
type ProbeFunc func(ctx context.Context) error

// Registry owns connection probing and status for every external dependency.
// It is constructed once at startup and shared by reference; status reads and
// updates are guarded so the HTTP handlers and the background ingestion loop
// can consult it concurrently.
type Registry struct {
	logger zerolog.Logger

	mu     sync.RWMutex
	probes map[string]ProbeFunc
	status map[string]ConnectionStatus
	order  []string
}

func New(logger zerolog.Logger) *Registry {
	return &Registry{
		logger: logger,
		probes: make(map[string]ProbeFunc),
		status: make(map[string]ConnectionStatus),
	}
}

// Register adds a dependency with its probe. The dependency starts
// disconnected until the first successful probe.
func (r *Registry) Register(name string, probe ProbeFunc) {
	name = strings.TrimSpace(name)
	if name == "" || probe == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.probes[name]; !exists {
		r.order = append(r.order, name)
	}
	r.probes[name] = probe
	r.status[name] = ConnectionStatus{
		Component:   name,
		State:       StateDisconnected,
		LastChecked: globaltime.UTC(),
		Detail:      "not yet probed",
	}
}

// NotConfigured registers a dependency whose configuration is missing. Its
// probe always fails with a descriptive message, so the dependency shows up
// in status output and in retry-all results instead of silently vanishing.
func (r *Registry) NotConfigured(name, envHint string) {
	r.Register(name, func(context.Context) error {
		return fmt.Errorf("%s is not configured", envHint)
	})
}

// Probe runs one dependency's probe and records the outcome.
func (r *Registry) Probe(ctx context.Context, name string) bool {
	r.mu.RLock()
	probe, ok := r.probes[name]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	err := probe(ctx)

	status := ConnectionStatus{
		Component:   name,
		State:       StateConnected,
		LastChecked: globaltime.UTC(),
	}
	if err != nil {
		status.State = StateDisconnected
		status.Detail = err.Error()
		r.logger.Warn().Err(err).Str("component", name).Msg("dependency probe failed")
	} else {
		r.logger.Info().Str("component", name).Msg("dependency connected")
	}

	r.mu.Lock()
	r.status[name] = status
	r.mu.Unlock()

	return err == nil
}

// ProbeAll probes every registered dependency independently. One failing
// dependency never prevents probing the rest.
func (r *Registry) ProbeAll(ctx context.Context) map[string]bool {
	results := make(map[string]bool, len(r.Components()))
	for _, name := range r.Components() {
		results[name] = r.Probe(ctx, name)
	}
	return results
}

// IsConnected reports the last observed state without re-probing.
func (r *Registry) IsConnected(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	status, ok := r.status[name]
	return ok && status.State == StateConnected
}

// MarkDisconnected records a dependency failure observed outside a probe,
// for example a publish error on a previously healthy connection.
func (r *Registry) MarkDisconnected(name, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.status[name]; !ok {
		return
	}
	r.status[name] = ConnectionStatus{
		Component:   name,
		State:       StateDisconnected,
		LastChecked: globaltime.UTC(),
		Detail:      detail,
	}
}

// Status returns a snapshot of every dependency's connection status.
func (r *Registry) Status() map[string]ConnectionStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot := make(map[string]ConnectionStatus, len(r.status))
	for name, status := range r.status {
		snapshot[name] = status
	}
	return snapshot
}

// Components lists registered dependency names in registration order.
func (r *Registry) Components() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// SortedComponents lists registered dependency names alphabetically, for
// deterministic CLI and log output.
func (r *Registry) SortedComponents() []string {
	names := r.Components()
	sort.Strings(names)
	return names
}
