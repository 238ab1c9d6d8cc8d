package routing

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	log "github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/pathguard/pathguard/filters"
)

var (
	// ErrEmptyName is returned when a filter is registered without a name.
	ErrEmptyName = errors.New("filter name cannot be empty")

	// ErrNilFilter is returned when a nil filter is registered.
	ErrNilFilter = errors.New("filter cannot be nil")

	// ErrEmptyPattern is returned when a chain is created without a
	// path pattern.
	ErrEmptyPattern = errors.New("chain pattern cannot be empty")

	// ErrUnknownFilter is returned when a chain definition references a
	// filter that is not registered.
	ErrUnknownFilter = errors.New("filter not found")

	// ErrNotConfigurable is returned when a chain definition passes
	// config to a filter that doesn't accept per-use config.
	ErrNotConfigurable = errors.New("filter does not accept path config")
)

// Chain is a compiled chain: the filters applied to the requests matching
// the path pattern, in order.
type Chain struct {

	// Path pattern of the chain, e.g. /admin/**
	Pattern string

	// The definition the chain was compiled from.
	Definition string

	// Names of the filters, aligned with Filters.
	Names []string

	// Filters of the chain, with the per-use config applied.
	Filters []filters.Filter
}

// Options used to create a Manager.
type Options struct {

	// Filters registered initially, typically the platform defaults. They
	// are not initialized by the manager.
	Filters *orderedmap.OrderedMap[string, filters.Filter]

	// Serving context passed to the filters when registered with
	// initialization.
	ServingContext *filters.ServingContext

	// Log receives the manager's diagnostic messages. Defaults to the
	// standard logger.
	Log log.FieldLogger
}

// Manager holds the registered filters and the compiled chains.
//
// Every method is safe for concurrent use, but the manager does not
// coordinate multiple updates: the filters and the chains are expected to
// be set up before serving.
type Manager struct {
	mu             sync.RWMutex
	filters        *orderedmap.OrderedMap[string, filters.Filter]
	chains         *orderedmap.OrderedMap[string, *Chain]
	servingContext *filters.ServingContext
	log            log.FieldLogger
}

// NewManager creates a manager with the default filters found in the
// options.
func NewManager(o Options) *Manager {
	if o.Log == nil {
		o.Log = log.StandardLogger()
	}

	m := &Manager{
		filters:        orderedmap.New[string, filters.Filter](),
		chains:         orderedmap.New[string, *Chain](),
		servingContext: o.ServingContext,
		log:            o.Log,
	}

	if o.Filters != nil {
		for p := o.Filters.Oldest(); p != nil; p = p.Next() {
			m.filters.Set(p.Key, p.Value)
		}
	}

	return m
}

// Filters returns a copy of the registered filters, in registration
// order.
func (m *Manager) Filters() *orderedmap.OrderedMap[string, filters.Filter] {
	m.mu.RLock()
	defer m.mu.RUnlock()

	fs := orderedmap.New[string, filters.Filter](m.filters.Len())
	for p := m.filters.Oldest(); p != nil; p = p.Next() {
		fs.Set(p.Key, p.Value)
	}

	return fs
}

// Filter returns a registered filter.
func (m *Manager) Filter(name string) (filters.Filter, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filters.Get(name)
}

// AddFilter registers a filter by name, replacing any filter already
// registered with the same name. When initialize is true, the initialization
// hook of the filter is called with the serving context of the manager,
// and the filter is registered only if the hook succeeds.
func (m *Manager) AddFilter(name string, f filters.Filter, initialize bool) error {
	if name == "" {
		return ErrEmptyName
	}

	if f == nil {
		return fmt.Errorf("%w: %s", ErrNilFilter, name)
	}

	if initialize {
		if err := filters.Init(f, m.servingContext); err != nil {
			return fmt.Errorf("failed to initialize filter %s: %w", name, err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, replaced := m.filters.Set(name, f); replaced {
		m.log.Debugf("filter %s replaced", name)
	}

	return nil
}

func (m *Manager) createFilters(refs []FilterRef) ([]string, []filters.Filter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(refs))
	fs := make([]filters.Filter, 0, len(refs))
	for _, ref := range refs {
		f, ok := m.filters.Get(ref.Name)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownFilter, ref.Name)
		}

		if ref.Config != "" {
			pc, ok := f.(filters.PathConfigurable)
			if !ok {
				return nil, nil, fmt.Errorf("%w: %s", ErrNotConfigurable, ref)
			}

			var err error
			if f, err = pc.WithPathConfig(ref.Config); err != nil {
				return nil, nil, fmt.Errorf("invalid config for filter %s: %w", ref, err)
			}
		}

		names = append(names, ref.Name)
		fs = append(fs, f)
	}

	return names, fs, nil
}

// CreateChain compiles a chain definition and stores it for the path
// pattern. The definition references the registered filters, see
// ParseChainDefinition. A chain created again for the same pattern
// replaces the previous one, but keeps its position in the matching
// order.
func (m *Manager) CreateChain(pattern, definition string) error {
	if pattern == "" {
		return ErrEmptyPattern
	}

	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("invalid chain pattern: %s", pattern)
	}

	refs, err := ParseChainDefinition(definition)
	if err != nil {
		return err
	}

	names, fs, err := m.createFilters(refs)
	if err != nil {
		return fmt.Errorf("failed to create chain %s: %w", pattern, err)
	}

	c := &Chain{Pattern: pattern, Definition: definition, Names: names, Filters: fs}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, replaced := m.chains.Set(pattern, c); replaced {
		m.log.Warnf("chain %s redefined", pattern)
	}

	m.log.Debugf("chain created: %s -> %s", pattern, definition)
	return nil
}

// Chain returns the chain compiled for a pattern.
func (m *Manager) Chain(pattern string) (*Chain, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.chains.Get(pattern)
}

// Chains returns the compiled chains in matching order.
func (m *Manager) Chains() []*Chain {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cs := make([]*Chain, 0, m.chains.Len())
	for p := m.chains.Oldest(); p != nil; p = p.Next() {
		cs = append(cs, p.Value)
	}

	return cs
}
