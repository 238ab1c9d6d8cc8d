package chainconfig

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/pathguard/pathguard/filters"
)

// Phase of a registry.
type Phase int

const (
	// Assembled registries hold registered filters, that may not be
	// initialized yet.
	Assembled Phase = iota

	// Activated registries have every filter initialized.
	Activated
)

func (p Phase) String() string {
	switch p {
	case Assembled:
		return "assembled"
	case Activated:
		return "activated"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Definition is a named filter held by a registry.
type Definition struct {
	Name        string
	Filter      filters.Filter
	Initialized bool
}

// Registry is the result of building the filters: the named filters
// registered in the chain manager, and their lifecycle state.
type Registry struct {
	phase       Phase
	definitions *orderedmap.OrderedMap[string, *Definition]
	log         log.FieldLogger
}

func newRegistry(l log.FieldLogger) *Registry {
	return &Registry{
		definitions: orderedmap.New[string, *Definition](),
		log:         l,
	}
}

func (r *Registry) add(name string, f filters.Filter, initialized bool) {
	r.definitions.Set(name, &Definition{Name: name, Filter: f, Initialized: initialized})
}

// Phase returns the current phase of the registry.
func (r *Registry) Phase() Phase { return r.phase }

// Len returns the number of the registered filters.
func (r *Registry) Len() int { return r.definitions.Len() }

// Definition returns the definition registered with name.
func (r *Registry) Definition(name string) (*Definition, bool) {
	return r.definitions.Get(name)
}

// Definitions returns the definitions in registration order.
func (r *Registry) Definitions() []*Definition {
	d := make([]*Definition, 0, r.definitions.Len())
	for p := r.definitions.Oldest(); p != nil; p = p.Next() {
		d = append(d, p.Value)
	}

	return d
}

// Filters returns the registered filters by name, in registration order.
func (r *Registry) Filters() *orderedmap.OrderedMap[string, filters.Filter] {
	fs := orderedmap.New[string, filters.Filter](r.definitions.Len())
	for p := r.definitions.Oldest(); p != nil; p = p.Next() {
		fs.Set(p.Key, p.Value.Filter)
	}

	return fs
}

// Activate moves the registry into the Activated phase, calling the
// initialization hook of every filter that was not initialized yet, in
// registration order. Activating an activated registry has no effect.
//
// When a hook fails, the activation stops and the registry stays in the
// Assembled phase. The filters initialized until the failure are not
// initialized again by a later call.
func (r *Registry) Activate(sc *filters.ServingContext) error {
	if r.phase == Activated {
		return nil
	}

	for p := r.definitions.Oldest(); p != nil; p = p.Next() {
		d := p.Value
		if d.Initialized {
			continue
		}

		if err := filters.Init(d.Filter, sc); err != nil {
			return fmt.Errorf("failed to initialize filter %s: %w", d.Name, err)
		}

		d.Initialized = true
	}

	r.phase = Activated
	r.log.Debugf("filter registry activated with %d filters", r.definitions.Len())
	return nil
}

// Destroy releases the resources of the initialized filters implementing
// filters.Destroyer, in reverse registration order.
func (r *Registry) Destroy() {
	for p := r.definitions.Newest(); p != nil; p = p.Prev() {
		d := p.Value
		if !d.Initialized {
			continue
		}

		if ds, ok := d.Filter.(filters.Destroyer); ok {
			ds.Destroy()
		}
	}
}
