package chainconfig

import (
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/pathguard/pathguard/filters"
)

const (
	// FiltersSectionName is the name of the deprecated configuration
	// section declaring filters.
	FiltersSectionName = "filters"

	// URLsSectionName is the name of the configuration section declaring
	// the chains.
	URLsSectionName = "urls"

	// MainSectionName is the name of the configuration section where the
	// object declarations, including the filters, belong.
	MainSectionName = "main"
)

const deprecatedFiltersSection = "The [%s] section has been deprecated and will be removed in a future release! " +
	"Please move all object configuration (filters and all other objects) to the [%s] section."

// ErrNoBuilder is returned when the filters section needs to be built, but
// no object builder was configured.
var ErrNoBuilder = errors.New("no object builder configured")

// Section is an ordered key-value section of the configuration.
type Section = orderedmap.OrderedMap[string, string]

// NewSection creates a section from alternating keys and values.
func NewSection(kv ...string) *Section {
	s := orderedmap.New[string, string]()
	for i := 0; i+1 < len(kv); i += 2 {
		s.Set(kv[i], kv[i+1])
	}

	return s
}

// ObjectBuilder constructs the objects declared in a configuration
// section. The declarations may reference the objects of the context.
type ObjectBuilder interface {
	BuildObjects(section *Section, context *orderedmap.OrderedMap[string, any]) (*orderedmap.OrderedMap[string, any], error)
}

// ChainManager stores the named filters and compiles the chains.
type ChainManager interface {

	// Filters returns the filters currently known by the manager, the
	// platform defaults before any registration.
	Filters() *orderedmap.OrderedMap[string, filters.Filter]

	// AddFilter registers a filter by name. When initialize is true, the
	// filter is initialized during the registration, with the serving
	// context of the manager.
	AddFilter(name string, f filters.Filter, initialize bool) error

	// CreateChain compiles the chain definition for a path pattern. The
	// definition is passed as is.
	CreateChain(pattern, definition string) error
}

// Factory builds the filter registry and the chains from the
// configuration sections.
//
// A Factory must not be copied after first use.
type Factory struct {

	// Builder constructs the objects of the filters section. Required
	// only when the filters section is not empty.
	Builder ObjectBuilder

	// Defaults contains objects supplied by the embedding application.
	// They override the default filters of the chain manager with the
	// same name, and can be referenced by the filters section.
	Defaults *orderedmap.OrderedMap[string, any]

	// ServingContext is set when the filters are built for serving. In
	// this case, the filters are initialized during registration, and
	// the resulting registry is activated.
	//
	// It only selects initialization. The filters receive the serving
	// context of the chain manager from AddFilter, so the two are
	// expected to be the same.
	ServingContext *filters.ServingContext

	// Log receives the advisory messages. Defaults to the standard
	// logger.
	Log log.FieldLogger

	advisory sync.Once
}

func (f *Factory) logger() log.FieldLogger {
	if f.Log == nil {
		return log.StandardLogger()
	}

	return f.Log
}

func isEmpty[V any](m *orderedmap.OrderedMap[string, V]) bool {
	return m == nil || m.Len() == 0
}

// Build builds the registry from the filters section, and then the chains
// from the urls section.
func (f *Factory) Build(m ChainManager, filtersSection, urls *Section) (*Registry, error) {
	r, err := f.BuildRegistry(m, filtersSection)
	if err != nil {
		return nil, err
	}

	if err := f.BuildChains(m, urls); err != nil {
		return nil, err
	}

	return r, nil
}

// BuildRegistry merges the default filters of the manager, the default
// objects of the factory and the filters declared in the section, and
// registers the result in the manager.
//
// The objects of the section override the defaults with the same name,
// and the default objects of the factory override the default filters of
// the manager. Only the objects implementing filters.Filter are
// registered.
func (f *Factory) BuildRegistry(m ChainManager, section *Section) (*Registry, error) {
	if !isEmpty(section) {
		f.advisory.Do(func() {
			f.logger().Warnf(deprecatedFiltersSection, FiltersSectionName, MainSectionName)
		})
	}

	context := f.constructionContext(m)
	fs, err := f.buildFilters(section, context)
	if err != nil {
		return nil, err
	}

	return f.register(m, fs)
}

// the default filters of the manager, overlaid by the default objects
func (f *Factory) constructionContext(m ChainManager) *orderedmap.OrderedMap[string, any] {
	context := orderedmap.New[string, any]()
	if defaultFilters := m.Filters(); !isEmpty(defaultFilters) {
		for p := defaultFilters.Oldest(); p != nil; p = p.Next() {
			context.Set(p.Key, p.Value)
		}
	}

	if !isEmpty(f.Defaults) {
		for p := f.Defaults.Oldest(); p != nil; p = p.Next() {
			context.Set(p.Key, p.Value)
		}
	}

	return context
}

func (f *Factory) buildFilters(section *Section, context *orderedmap.OrderedMap[string, any]) (*orderedmap.OrderedMap[string, filters.Filter], error) {
	fs := extractFilters(context)
	if isEmpty(section) {
		return fs, nil
	}

	if f.Builder == nil {
		return nil, ErrNoBuilder
	}

	built, err := f.Builder.BuildObjects(section, context)
	if err != nil {
		return nil, err
	}

	sectionFilters := extractFilters(built)
	if fs.Len() == 0 {
		return sectionFilters, nil
	}

	for p := sectionFilters.Oldest(); p != nil; p = p.Next() {
		fs.Set(p.Key, p.Value)
	}

	return fs, nil
}

func extractFilters(objects *orderedmap.OrderedMap[string, any]) *orderedmap.OrderedMap[string, filters.Filter] {
	fs := orderedmap.New[string, filters.Filter]()
	if isEmpty(objects) {
		return fs
	}

	for p := objects.Oldest(); p != nil; p = p.Next() {
		if filter, ok := p.Value.(filters.Filter); ok {
			fs.Set(p.Key, filter)
		}
	}

	return fs
}

func (f *Factory) register(m ChainManager, fs *orderedmap.OrderedMap[string, filters.Filter]) (*Registry, error) {
	// only initialize when serving
	initialize := f.ServingContext != nil

	r := newRegistry(f.logger())
	for p := fs.Oldest(); p != nil; p = p.Next() {
		if err := m.AddFilter(p.Key, p.Value, initialize); err != nil {
			return nil, err
		}

		r.add(p.Key, p.Value, initialize)
	}

	if initialize {
		r.phase = Activated
	}

	return r, nil
}

// BuildChains creates a chain in the manager for every entry of the urls
// section, in order. The definitions are passed to the manager unchanged.
func (f *Factory) BuildChains(m ChainManager, urls *Section) error {
	if isEmpty(urls) {
		f.logger().Debug("No urls to process.")
		return nil
	}

	for p := urls.Oldest(); p != nil; p = p.Next() {
		if err := m.CreateChain(p.Key, p.Value); err != nil {
			return err
		}
	}

	f.logger().Debugf("%d chains created", urls.Len())
	return nil
}
