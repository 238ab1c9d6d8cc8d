package chainconfig_test

import (
	"net/http"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/pathguard/pathguard/chainconfig"
	"github.com/pathguard/pathguard/filters"
)

type testFilter struct {
	name      string
	inits     int
	destroyed int
	err       error
	sc        *filters.ServingContext
	trace     *[]string
}

func (f *testFilter) Filter(w http.ResponseWriter, r *http.Request, next filters.Handler) error {
	return next.Serve(w, r)
}

func (f *testFilter) Init(sc *filters.ServingContext) error {
	f.inits++
	f.sc = sc
	return f.err
}

func (f *testFilter) Destroy() {
	f.destroyed++
	if f.trace != nil {
		*f.trace = append(*f.trace, f.name)
	}
}

type addedFilter struct {
	name       string
	filter     filters.Filter
	initialize bool
}

// records the calls, and initializes the filters like the default
// manager does
type recordingManager struct {
	defaults *orderedmap.OrderedMap[string, filters.Filter]
	sc       *filters.ServingContext
	added    []addedFilter
	chains   [][2]string
	addErr   error
	chainErr error
}

func (m *recordingManager) Filters() *orderedmap.OrderedMap[string, filters.Filter] {
	return m.defaults
}

func (m *recordingManager) AddFilter(name string, f filters.Filter, initialize bool) error {
	if m.addErr != nil {
		return m.addErr
	}

	if initialize {
		if err := filters.Init(f, m.sc); err != nil {
			return err
		}
	}

	m.added = append(m.added, addedFilter{name: name, filter: f, initialize: initialize})
	return nil
}

func (m *recordingManager) CreateChain(pattern, definition string) error {
	if m.chainErr != nil {
		return m.chainErr
	}

	m.chains = append(m.chains, [2]string{pattern, definition})
	return nil
}

func (m *recordingManager) addedNames() []string {
	var names []string
	for _, a := range m.added {
		names = append(names, a.name)
	}

	return names
}

func (m *recordingManager) addedFilter(name string) filters.Filter {
	for _, a := range m.added {
		if a.name == name {
			return a.filter
		}
	}

	return nil
}

type stubBuilder struct {
	objects *orderedmap.OrderedMap[string, any]
	err     error
	calls   int
	section *chainconfig.Section
	context *orderedmap.OrderedMap[string, any]
}

func (b *stubBuilder) BuildObjects(section *chainconfig.Section, context *orderedmap.OrderedMap[string, any]) (*orderedmap.OrderedMap[string, any], error) {
	b.calls++
	b.section = section
	b.context = context
	if b.err != nil {
		return nil, b.err
	}

	return b.objects, nil
}

func filterSet(fs ...*testFilter) *orderedmap.OrderedMap[string, filters.Filter] {
	m := orderedmap.New[string, filters.Filter]()
	for _, f := range fs {
		m.Set(f.name, f)
	}

	return m
}

func objectSet(kv ...any) *orderedmap.OrderedMap[string, any] {
	m := orderedmap.New[string, any]()
	for i := 0; i+1 < len(kv); i += 2 {
		m.Set(kv[i].(string), kv[i+1])
	}

	return m
}
