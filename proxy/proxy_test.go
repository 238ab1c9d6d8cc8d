package proxy_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/pathguard/pathguard/filters"
	"github.com/pathguard/pathguard/metrics"
	"github.com/pathguard/pathguard/proxy"
	"github.com/pathguard/pathguard/routing"
)

type recordingMetrics struct {
	filters       []string
	chains        []string
	shortCircuits []string
	errors        []string
	unmatched     int
}

func (m *recordingMetrics) MeasureFilter(name string, _ time.Duration) {
	m.filters = append(m.filters, name)
}

func (m *recordingMetrics) MeasureChain(pattern string, _ time.Time) {
	m.chains = append(m.chains, pattern)
}

func (m *recordingMetrics) IncShortCircuit(pattern string) {
	m.shortCircuits = append(m.shortCircuits, pattern)
}

func (m *recordingMetrics) IncChainErrors(pattern string) {
	m.errors = append(m.errors, pattern)
}

func (m *recordingMetrics) IncUnmatched() { m.unmatched++ }

var errFilter = errors.New("filter failed")

func testFilters(trace *[]string) *orderedmap.OrderedMap[string, filters.Filter] {
	fs := orderedmap.New[string, filters.Filter]()
	fs.Set("pass", filters.FilterFunc(func(w http.ResponseWriter, r *http.Request, next filters.Handler) error {
		*trace = append(*trace, "pass")
		return next.Serve(w, r)
	}))

	fs.Set("deny", filters.FilterFunc(func(w http.ResponseWriter, r *http.Request, next filters.Handler) error {
		*trace = append(*trace, "deny")
		w.WriteHeader(http.StatusForbidden)
		return nil
	}))

	fs.Set("fail", filters.FilterFunc(func(w http.ResponseWriter, r *http.Request, next filters.Handler) error {
		*trace = append(*trace, "fail")
		return errFilter
	}))

	fs.Set("failAfterWrite", filters.FilterFunc(func(w http.ResponseWriter, r *http.Request, next filters.Handler) error {
		*trace = append(*trace, "failAfterWrite")
		w.WriteHeader(http.StatusAccepted)
		return errFilter
	}))

	fs.Set("pattern", filters.FilterFunc(func(w http.ResponseWriter, r *http.Request, next filters.Handler) error {
		s, ok := filters.GetRequestState(r)
		if ok {
			*trace = append(*trace, "pattern:"+s.Pattern)
		}

		return next.Serve(w, r)
	}))

	return fs
}

type fixture struct {
	trace   []string
	metrics *recordingMetrics
	hook    *logtest.Hook
	proxy   *proxy.Proxy
}

func newFixture(t *testing.T, chains ...string) *fixture {
	t.Helper()
	f := &fixture{metrics: &recordingMetrics{}}
	m := routing.NewManager(routing.Options{Filters: testFilters(&f.trace)})
	for i := 0; i+1 < len(chains); i += 2 {
		require.NoError(t, m.CreateChain(chains[i], chains[i+1]))
	}

	logger, hook := logtest.NewNullLogger()
	f.hook = hook

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.trace = append(f.trace, "handler")
		w.WriteHeader(http.StatusNoContent)
	})

	p, err := proxy.New(proxy.Options{
		Resolver: routing.NewResolver(m, routing.ResolverOptions{}),
		Handler:  handler,
		Metrics:  f.metrics,
		Log:      logger,
	})

	require.NoError(t, err)
	f.proxy = p
	return f
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.proxy.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
	return w
}

func TestProxyChain(t *testing.T) {
	f := newFixture(t, "/api/**", "pass, pattern, pass")
	w := f.get("/api/users")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"pass", "pattern:/api/**", "pass", "handler"}, f.trace)
	assert.Equal(t, []string{"pass", "pattern", "pass"}, f.metrics.filters)
	assert.Equal(t, []string{"/api/**"}, f.metrics.chains)
	assert.Empty(t, f.metrics.shortCircuits)
	assert.Empty(t, f.metrics.errors)
}

func TestProxyUnmatched(t *testing.T) {
	f := newFixture(t, "/api/**", "deny")
	w := f.get("/other")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"handler"}, f.trace)
	assert.Equal(t, 1, f.metrics.unmatched)
	assert.Empty(t, f.metrics.chains)
}

func TestProxyShortCircuit(t *testing.T) {
	f := newFixture(t, "/admin/**", "pass, deny, pass")
	w := f.get("/admin")

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, []string{"pass", "deny"}, f.trace)
	assert.Equal(t, []string{"/admin/**"}, f.metrics.shortCircuits)
}

func TestProxyError(t *testing.T) {
	f := newFixture(t, "/**", "pass, fail")
	w := f.get("/x")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, []string{"pass", "fail"}, f.trace)
	assert.Equal(t, []string{"/**"}, f.metrics.errors)
	assert.Empty(t, f.metrics.shortCircuits)

	e := f.hook.LastEntry()
	require.NotNil(t, e)
	assert.Equal(t, logrus.ErrorLevel, e.Level)
	assert.Equal(t, "/**", e.Data["pattern"])
	assert.Contains(t, e.Message, errFilter.Error())
}

func TestProxyErrorAfterWrite(t *testing.T) {
	f := newFixture(t, "/**", "failAfterWrite")
	w := f.get("/x")

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"/**"}, f.metrics.errors)
}

func TestProxyEmptyChain(t *testing.T) {
	f := newFixture(t, "/**", "")
	w := f.get("/x")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"handler"}, f.trace)
	assert.Equal(t, []string{"/**"}, f.metrics.chains)
}

func TestProxyPrometheus(t *testing.T) {
	var trace []string
	m := routing.NewManager(routing.Options{Filters: testFilters(&trace)})
	require.NoError(t, m.CreateChain("/**", "pass, deny"))

	pm := metrics.NewPrometheus(metrics.Options{})
	p, err := proxy.New(proxy.Options{
		Resolver: routing.NewResolver(m, routing.ResolverOptions{}),
		Handler:  http.NotFoundHandler(),
		Metrics:  pm,
	})
	require.NoError(t, err)

	p.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	n, err := testutil.GatherAndCount(pm.Registry(), "pathguard_filter_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = testutil.GatherAndCount(pm.Registry(), "pathguard_chain_short_circuit_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNewErrors(t *testing.T) {
	_, err := proxy.New(proxy.Options{Handler: http.NotFoundHandler()})
	assert.ErrorIs(t, err, proxy.ErrNilResolver)

	m := routing.NewManager(routing.Options{})
	_, err = proxy.New(proxy.Options{Resolver: routing.NewResolver(m, routing.ResolverOptions{})})
	assert.ErrorIs(t, err, proxy.ErrNilHandler)
}
