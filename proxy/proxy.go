package proxy

import (
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/pathguard/pathguard/filters"
	"github.com/pathguard/pathguard/logging"
	"github.com/pathguard/pathguard/metrics"
	"github.com/pathguard/pathguard/routing"
)

// ErrNilResolver is returned when a proxy is created without a resolver.
var ErrNilResolver = errors.New("resolver cannot be nil")

// Resolver selects the chain applying to a request.
type Resolver interface {
	Resolve(*http.Request) (*routing.Chain, bool)
}

// Options used to create a Proxy.
type Options struct {

	// Resolver selecting the chain of the requests. Required.
	Resolver Resolver

	// Handler is the original handler, called when a chain completes,
	// and for the requests not matching any chain. Required.
	Handler http.Handler

	// Metrics collects the filter and the chain metrics. Defaults to
	// metrics.Void.
	Metrics metrics.Metrics

	// Log receives the chain errors. Defaults to the standard logger.
	Log log.FieldLogger
}

// Proxy is an http.Handler executing the chain matching the request in
// front of the original handler.
type Proxy struct {
	resolver Resolver
	handler  http.Handler
	orig     filters.Handler
	metrics  metrics.Metrics
	log      log.FieldLogger
}

// New creates a proxy.
func New(o Options) (*Proxy, error) {
	if o.Resolver == nil {
		return nil, ErrNilResolver
	}

	if o.Handler == nil {
		return nil, ErrNilHandler
	}

	if o.Metrics == nil {
		o.Metrics = metrics.Void
	}

	if o.Log == nil {
		o.Log = log.StandardLogger()
	}

	return &Proxy{
		resolver: o.Resolver,
		handler:  o.Handler,
		orig:     filters.HTTPHandler(o.Handler),
		metrics:  o.Metrics,
		log:      o.Log,
	}, nil
}

type measuredFilter struct {
	name    string
	filter  filters.Filter
	metrics metrics.Metrics
}

// measures the time spent in the filter, without the rest of the chain
func (mf *measuredFilter) Filter(w http.ResponseWriter, r *http.Request, next filters.Handler) error {
	var rest time.Duration
	start := time.Now()
	err := mf.filter.Filter(w, r, filters.HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		restStart := time.Now()
		defer func() { rest += time.Since(restStart) }()
		return next.Serve(w, r)
	}))

	mf.metrics.MeasureFilter(mf.name, time.Since(start)-rest)
	return err
}

func (p *Proxy) chainFilters(c *routing.Chain) []filters.Filter {
	if p.metrics == metrics.Void {
		return c.Filters
	}

	fs := make([]filters.Filter, len(c.Filters))
	for i, f := range c.Filters {
		fs[i] = &measuredFilter{name: c.Names[i], filter: f, metrics: p.metrics}
	}

	return fs
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, ok := p.resolver.Resolve(r)
	if !ok {
		p.metrics.IncUnmatched()
		p.handler.ServeHTTP(w, r)
		return
	}

	// the chain is created with a valid handler, it cannot fail
	chain, _ := NewChain(p.orig, p.chainFilters(c))

	lw := logging.NewLoggingWriter(w)
	r = filters.WithRequestState(r, &filters.RequestState{Pattern: c.Pattern})

	start := time.Now()
	err := chain.Serve(lw, r)
	p.metrics.MeasureChain(c.Pattern, start)

	if err != nil {
		p.metrics.IncChainErrors(c.Pattern)
		p.log.WithField("pattern", c.Pattern).Errorf("error while executing filter chain: %v", err)
		if !lw.Written() {
			http.Error(lw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}

		return
	}

	if !chain.Served() {
		p.metrics.IncShortCircuit(c.Pattern)
		p.log.Debugf("chain %s terminated by filter %s", c.Pattern, c.Names[chain.Index()-1])
	}
}
