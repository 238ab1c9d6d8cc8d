package proxy

import (
	"errors"
	"net/http"
	"reflect"

	log "github.com/sirupsen/logrus"

	"github.com/pathguard/pathguard/filters"
)

var (
	// ErrNilHandler is returned when a chain is created without the
	// original handler, or with a nil value of a handler type.
	ErrNilHandler = errors.New("original handler cannot be nil")

	// ErrChainCompleted is returned when the end of a chain is reached
	// again, after the original handler was already called.
	ErrChainCompleted = errors.New("filter chain already completed")
)

// Chain executes a list of filters in front of the original handler. Every
// filter receives the chain itself as the continuation, and decides
// whether to call it. When all the filters continued, the original handler
// is called.
//
// A Chain is created for a single request and must not be reused or
// shared between requests.
type Chain struct {
	orig    filters.Handler
	filters []filters.Filter
	index   int
	served  bool
}

// NewChain creates a chain for a single request. The filters may be empty
// or nil, in which case serving the chain calls the original handler
// directly.
func NewChain(orig filters.Handler, fs []filters.Filter) (*Chain, error) {
	if isNil(orig) {
		return nil, ErrNilHandler
	}

	return &Chain{orig: orig, filters: fs}, nil
}

// true for nil, and for a typed nil, e.g. filters.HandlerFunc(nil)
func isNil(h filters.Handler) bool {
	if h == nil {
		return true
	}

	v := reflect.ValueOf(h)
	switch v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Chan, reflect.Slice, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}

// Serve runs the next filter of the chain, or the original handler when
// there are no more filters. Errors of the filters and the original
// handler are returned unchanged.
func (c *Chain) Serve(w http.ResponseWriter, r *http.Request) error {
	if c.index < len(c.filters) {
		log.Tracef("invoking wrapped filter at index [%d]", c.index)

		// the index is increased before the call, so that the filter
		// continuing the chain reaches the next one
		f := c.filters[c.index]
		c.index++
		return f.Filter(w, r, c)
	}

	if c.served {
		return ErrChainCompleted
	}

	log.Trace("invoking original handler")
	c.served = true
	return c.orig.Serve(w, r)
}

// Index returns the number of filters already invoked.
func (c *Chain) Index() int { return c.index }

// Served tells whether the original handler was reached.
func (c *Chain) Served() bool { return c.served }
