package filters

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const (
	AnonName           = "anon"
	BasicAuthName      = "authcBasic"
	BearerAuthName     = "authcBearer"
	RolesName          = "roles"
	SSLName            = "ssl"
	InvalidRequestName = "invalidRequest"
	FlowIdName         = "flowId"
	RateLimitName      = "rateLimit"
	BreakerName        = "breaker"
	AccessLogName      = "accessLog"
)

// ErrInvalidFilterParameters is used in case of invalid filter parameters.
var ErrInvalidFilterParameters = errors.New("invalid filter parameters")

// Handler is the terminal handler of a filter chain, and at the same time
// the continuation passed to every filter: calling it runs the rest of the
// chain.
type Handler interface {
	Serve(w http.ResponseWriter, r *http.Request) error
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

func (f HandlerFunc) Serve(w http.ResponseWriter, r *http.Request) error { return f(w, r) }

// HTTPHandler wraps a standard http.Handler as a terminal Handler. It never
// returns an error.
func HTTPHandler(h http.Handler) Handler {
	return HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		h.ServeHTTP(w, r)
		return nil
	})
}

// Filter is a unit of request processing logic. A filter may inspect or
// modify the request and the response, and decides on its own whether the
// rest of the chain is executed by calling next. A filter that doesn't
// call next terminates the chain, e.g. after writing a rejection.
//
// Filter instances are shared by all the requests passing through the
// chains that reference them, so any state stored with a filter needs to
// be safe for concurrent use.
type Filter interface {
	Filter(w http.ResponseWriter, r *http.Request, next Handler) error
}

// FilterFunc adapts an ordinary function to the Filter interface.
type FilterFunc func(w http.ResponseWriter, r *http.Request, next Handler) error

func (f FilterFunc) Filter(w http.ResponseWriter, r *http.Request, next Handler) error {
	return f(w, r, next)
}

// Initializer is implemented by filters that need a startup hook. Init is
// called once per registration of the filter, when it is registered for
// serving or when the registry holding it is activated.
type Initializer interface {
	Init(*ServingContext) error
}

// Destroyer is implemented by filters that hold resources to be released
// when the registry is shut down.
type Destroyer interface {
	Destroy()
}

// PathConfigurable is implemented by filters that accept per-use
// configuration in a chain definition, e.g. roles[admin]. WithPathConfig
// returns the filter instance to be used in that particular chain, and must
// not modify the receiver.
type PathConfigurable interface {
	WithPathConfig(config string) (Filter, error)
}

// ServingContext represents the live serving environment. Its presence
// during registration means that the filters are built for serving and
// not only assembled offline.
type ServingContext struct {

	// Name of the serving instance, used in logs.
	Name string

	// Params contains free form initialization parameters.
	Params map[string]string

	// Log is used by the filters during initialization and serving. When
	// nil, the standard logger is used.
	Log log.FieldLogger

	// Registerer is used by the filters exposing their own metrics. When
	// nil, the filters don't register metrics.
	Registerer prometheus.Registerer
}

// Logger returns the logger of the serving context.
func (sc *ServingContext) Logger() log.FieldLogger {
	if sc == nil || sc.Log == nil {
		return log.StandardLogger()
	}

	return sc.Log
}

// Param returns an initialization parameter.
func (sc *ServingContext) Param(name string) (string, bool) {
	if sc == nil {
		return "", false
	}

	v, ok := sc.Params[name]
	return v, ok
}

// Init runs the initialization hook of f when it has one.
func Init(f Filter, sc *ServingContext) error {
	if i, ok := f.(Initializer); ok {
		return i.Init(sc)
	}

	return nil
}
