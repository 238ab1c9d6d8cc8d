package pathguard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"path"
	"sync/atomic"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/sync/errgroup"

	"github.com/pathguard/pathguard/chainconfig"
	"github.com/pathguard/pathguard/filters"
	"github.com/pathguard/pathguard/filters/builtin"
	"github.com/pathguard/pathguard/logging"
	"github.com/pathguard/pathguard/metrics"
	"github.com/pathguard/pathguard/objects"
	"github.com/pathguard/pathguard/proxy"
	"github.com/pathguard/pathguard/routing"
)

const defaultShutdownTimeout = 30 * time.Second

// Options to start pathguard.
type Options struct {
	// Network address that pathguard should listen on.
	Address string

	// Network address of the listener exposing /metrics and /healthz.
	// When empty, no support listener is started.
	SupportListener string

	// URL of the protected application. The requests passing their
	// chain, and the requests not matching any chain, are proxied there.
	Backend string

	// Handler is used instead of Backend when set, e.g. when pathguard
	// is embedded in front of an in-process application.
	Handler http.Handler

	// Object declarations of the filters section, see
	// chainconfig.Factory. The section is deprecated.
	FiltersSection *chainconfig.Section

	// Path patterns mapped to chain definitions, in matching order.
	URLsSection *chainconfig.Section

	// Objects supplied by the embedding application. They override the
	// default filters with the same name.
	Defaults *orderedmap.OrderedMap[string, any]

	// Name of the serving instance, passed to the filters.
	ServingName string

	// Initialization parameters passed to the filters.
	ServingParams map[string]string

	// Flag indicating that a trailing slash of the request path is
	// significant when matching the chain patterns. By default, /admin/
	// and /admin// are matched like /admin.
	StrictTrailingSlash bool

	// Timeouts of the http server connections, see http.Server.
	ReadTimeoutServer       time.Duration
	ReadHeaderTimeoutServer time.Duration
	WriteTimeoutServer      time.Duration
	IdleTimeoutServer       time.Duration

	// Period waiting to become unhealthy in the loadbalancer pool in
	// front of pathguard before shutting down the listeners.
	WaitForHealthcheckInterval time.Duration

	// Output file for the application log. Default value: /dev/stderr.
	//
	// When /dev/stderr or /dev/stdout is passed in, it will be resolved
	// as os.Stderr or os.Stdout.
	ApplicationLogOutput string

	// Application log level, the zero value is PanicLevel, so it needs
	// to be set.
	ApplicationLogLevel log.Level

	// Prefix for application log entries.
	ApplicationLogPrefix string

	// Enables logs in JSON format
	ApplicationLogJSONEnabled bool

	// Output file for the access log, Default value: /dev/stderr.
	AccessLogOutput string

	// Disables the access log.
	AccessLogDisabled bool

	// Enables logs in JSON format
	AccessLogJSONEnabled bool

	// Namespace of the collected metrics.
	MetricsPrefix string

	// Enables collection of the Go runtime and process metrics.
	EnableRuntimeMetrics bool

	// Buckets of the duration histograms.
	HistogramMetricBuckets []float64

	// Custom application log output, used instead of
	// ApplicationLogOutput when set. Mostly for testing.
	CustomApplicationLogOutput io.Writer

	// Custom access log output, used instead of AccessLogOutput when
	// set. Mostly for testing.
	CustomAccessLogOutput io.Writer
}

type pathguard struct {
	proxy    *proxy.Proxy
	support  http.Handler
	manager  *routing.Manager
	registry *chainconfig.Registry
	metrics  *metrics.Prometheus
	unready  atomic.Bool
}

func getLogOutput(name string) (io.Writer, error) {
	name = path.Clean(name)

	if name == "/dev/stdout" {
		return os.Stdout, nil
	}

	if name == "/dev/stderr" {
		return os.Stderr, nil
	}

	return os.OpenFile(name, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0666)
}

func initLog(o Options) error {
	var (
		logOutput       io.Writer
		accessLogOutput io.Writer
		err             error
	)

	if o.CustomApplicationLogOutput != nil {
		logOutput = o.CustomApplicationLogOutput
	} else if o.ApplicationLogOutput != "" {
		logOutput, err = getLogOutput(o.ApplicationLogOutput)
		if err != nil {
			return err
		}
	}

	if o.CustomAccessLogOutput != nil {
		accessLogOutput = o.CustomAccessLogOutput
	} else if !o.AccessLogDisabled && o.AccessLogOutput != "" {
		accessLogOutput, err = getLogOutput(o.AccessLogOutput)
		if err != nil {
			return err
		}
	}

	logging.Init(logging.Options{
		ApplicationLogPrefix:      o.ApplicationLogPrefix,
		ApplicationLogOutput:      logOutput,
		ApplicationLogJSONEnabled: o.ApplicationLogJSONEnabled,
		AccessLogOutput:           accessLogOutput,
		AccessLogDisabled:         o.AccessLogDisabled,
		AccessLogJSONEnabled:      o.AccessLogJSONEnabled,
	})

	log.SetLevel(o.ApplicationLogLevel)
	return nil
}

func terminalHandler(o Options) (http.Handler, error) {
	if o.Handler != nil {
		return o.Handler, nil
	}

	if o.Backend == "" {
		log.Warn("no backend configured, the requests passing their chain get 404")
		return http.NotFoundHandler(), nil
	}

	u, err := url.Parse(o.Backend)
	if err != nil {
		return nil, fmt.Errorf("invalid backend: %w", err)
	}

	rp := httputil.NewSingleHostReverseProxy(u)
	rp.ErrorHandler = func(w http.ResponseWriter, _ *http.Request, err error) {
		log.Errorf("error while proxying to %s: %v", u.Host, err)
		w.WriteHeader(http.StatusBadGateway)
	}

	return rp, nil
}

func newPathguard(o Options) (*pathguard, error) {
	m := metrics.NewPrometheus(metrics.Options{
		Prefix:               o.MetricsPrefix,
		HistogramBuckets:     o.HistogramMetricBuckets,
		EnableRuntimeMetrics: o.EnableRuntimeMetrics,
	})

	sc := &filters.ServingContext{
		Name:       o.ServingName,
		Params:     o.ServingParams,
		Log:        log.StandardLogger(),
		Registerer: m.Registry(),
	}

	manager := routing.NewManager(routing.Options{
		Filters:        builtin.Defaults(),
		ServingContext: sc,
	})

	factory := &chainconfig.Factory{
		Builder:        objects.NewBuilder(builtin.Kinds()),
		Defaults:       o.Defaults,
		ServingContext: sc,
	}

	registry, err := factory.Build(manager, o.FiltersSection, o.URLsSection)
	if err != nil {
		return nil, err
	}

	h, err := terminalHandler(o)
	if err != nil {
		registry.Destroy()
		return nil, err
	}

	p, err := proxy.New(proxy.Options{
		Resolver: routing.NewResolver(manager, routing.ResolverOptions{StrictTrailingSlash: o.StrictTrailingSlash}),
		Handler:  h,
		Metrics:  m,
	})
	if err != nil {
		registry.Destroy()
		return nil, err
	}

	pg := &pathguard{
		proxy:    p,
		manager:  manager,
		registry: registry,
		metrics:  m,
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.CreateHandler())
	mux.HandleFunc("/healthz", pg.healthz)
	mux.HandleFunc("/chains", pg.chains)
	pg.support = mux

	log.Infof("%d filters registered, %d chains created", registry.Len(), len(manager.Chains()))
	return pg, nil
}

func (pg *pathguard) healthz(w http.ResponseWriter, _ *http.Request) {
	if pg.unready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK\n"))
}

func (pg *pathguard) chains(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	for _, c := range pg.manager.Chains() {
		_, _ = fmt.Fprintf(w, "%s = %s\n", c.Pattern, c.Definition)
	}
}

func (o Options) server(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       o.ReadTimeoutServer,
		ReadHeaderTimeout: o.ReadHeaderTimeoutServer,
		WriteTimeout:      o.WriteTimeoutServer,
		IdleTimeout:       o.IdleTimeoutServer,
	}
}

func serve(srv *http.Server, l net.Listener) error {
	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve %s: %w", srv.Addr, err)
	}

	return nil
}

// listenAndServeQuit serves the proxy and the support listener until a
// signal is received on sigs, or one of the listeners fails. done, when
// not nil, is closed after both listeners were shut down.
func listenAndServeQuit(pg *pathguard, o Options, sigs <-chan os.Signal, done chan<- struct{}) error {
	if done != nil {
		defer close(done)
	}

	servers := []*http.Server{o.server(o.Address, pg.proxy)}
	if o.SupportListener != "" {
		servers = append(servers, o.server(o.SupportListener, pg.support))
	}

	listeners := make([]net.Listener, 0, len(servers))
	for _, srv := range servers {
		l, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			for _, li := range listeners {
				li.Close()
			}

			return err
		}

		log.Infof("Listening on %v", l.Addr())
		listeners = append(listeners, l)
	}

	g, ctx := errgroup.WithContext(context.Background())
	for i := range servers {
		srv, l := servers[i], listeners[i]
		g.Go(func() error { return serve(srv, l) })
	}

	g.Go(func() error {
		select {
		case sig := <-sigs:
			log.Infof("Got shutdown signal %v, wait %v for health check", sig, o.WaitForHealthcheckInterval)
			pg.unready.Store(true)
			time.Sleep(o.WaitForHealthcheckInterval)
		case <-ctx.Done():
		}

		log.Info("Start shutdown")
		sctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(sctx); err != nil {
				errs = append(errs, fmt.Errorf("failed to shutdown %s: %w", srv.Addr, err))
			}
		}

		return errors.Join(errs...)
	})

	return g.Wait()
}

// RunWithShutdown is like Run, but it shuts down the listeners when a
// signal is received on sigs. When done is not nil, it is closed after the
// listeners were shut down.
func RunWithShutdown(o Options, sigs <-chan os.Signal, done chan<- struct{}) error {
	if err := initLog(o); err != nil {
		return err
	}

	pg, err := newPathguard(o)
	if err != nil {
		return err
	}

	defer pg.registry.Destroy()
	return listenAndServeQuit(pg, o, sigs, done)
}

// Run pathguard. It builds the filters and the chains from the options,
// and serves the proxy until SIGTERM or SIGINT is received.
func Run(o Options) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigs)
	return RunWithShutdown(o, sigs, nil)
}
