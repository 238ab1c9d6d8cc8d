package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/pathguard/pathguard"
)

type Config struct {
	ConfigFile string
	Flags      *flag.FlagSet

	// generic:
	Address                    string        `yaml:"address"`
	SupportListener            string        `yaml:"support-listener"`
	Backend                    string        `yaml:"backend"`
	StrictTrailingSlash        bool          `yaml:"strict-trailing-slash"`
	ServingName                string        `yaml:"serving-name"`
	ServingParams              mapFlags      `yaml:"serving-params"`
	ReadTimeoutServer          time.Duration `yaml:"read-timeout-server"`
	ReadHeaderTimeoutServer    time.Duration `yaml:"read-header-timeout-server"`
	WriteTimeoutServer         time.Duration `yaml:"write-timeout-server"`
	IdleTimeoutServer          time.Duration `yaml:"idle-timeout-server"`
	WaitForHealthcheckInterval time.Duration `yaml:"wait-for-healthcheck-interval"`

	// chains:
	Filters sectionFlag `yaml:"filters"`
	URLs    sectionFlag `yaml:"urls"`

	// logging:
	ApplicationLog            string    `yaml:"application-log"`
	ApplicationLogLevel       log.Level `yaml:"-"`
	ApplicationLogLevelString string    `yaml:"application-log-level"`
	ApplicationLogPrefix      string    `yaml:"application-log-prefix"`
	ApplicationLogJSONEnabled bool      `yaml:"application-log-json-enabled"`
	AccessLog                 string    `yaml:"access-log"`
	AccessLogDisabled         bool      `yaml:"access-log-disabled"`
	AccessLogJSONEnabled      bool      `yaml:"access-log-json-enabled"`

	// metrics:
	MetricsPrefix                string    `yaml:"metrics-prefix"`
	EnableRuntimeMetrics         bool      `yaml:"runtime-metrics"`
	HistogramMetricBuckets       []float64 `yaml:"-"`
	HistogramMetricBucketsString string    `yaml:"histogram-metric-buckets"`
}

const (
	defaultAddress                    = ":9090"
	defaultSupportListener            = ":9911"
	defaultServingName                = "pathguard"
	defaultApplicationLogPrefix       = "[APP]"
	defaultApplicationLogLevel        = "INFO"
	defaultMetricsPrefix              = "pathguard"
	defaultReadTimeoutServer          = 5 * time.Minute
	defaultReadHeaderTimeoutServer    = 60 * time.Second
	defaultWriteTimeoutServer         = 60 * time.Second
	defaultIdleTimeoutServer          = 60 * time.Second
	defaultWaitForHealthcheckInterval = 0
)

func NewConfig() *Config {
	cfg := new(Config)
	cfg.ServingParams = *newMapFlags()

	flag := flag.NewFlagSet("", flag.ExitOnError)
	flag.StringVar(&cfg.ConfigFile, "config-file", "", "if provided the flags will be loaded/overwritten by the values on the file (yaml)")

	// generic:
	flag.StringVar(&cfg.Address, "address", defaultAddress, "network address that pathguard should listen on")
	flag.StringVar(&cfg.SupportListener, "support-listener", defaultSupportListener, "network address used for exposing the /metrics and /healthz endpoints. Set it to empty to disable the support listener")
	flag.StringVar(&cfg.Backend, "backend", "", "URL of the protected application, the requests passing their chain are proxied there. When empty, the requests passing their chain get 404")
	flag.BoolVar(&cfg.StrictTrailingSlash, "strict-trailing-slash", false, "flag indicating that a trailing slash of the request path is significant when matching the chain patterns. By default /admin/ is matched like /admin")
	flag.StringVar(&cfg.ServingName, "serving-name", defaultServingName, "name of the serving instance, passed to the filters during initialization")
	flag.Var(&cfg.ServingParams, "serving-params", "initialization parameters passed to the filters, e.g. realm=internal,instance=a")
	flag.DurationVar(&cfg.ReadTimeoutServer, "read-timeout-server", defaultReadTimeoutServer, "set ReadTimeout for http server connections")
	flag.DurationVar(&cfg.ReadHeaderTimeoutServer, "read-header-timeout-server", defaultReadHeaderTimeoutServer, "set ReadHeaderTimeout for http server connections")
	flag.DurationVar(&cfg.WriteTimeoutServer, "write-timeout-server", defaultWriteTimeoutServer, "set WriteTimeout for http server connections")
	flag.DurationVar(&cfg.IdleTimeoutServer, "idle-timeout-server", defaultIdleTimeoutServer, "set IdleTimeout for http server connections")
	flag.DurationVar(&cfg.WaitForHealthcheckInterval, "wait-for-healthcheck-interval", defaultWaitForHealthcheckInterval, "period waiting to become unhealthy in the loadbalancer pool in front of pathguard before shutting down the listeners")

	// chains:
	flag.Var(&cfg.Filters, "filters", "*Deprecated*: object declarations as an inline yaml mapping, e.g. '{rateLimit.rps: 20}'")
	flag.Var(&cfg.URLs, "urls", "chains as an inline yaml mapping of path patterns to chain definitions, e.g. '{/admin/**: \"authcBasic, roles[admin]\", /**: anon}'")

	// logging:
	flag.StringVar(&cfg.ApplicationLog, "application-log", "", "output file for the application log. When not set, /dev/stderr is used")
	flag.StringVar(&cfg.ApplicationLogLevelString, "application-log-level", defaultApplicationLogLevel, "log level for application logs, possible values: PANIC, FATAL, ERROR, WARN, INFO, DEBUG")
	flag.StringVar(&cfg.ApplicationLogPrefix, "application-log-prefix", defaultApplicationLogPrefix, "prefix for each log entry")
	flag.BoolVar(&cfg.ApplicationLogJSONEnabled, "application-log-json-enabled", false, "when this flag is set, log in JSON format is used")
	flag.StringVar(&cfg.AccessLog, "access-log", "", "output file for the access log, When not set, /dev/stderr is used")
	flag.BoolVar(&cfg.AccessLogDisabled, "access-log-disabled", false, "when this flag is set, no access log is printed")
	flag.BoolVar(&cfg.AccessLogJSONEnabled, "access-log-json-enabled", false, "when this flag is set, log in JSON format is used")

	// metrics:
	flag.StringVar(&cfg.MetricsPrefix, "metrics-prefix", defaultMetricsPrefix, "namespace of the collected metrics")
	flag.BoolVar(&cfg.EnableRuntimeMetrics, "runtime-metrics", true, "enables collection of the Go runtime and process metrics")
	flag.StringVar(&cfg.HistogramMetricBucketsString, "histogram-metric-buckets", "", "use custom buckets for prometheus histograms, must be a comma-separated list of numbers")

	cfg.Flags = flag
	return cfg
}

func validate(c *Config) error {
	_, err := log.ParseLevel(c.ApplicationLogLevelString)
	if err != nil {
		return err
	}

	if c.Address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	if c.Backend != "" {
		u, err := url.Parse(c.Backend)
		if err != nil {
			return fmt.Errorf("invalid backend: %w", err)
		}

		if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
			return fmt.Errorf("invalid backend: %s, expected an http or https URL", c.Backend)
		}
	}

	_, err = c.parseHistogramBuckets()
	return err
}

func (c *Config) Parse() error {
	return c.ParseArgs(os.Args[0], os.Args[1:])
}

func (c *Config) ParseArgs(progname string, args []string) error {
	c.Flags.Init(progname, flag.ExitOnError)
	err := c.Flags.Parse(args)
	if err != nil {
		return err
	}

	// check if arguments were correctly parsed.
	if len(c.Flags.Args()) != 0 {
		return fmt.Errorf("invalid arguments: %s", c.Flags.Args())
	}

	if c.ConfigFile != "" {
		yamlFile, err := os.ReadFile(c.ConfigFile)
		if err != nil {
			return fmt.Errorf("invalid config file: %w", err)
		}

		err = yaml.Unmarshal(yamlFile, c)
		if err != nil {
			return fmt.Errorf("unmarshalling config file error: %w", err)
		}

		err = c.Flags.Parse(args)
		if err != nil {
			return err
		}
	}

	if err := validate(c); err != nil {
		return err
	}

	c.ApplicationLogLevel, _ = log.ParseLevel(c.ApplicationLogLevelString)
	c.HistogramMetricBuckets, _ = c.parseHistogramBuckets()
	return nil
}

func (c *Config) ToOptions() pathguard.Options {
	return pathguard.Options{
		// generic:
		Address:                    c.Address,
		SupportListener:            c.SupportListener,
		Backend:                    c.Backend,
		StrictTrailingSlash:        c.StrictTrailingSlash,
		ServingName:                c.ServingName,
		ServingParams:              c.ServingParams.values,
		ReadTimeoutServer:          c.ReadTimeoutServer,
		ReadHeaderTimeoutServer:    c.ReadHeaderTimeoutServer,
		WriteTimeoutServer:         c.WriteTimeoutServer,
		IdleTimeoutServer:          c.IdleTimeoutServer,
		WaitForHealthcheckInterval: c.WaitForHealthcheckInterval,

		// chains:
		FiltersSection: c.Filters.Section(),
		URLsSection:    c.URLs.Section(),

		// logging:
		ApplicationLogOutput:      c.ApplicationLog,
		ApplicationLogLevel:       c.ApplicationLogLevel,
		ApplicationLogPrefix:      c.ApplicationLogPrefix,
		ApplicationLogJSONEnabled: c.ApplicationLogJSONEnabled,
		AccessLogOutput:           c.AccessLog,
		AccessLogDisabled:         c.AccessLogDisabled,
		AccessLogJSONEnabled:      c.AccessLogJSONEnabled,

		// metrics:
		MetricsPrefix:          c.MetricsPrefix,
		EnableRuntimeMetrics:   c.EnableRuntimeMetrics,
		HistogramMetricBuckets: c.HistogramMetricBuckets,
	}
}

func (c *Config) parseHistogramBuckets() ([]float64, error) {
	if c.HistogramMetricBucketsString == "" {
		return prometheus.DefBuckets, nil
	}

	var result []float64
	thresholds := strings.Split(c.HistogramMetricBucketsString, ",")
	for _, v := range thresholds {
		bucket, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("unable to parse histogram-metric-buckets: %w", err)
		}
		result = append(result, bucket)
	}
	sort.Float64s(result)
	return result, nil
}
