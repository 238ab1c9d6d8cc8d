package builtin

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pathguard/pathguard/filters"
)

const (
	DefaultHTTPSPort = 443

	PortProperty = "port"

	forwardedProtoHeader = "X-Forwarded-Proto"
)

// SSL redirects the requests not received over TLS to the https
// scheme. The port of the https listener can be set as a property, or as
// the path config, e.g. ssl[8443].
type SSL struct {
	port int
}

// NewSSL creates an ssl filter redirecting to the default https port.
func NewSSL() *SSL {
	return &SSL{port: DefaultHTTPSPort}
}

func parsePort(s string) (int, error) {
	p, err := strconv.Atoi(s)
	if err != nil || p < 1 || p > 65535 {
		return 0, fmt.Errorf("%w: invalid port %q", filters.ErrInvalidFilterParameters, s)
	}

	return p, nil
}

// SetProperty sets the port property.
func (s *SSL) SetProperty(name string, value any) error {
	v, ok := value.(string)
	if name != PortProperty || !ok {
		return fmt.Errorf("%w: unknown property %s", filters.ErrInvalidFilterParameters, name)
	}

	p, err := parsePort(v)
	if err != nil {
		return err
	}

	s.port = p
	return nil
}

func (s *SSL) WithPathConfig(config string) (filters.Filter, error) {
	a := filters.Args(config)
	port := a.String()
	if err := a.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", filters.ErrInvalidFilterParameters, err)
	}

	p, err := parsePort(port)
	if err != nil {
		return nil, err
	}

	return &SSL{port: p}, nil
}

func secure(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get(forwardedProtoHeader), "https")
}

func (s *SSL) location(r *http.Request) string {
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	} else {
		host = strings.Trim(host, "[]")
	}

	if s.port != DefaultHTTPSPort {
		host = net.JoinHostPort(host, strconv.Itoa(s.port))
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}

	u := url.URL{Scheme: "https", Host: host, Path: r.URL.Path, RawPath: r.URL.RawPath, RawQuery: r.URL.RawQuery}
	return u.String()
}

func (s *SSL) Filter(w http.ResponseWriter, r *http.Request, next filters.Handler) error {
	if secure(r) {
		return next.Serve(w, r)
	}

	http.Redirect(w, r, s.location(r), http.StatusFound)
	return nil
}
