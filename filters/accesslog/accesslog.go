package accesslog

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pathguard/pathguard/filters"
	"github.com/pathguard/pathguard/logging"
)

// Name is the filter name seen by the user
const Name = filters.AccessLogName

type accessLog struct {
	prefixes []string
}

// New creates an access log filter logging every request.
func New() filters.Filter {
	return &accessLog{}
}

// WithPathConfig returns a filter that logs only those requests where the
// status code of the response starts with one of the configured
// prefixes, e.g. accessLog[4, 5] logs the client and the server errors.
func (al *accessLog) WithPathConfig(config string) (filters.Filter, error) {
	prefixes := filters.SplitConfig(config)
	for _, p := range prefixes {
		if _, err := strconv.Atoi(p); err != nil || len(p) > 3 {
			return nil, filters.ErrInvalidFilterParameters
		}
	}

	return &accessLog{prefixes: prefixes}, nil
}

func (al *accessLog) enabled(code int) bool {
	if len(al.prefixes) == 0 {
		return true
	}

	c := strconv.Itoa(code)
	for _, p := range al.prefixes {
		if strings.HasPrefix(c, p) {
			return true
		}
	}

	return false
}

func (al *accessLog) Filter(w http.ResponseWriter, r *http.Request, next filters.Handler) error {
	start := time.Now()
	lw := logging.NewLoggingWriter(w)
	err := next.Serve(lw, r)

	code := lw.GetCode()
	if err != nil && code == 0 {
		code = http.StatusInternalServerError
	}

	if !al.enabled(code) {
		return err
	}

	entry := &logging.AccessEntry{
		Request:      r,
		StatusCode:   code,
		ResponseSize: lw.GetBytes(),
		RequestTime:  start,
		Duration:     time.Since(start),
	}

	if s, ok := filters.GetRequestState(r); ok {
		entry.Pattern = s.Pattern
		entry.User, _ = s.StateBag[filters.AuthUserKey].(string)
	}

	logging.LogAccess(entry)
	return err
}
