package circuit

import (
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/pathguard/pathguard/filters"
	"github.com/pathguard/pathguard/logging"
)

const (
	Name = filters.BreakerName

	DefaultFailures         = 5
	DefaultTimeout          = time.Minute
	DefaultHalfOpenRequests = 1
)

// BreakerSettings contains the settings of a consecutive failures
// breaker.
type BreakerSettings struct {
	Failures         int
	Timeout          time.Duration
	HalfOpenRequests int
}

func (s BreakerSettings) String() string {
	return fmt.Sprintf("%d,%v,%d", s.Failures, s.Timeout, s.HalfOpenRequests)
}

// Breaker protects the rest of the chain with a consecutive failures
// circuit breaker. A request fails when the rest of the chain returns an
// error or responds with a 5xx status. While the breaker is open, the
// requests are rejected with 503.
type Breaker struct {
	settings BreakerSettings
	gb       *gobreaker.TwoStepCircuitBreaker
}

func newBreaker(s BreakerSettings) *Breaker {
	b := &Breaker{settings: s}
	b.gb = gobreaker.NewTwoStepCircuitBreaker(gobreaker.Settings{
		Name:        Name + "[" + s.String() + "]",
		MaxRequests: uint32(s.HalfOpenRequests),
		Timeout:     s.Timeout,
		ReadyToTrip: b.readyToTrip,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Infof("circuit breaker %v went from %v to %v", name, from.String(), to.String())
		},
	})

	return b
}

// New creates a breaker with the default settings.
func New() *Breaker {
	return newBreaker(BreakerSettings{
		Failures:         DefaultFailures,
		Timeout:          DefaultTimeout,
		HalfOpenRequests: DefaultHalfOpenRequests,
	})
}

func (b *Breaker) readyToTrip(c gobreaker.Counts) bool {
	return int(c.ConsecutiveFailures) >= b.settings.Failures
}

// WithPathConfig creates a breaker with its own state. The config
// contains the number of the consecutive failures opening the breaker,
// and optionally the timeout of the open state and the number of the
// requests allowed in the half open state, e.g. breaker[3, 30s, 2].
func (b *Breaker) WithPathConfig(config string) (filters.Filter, error) {
	a := filters.Args(config)
	s := BreakerSettings{
		Failures:         a.Int(),
		Timeout:          a.OptionalDuration(DefaultTimeout),
		HalfOpenRequests: a.OptionalInt(DefaultHalfOpenRequests),
	}

	if err := a.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", filters.ErrInvalidFilterParameters, err)
	}

	if s.Failures < 1 || s.HalfOpenRequests < 1 {
		return nil, filters.ErrInvalidFilterParameters
	}

	return newBreaker(s), nil
}

// Allow returns the callback to report the outcome of the request, or
// false when the breaker is not closed.
func (b *Breaker) Allow() (func(bool), bool) {
	done, err := b.gb.Allow()

	// this error can only indicate that the breaker is not closed
	if err != nil {
		return nil, false
	}

	return done, true
}

// Closed tells whether the breaker is closed.
func (b *Breaker) Closed() bool {
	return b.gb.State() == gobreaker.StateClosed
}

func (b *Breaker) Filter(w http.ResponseWriter, r *http.Request, next filters.Handler) error {
	done, ok := b.Allow()
	if !ok {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return nil
	}

	lw := logging.NewLoggingWriter(w)
	err := next.Serve(lw, r)
	done(err == nil && lw.GetCode() < http.StatusInternalServerError)
	return err
}
