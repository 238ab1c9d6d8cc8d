package ratelimit

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/pathguard/pathguard/filters"
)

const (
	Name = filters.RateLimitName

	DefaultRequestsPerSecond = 10
	DefaultBurst             = 20

	RequestsPerSecondProperty = "rps"
	BurstProperty             = "burst"

	RetryAfterHeader = "Retry-After"
)

// RateLimit rejects the requests exceeding the configured rate with 429.
// Every chain using the filter has its own limiter, shared by all the
// clients.
type RateLimit struct {
	rps     float64
	burst   int
	limiter *rate.Limiter
}

func newRateLimit(rps float64, burst int) *RateLimit {
	return &RateLimit{
		rps:     rps,
		burst:   burst,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// New creates a rate limit filter with the default rate.
func New() *RateLimit {
	return newRateLimit(DefaultRequestsPerSecond, DefaultBurst)
}

func validate(rps float64, burst int) error {
	if rps <= 0 || burst < 1 {
		return fmt.Errorf("%w: rate must be positive, burst at least 1", filters.ErrInvalidFilterParameters)
	}

	return nil
}

// SetProperty sets the rps or the burst property, changing the default
// rate of the filter.
func (rl *RateLimit) SetProperty(name string, value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("%w: property %s expects a string", filters.ErrInvalidFilterParameters, name)
	}

	rps, burst := rl.rps, rl.burst
	var err error
	switch name {
	case RequestsPerSecondProperty:
		rps, err = filters.Float64Arg(s)
	case BurstProperty:
		burst, err = filters.IntArg(s)
	default:
		err = fmt.Errorf("unknown property %s", name)
	}

	if err != nil {
		return fmt.Errorf("%w: %w", filters.ErrInvalidFilterParameters, err)
	}

	if err := validate(rps, burst); err != nil {
		return err
	}

	*rl = *newRateLimit(rps, burst)
	return nil
}

// WithPathConfig creates a filter with its own limiter. The config
// contains the rate per second and optionally the burst, e.g.
// rateLimit[5, 10]. The burst defaults to the rate rounded up.
func (rl *RateLimit) WithPathConfig(config string) (filters.Filter, error) {
	a := filters.Args(config)
	rps := a.Float64()
	burst := a.OptionalInt(int(math.Ceil(rps)))
	if err := a.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", filters.ErrInvalidFilterParameters, err)
	}

	if err := validate(rps, burst); err != nil {
		return nil, err
	}

	return newRateLimit(rps, burst), nil
}

func (rl *RateLimit) retryAfter() int {
	return max(1, int(math.Ceil(1/rl.rps)))
}

func (rl *RateLimit) Filter(w http.ResponseWriter, r *http.Request, next filters.Handler) error {
	if !rl.limiter.Allow() {
		w.Header().Set(RetryAfterHeader, strconv.Itoa(rl.retryAfter()))
		w.WriteHeader(http.StatusTooManyRequests)
		return nil
	}

	return next.Serve(w, r)
}
