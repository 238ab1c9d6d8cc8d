package circuit

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathguard/pathguard/filters"
)

func respond(status int, err error) filters.Handler {
	return filters.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) error {
		if err != nil {
			return err
		}

		w.WriteHeader(status)
		return nil
	})
}

func serve(t *testing.T, f filters.Filter, next filters.Handler) (int, error) {
	t.Helper()
	w := httptest.NewRecorder()
	err := f.Filter(w, httptest.NewRequest("GET", "/", nil), next)
	return w.Code, err
}

func TestBreakerOpens(t *testing.T) {
	f, err := New().WithPathConfig("2, 1h")
	require.NoError(t, err)
	b := f.(*Breaker)

	code, err := serve(t, b, respond(http.StatusBadGateway, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.True(t, b.Closed())

	errBackend := errors.New("backend")
	_, err = serve(t, b, respond(0, errBackend))
	assert.ErrorIs(t, err, errBackend)
	assert.False(t, b.Closed())

	code, err = serve(t, b, filters.HandlerFunc(func(http.ResponseWriter, *http.Request) error {
		t.Error("next called with open breaker")
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestBreakerSuccessResets(t *testing.T) {
	f, err := New().WithPathConfig("2")
	require.NoError(t, err)
	b := f.(*Breaker)

	for i := 0; i < 5; i++ {
		_, _ = serve(t, b, respond(http.StatusInternalServerError, nil))
		_, _ = serve(t, b, respond(http.StatusOK, nil))
	}

	assert.True(t, b.Closed())
}

func TestBreakerHalfOpen(t *testing.T) {
	f, err := New().WithPathConfig("1, 10ms, 1")
	require.NoError(t, err)
	b := f.(*Breaker)

	_, _ = serve(t, b, respond(http.StatusInternalServerError, nil))
	require.False(t, b.Closed())

	time.Sleep(20 * time.Millisecond)
	code, err := serve(t, b, respond(http.StatusOK, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, b.Closed())
}

func TestBreakerConfig(t *testing.T) {
	for _, tt := range []struct {
		config   string
		settings BreakerSettings
		fail     bool
	}{
		{config: "3", settings: BreakerSettings{3, DefaultTimeout, DefaultHalfOpenRequests}},
		{config: "3, 5s", settings: BreakerSettings{3, 5 * time.Second, DefaultHalfOpenRequests}},
		{config: "3, 5s, 2", settings: BreakerSettings{3, 5 * time.Second, 2}},
		{config: "", fail: true},
		{config: "0", fail: true},
		{config: "3, soon", fail: true},
		{config: "3, 5s, 0", fail: true},
		{config: "3, 5s, 2, 1", fail: true},
	} {
		t.Run(tt.config, func(t *testing.T) {
			f, err := New().WithPathConfig(tt.config)
			if tt.fail {
				assert.ErrorIs(t, err, filters.ErrInvalidFilterParameters)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.settings, f.(*Breaker).settings)
		})
	}
}
