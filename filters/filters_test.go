package filters

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type initCounter struct {
	calls int
	err   error
}

func (f *initCounter) Filter(w http.ResponseWriter, r *http.Request, next Handler) error {
	return next.Serve(w, r)
}

func (f *initCounter) Init(*ServingContext) error {
	f.calls++
	return f.err
}

func TestInit(t *testing.T) {
	f := &initCounter{}
	require.NoError(t, Init(f, &ServingContext{}))
	assert.Equal(t, 1, f.calls)

	errInit := errors.New("init failed")
	f = &initCounter{err: errInit}
	assert.ErrorIs(t, Init(f, nil), errInit)

	noop := FilterFunc(func(w http.ResponseWriter, r *http.Request, next Handler) error { return nil })
	assert.NoError(t, Init(noop, nil))
}

func TestServingContext(t *testing.T) {
	var sc *ServingContext
	assert.Equal(t, log.StandardLogger(), sc.Logger())
	_, ok := sc.Param("foo")
	assert.False(t, ok)

	l := log.New()
	sc = &ServingContext{Log: l, Params: map[string]string{"foo": "bar"}}
	assert.Equal(t, l, sc.Logger())
	v, ok := sc.Param("foo")
	assert.True(t, ok)
	assert.Equal(t, "bar", v)
}

func TestHTTPHandler(t *testing.T) {
	h := HTTPHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	err := h.Serve(rec, httptest.NewRequest("GET", "/", nil))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRequestState(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if _, ok := GetRequestState(r); ok {
		t.Fatal("unexpected request state")
	}

	// no effect without state
	SetState(r, AuthUserKey, "jane")

	r = WithRequestState(r, &RequestState{Pattern: "/**"})
	SetState(r, AuthUserKey, "jane")

	s, ok := GetRequestState(r)
	if !ok {
		t.Fatal("request state not found")
	}

	if s.Pattern != "/**" || s.StateBag[AuthUserKey] != "jane" {
		t.Errorf("unexpected request state: %+v", s)
	}

	// shared with the derived requests
	derived := r.WithContext(r.Context())
	SetState(derived, "key", "value")
	if s.StateBag["key"] != "value" {
		t.Error("state not shared")
	}
}
