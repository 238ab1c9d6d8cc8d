package filters

import (
	"context"
	"net/http"
)

// AuthUserKey is the key of the authenticated user name in the state
// bag.
const AuthUserKey = "auth-user"

type requestStateKey struct{}

// RequestState is shared by the filters of a chain during the processing
// of a single request. Since the filters of a chain are called
// sequentially, it doesn't need synchronization.
type RequestState struct {

	// Path pattern of the chain processing the request.
	Pattern string

	// StateBag is a generic key-value store for the filters.
	StateBag map[string]any
}

// WithRequestState returns a shallow copy of the request carrying the
// state in its context.
func WithRequestState(r *http.Request, s *RequestState) *http.Request {
	if s.StateBag == nil {
		s.StateBag = make(map[string]any)
	}

	return r.WithContext(context.WithValue(r.Context(), requestStateKey{}, s))
}

// GetRequestState returns the state of the request, when the request is
// processed by a chain.
func GetRequestState(r *http.Request) (*RequestState, bool) {
	s, ok := r.Context().Value(requestStateKey{}).(*RequestState)
	return s, ok
}

// SetState stores a value in the state bag of the request. It has no
// effect when the request has no state.
func SetState(r *http.Request, key string, value any) {
	if s, ok := GetRequestState(r); ok {
		s.StateBag[key] = value
	}
}
