package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/pathguard/pathguard/filters"
)

type rejectReason string

const (
	missingCredentials rejectReason = "missing-credentials"
	invalidCredentials rejectReason = "invalid-credentials"
	missingBearerToken rejectReason = "missing-bearer-token"
	invalidToken       rejectReason = "invalid-token"
	missingSubject     rejectReason = "missing-subject"
	missingRole        rejectReason = "missing-role"
)

const (
	authHeaderName   = "Authorization"
	authHeaderPrefix = "Bearer "

	// WWWAuthenticateHeader is the name of the challenge header.
	WWWAuthenticateHeader = "WWW-Authenticate"
)

var (
	errInvalidAuthorizationHeader = errors.New("invalid authorization header")
	errNotConfigured              = errors.New("filter not configured")
)

type subjectKey struct{}

// Subject is the authenticated identity of a request.
type Subject struct {
	Name  string
	Roles []string
}

// HasRole tells whether the subject has the role.
func (s *Subject) HasRole(role string) bool {
	return s != nil && slices.Contains(s.Roles, role)
}

// WithSubject returns a shallow copy of the request, carrying the
// subject in its context.
func WithSubject(r *http.Request, s *Subject) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), subjectKey{}, s))
}

// SubjectFromRequest returns the subject stored by an authenticating
// filter earlier in the chain.
func SubjectFromRequest(r *http.Request) (*Subject, bool) {
	s, ok := r.Context().Value(subjectKey{}).(*Subject)
	return s, ok && s != nil
}

func getToken(r *http.Request) (string, error) {
	h := r.Header.Get(authHeaderName)
	if !strings.HasPrefix(h, authHeaderPrefix) {
		return "", errInvalidAuthorizationHeader
	}

	return h[len(authHeaderPrefix):], nil
}

func stringProperty(name string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: property %s expects a string", filters.ErrInvalidFilterParameters, name)
	}

	return s, nil
}

func unknownProperty(name string) error {
	return fmt.Errorf("%w: unknown property %s", filters.ErrInvalidFilterParameters, name)
}

func unauthorized(w http.ResponseWriter, uname string, reason rejectReason, challenge string) {
	log.Debugf("Unauthorized: uname: %s, reason: %s", uname, reason)
	if challenge != "" {
		// https://www.rfc-editor.org/rfc/rfc9110#section-11.6.1
		w.Header().Set(WWWAuthenticateHeader, challenge)
	}

	w.WriteHeader(http.StatusUnauthorized)
}

func forbidden(w http.ResponseWriter, uname string, reason rejectReason) {
	log.Debugf("Forbidden: uname: %s, reason: %s", uname, reason)
	w.WriteHeader(http.StatusForbidden)
}
