package auth

import (
	"net/http"

	"github.com/pathguard/pathguard/filters"
)

// Roles requires the subject of the request to have every configured
// role. The roles are set per chain, e.g. roles[admin, ops]. Without a
// subject, the request is rejected with 401, and with a subject missing
// a role, with 403. Without configured roles, every request passes.
type Roles struct {
	roles []string
}

// NewRoles creates a roles filter without required roles.
func NewRoles() *Roles { return &Roles{} }

// WithPathConfig returns a filter requiring the roles listed in config.
func (rf *Roles) WithPathConfig(config string) (filters.Filter, error) {
	roles := filters.SplitConfig(config)
	for _, r := range roles {
		if r == "" {
			return nil, filters.ErrInvalidFilterParameters
		}
	}

	return &Roles{roles: roles}, nil
}

func (rf *Roles) Filter(w http.ResponseWriter, r *http.Request, next filters.Handler) error {
	if len(rf.roles) == 0 {
		return next.Serve(w, r)
	}

	s, ok := SubjectFromRequest(r)
	if !ok {
		unauthorized(w, "", missingSubject, "")
		return nil
	}

	for _, role := range rf.roles {
		if !s.HasRole(role) {
			forbidden(w, s.Name, missingRole)
			return nil
		}
	}

	return next.Serve(w, r)
}
