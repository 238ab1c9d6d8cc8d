package routing

import (
	"net/http"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ResolverOptions used to create a Resolver.
type ResolverOptions struct {

	// When set, a trailing slash of the request path is significant
	// during matching, and /admin/ doesn't match the pattern /admin. By
	// default, the request path matches a pattern with or without the
	// trailing slash.
	StrictTrailingSlash bool
}

// Resolver selects the chain applying to a request from the chains of a
// manager. The patterns are tried in the order the chains were created,
// and the first matching one wins. Patterns are glob patterns, where **
// matches any number of path segments, e.g. /admin/** matches /admin and
// /admin/users/1.
type Resolver struct {
	manager *Manager
	options ResolverOptions
}

// NewResolver creates a resolver for the chains of a manager.
func NewResolver(m *Manager, o ResolverOptions) *Resolver {
	return &Resolver{manager: m, options: o}
}

// requestPaths returns the cleaned request path, and when the trailing
// slash is not strict, the same path with a trailing slash, so that both
// /admin and /admin/** patterns apply to /admin/ and /admin//.
func (r *Resolver) requestPaths(req *http.Request) []string {
	p := req.URL.Path
	if p == "" {
		return []string{"/"}
	}

	clean := path.Clean(p)
	if clean == "/" {
		return []string{clean}
	}

	if !r.options.StrictTrailingSlash {
		return []string{clean, clean + "/"}
	}

	if strings.HasSuffix(p, "/") {
		clean += "/"
	}

	return []string{clean}
}

// Resolve returns the chain of the first pattern matching the request
// path.
func (r *Resolver) Resolve(req *http.Request) (*Chain, bool) {
	ps := r.requestPaths(req)
	for _, c := range r.manager.Chains() {
		for _, p := range ps {
			if doublestar.MatchUnvalidated(c.Pattern, p) {
				return c, true
			}
		}
	}

	return nil, false
}
