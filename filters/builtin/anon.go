package builtin

import (
	"net/http"

	"github.com/pathguard/pathguard/filters"
)

type anon struct{}

// NewAnon creates a filter that lets every request pass, used for the
// paths available without authentication:
//
//	/public/** = anon
func NewAnon() filters.Filter { return anon{} }

func (anon) Filter(w http.ResponseWriter, r *http.Request, next filters.Handler) error {
	return next.Serve(w, r)
}
