/*
Package builtin provides the default filter set, and the object kinds of
the filters, used when declaring new filter instances in the
configuration.
*/
package builtin

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/pathguard/pathguard/filters"
	"github.com/pathguard/pathguard/filters/accesslog"
	"github.com/pathguard/pathguard/filters/auth"
	"github.com/pathguard/pathguard/filters/circuit"
	"github.com/pathguard/pathguard/filters/flowid"
	"github.com/pathguard/pathguard/filters/ratelimit"
	"github.com/pathguard/pathguard/objects"
)

// Kinds returns the constructors of the builtin filters, by the same
// names as the default filters.
func Kinds() objects.Kinds {
	return objects.Kinds{
		filters.AnonName:           func() any { return NewAnon() },
		filters.BasicAuthName:      func() any { return auth.NewBasic() },
		filters.BearerAuthName:     func() any { return auth.NewBearer() },
		filters.RolesName:          func() any { return auth.NewRoles() },
		filters.SSLName:            func() any { return NewSSL() },
		filters.InvalidRequestName: func() any { return NewInvalidRequest() },
		filters.FlowIdName:         func() any { return flowid.New() },
		filters.RateLimitName:      func() any { return ratelimit.New() },
		filters.BreakerName:        func() any { return circuit.New() },
		filters.AccessLogName:      func() any { return accesslog.New() },
	}
}

// Defaults returns a new instance of the default filter set, in a fixed
// order.
func Defaults() *orderedmap.OrderedMap[string, filters.Filter] {
	kinds := Kinds()
	d := orderedmap.New[string, filters.Filter](len(kinds))
	for _, name := range []string{
		filters.AnonName,
		filters.BasicAuthName,
		filters.BearerAuthName,
		filters.RolesName,
		filters.SSLName,
		filters.InvalidRequestName,
		filters.FlowIdName,
		filters.RateLimitName,
		filters.BreakerName,
		filters.AccessLogName,
	} {
		d.Set(name, kinds[name]().(filters.Filter))
	}

	return d
}
