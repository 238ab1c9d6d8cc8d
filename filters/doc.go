/*
Package filters contains the contracts of the request filters.

A filter sees every request passing through a chain that references it.
It receives the response writer, the request and the rest of the chain as
a Handler. Calling the handler continues the chain, not calling it
terminates the chain:

	func (f *myFilter) Filter(w http.ResponseWriter, r *http.Request, next filters.Handler) error {
		if r.Header.Get("X-Secret") != f.secret {
			w.WriteHeader(http.StatusForbidden)
			return nil
		}

		return next.Serve(w, r)
	}

Filters are registered by name in a chain manager, and referenced by name
in chain definitions. The default filters of the platform are found in the
builtin subpackage.

Filters that need a startup hook implement Initializer. The hook receives
the ServingContext, and is called once, when the registry that holds the
filter is activated. Filters accepting per-use configuration in a chain
definition, e.g. roles[admin], implement PathConfigurable.
*/
package filters
