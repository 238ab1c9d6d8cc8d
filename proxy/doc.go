/*
Package proxy executes the filter chains.

A Chain runs a list of filters in front of the original handler, for a
single request. Each filter receives the chain as its continuation: when
the filter calls it, the next filter runs, and after the last filter the
original handler. A filter that doesn't call the continuation ends the
processing of the request, typically after writing a rejection:

	c, err := proxy.NewChain(orig, []filters.Filter{authc, roles})
	if err != nil {
		return err
	}

	err = c.Serve(w, r)

The original handler is called at most once per chain.

The Proxy is an http.Handler that selects the chain of every request by
its path with a resolver, and executes it. Requests not matching any
chain are passed to the original handler directly. When a chain returns
an error, the error is logged, and if no response was written yet, the
client receives 500.
*/
package proxy
