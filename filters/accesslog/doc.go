/*
Package accesslog provides a filter writing an access log entry for every
request passing through it, after the rest of the chain was executed.

The entries are written in the format of the logging package, including
the authenticated user and the pattern of the chain. Placed first in the
chain, the filter logs the requests rejected by the later filters, too:

	/** = accessLog, authc

Optionally, the filter accepts status code prefixes, and logs only the
requests whose response status starts with one of them:

	accessLog[4, 5]
*/
package accesslog
