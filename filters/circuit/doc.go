/*
Package circuit provides a filter protecting the rest of a chain with a
circuit breaker.

The breaker counts the consecutive failures of the requests passing
through it. A request fails when the rest of the chain returns an error
or the response status is 5xx. When the count reaches the configured
limit, the breaker opens, and the requests are rejected with 503 until
the timeout passes. Then a limited number of requests is allowed in the
half open state, and the breaker closes when they succeed.

	/api/** = breaker[5, 30s, 1], authc

The implementation is based on github.com/sony/gobreaker. Every chain
using the filter has its own breaker.
*/
package circuit
