/*
Package ratelimit provides a filter limiting the rate of the requests
passing through a chain.

The limiter is a token bucket, see golang.org/x/time/rate. The rate and
the burst can be set per chain:

	/api/** = rateLimit[100, 200], authc

or as properties of a declared instance:

	limit = rateLimit
	limit.rps = 100
	limit.burst = 200

When the limit is exceeded, the request is rejected with 429 and a
Retry-After header.
*/
package ratelimit
