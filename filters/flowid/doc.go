/*
Package flowid implements a filter used for identifying incoming requests
through their complete lifecycle for logging and monitoring.

Flow ids let you correlate the logs for a given request against the
upstream application logs for that same request. The filter sets a
unique flow id in the X-Flow-Id header of the request, and returns the
same id in the response.

The filter takes an optional path config. When set to reuse, a valid
X-Flow-Id of the incoming request is kept:

	/api/** = flowId[reuse], authc

A flow id is valid when it is not longer than 64 characters and it
consists of word characters and +/=- only.
*/
package flowid
