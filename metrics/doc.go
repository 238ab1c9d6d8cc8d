/*
Package metrics implements the collection of the filter chain metrics.

The collected metrics include the time spent in the chains per pattern,
the number of chains terminated by one of their filters, the number of
chain errors and the number of requests not matching any chain.

The Prometheus backend exposes the metrics in the text format through the
handler returned by CreateHandler. Use Void when no metrics are needed.
*/
package metrics
