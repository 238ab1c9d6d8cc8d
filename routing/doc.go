/*
Package routing implements the default chain manager and the path matching
resolver.

The Manager holds the named filters and compiles chain definitions into
filter chains, stored by path pattern. A chain definition is a comma
separated list of filter names, where every name may be followed by a
per-use config in brackets:

	/admin/** -> invalidRequest, authcBasic, roles[admin]
	/public/** -> anon

The Resolver selects the chain of the first pattern that matches the path
of an incoming request, in the order the chains were created.
*/
package routing
