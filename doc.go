/*
Package pathguard provides a path based security filter chain for HTTP
applications, with the chains defined in configuration.

Pathguard works as an HTTP reverse proxy in front of an application. Every
incoming request is matched against an ordered list of path patterns, and
the filter chain of the first matching pattern runs before the request is
passed to the application. The filters can authenticate the request,
check the roles of the authenticated subject, enforce https, reject
malformed requests, limit the request rate, or break the circuit when the
application fails. Any filter can terminate the chain by writing the
response itself.

The filters are named objects. A set of default filters is always
available, and the configuration can declare further ones or configure
the defaults through their properties. The chains reference the filters
by name, optionally with a per-chain configuration in brackets.

# Quickstart

Create a configuration file:

	cat > pathguard.yaml <<EOF
	backend: http://localhost:8080
	filters:
	  authcBasic.htpasswd: /etc/pathguard/htpasswd
	urls:
	  /login: anon
	  /admin/**: ssl, authcBasic, roles[admin]
	  /api/**: flowId, rateLimit[20], authcBearer
	  /**: anon
	EOF

Start pathguard and make an HTTP request:

	pathguard -config-file pathguard.yaml &
	curl -u admin:secret localhost:9090/admin/

# Chain Definitions

A chain definition is a comma separated list of filter names, each
optionally followed by a configuration in brackets:

	authcBasic, roles[admin, ops], rateLimit[10, 20]

The filters run in the order of the definition. The configuration in the
brackets is passed to the filter, and a filter not accepting configuration
fails the chain creation.

The path patterns are glob patterns, where a single star matches within a
path segment, and a double star matches any number of segments:

	/admin/**     matches /admin, /admin/ and /admin/users/1
	/*.txt        matches /robots.txt but not /docs/robots.txt

# Object Declarations

The filters section declares objects with name: kind entries, and sets
their properties with name.property: value entries. Property values
starting with $ reference another object:

	filters:
	  internalLimit: rateLimit
	  internalLimit.rps: 100
	  authcBasic.realm: internal

The section is deprecated in favor of a main section in future releases,
and its use is logged as a warning.

# Support Listener

The support listener exposes the Prometheus metrics on /metrics, and the
health state on /healthz. During a graceful shutdown, the health check
fails first, and the listeners are closed only after the configured wait
period.
*/
package pathguard
