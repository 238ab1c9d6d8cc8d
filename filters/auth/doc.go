/*
Package auth provides the authentication and authorization filters.

# Basic

authcBasic checks the basic authentication credentials against an
htpasswd file, as used with Apache or nginx. The supported formats are
listed at https://github.com/abbot/go-http-auth. Assuming that the MD5
version will be used, new entries can be generated like

	htpasswd -nbm myName myPassword

The filter is declared and configured in the filters section:

	authc = authcBasic
	authc.htpasswd = /etc/pathguard/htpasswd
	authc.realm = My Website

# Bearer

authcBearer validates HS256 signed JWT bearer tokens from the
Authorization header. The sub claim becomes the name of the subject and
the roles claim its roles. Optionally, the iss claim is checked.

	jwt = authcBearer
	jwt.secret = $secret
	jwt.issuer = https://issuer.example.org

# Roles

roles checks the roles of the subject established by an authenticating
filter earlier in the chain:

	/admin/** = jwt, roles[admin]

Requests without a subject are rejected with 401, and requests whose
subject misses a role with 403.
*/
package auth
