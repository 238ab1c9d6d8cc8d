package auth

import (
	"fmt"
	"net/http"
	"os"

	auth "github.com/abbot/go-http-auth"

	"github.com/pathguard/pathguard/filters"
)

const (
	ForceBasicAuthHeaderValue = "Basic realm="
	DefaultRealmName          = "Basic Realm"

	HtpasswdProperty = "htpasswd"
	RealmProperty    = "realm"
)

// Basic checks the basic authentication credentials of the requests
// against an htpasswd file. The authenticated user is stored as the
// subject of the request.
type Basic struct {
	htpasswd        string
	realm           string
	authenticator   *auth.BasicAuth
	realmDefinition string
}

// NewBasic creates a basic authentication filter. It needs the htpasswd
// property before initialization, otherwise it fails every request.
func NewBasic() *Basic {
	return &Basic{realm: DefaultRealmName}
}

// SetProperty sets the htpasswd or the realm property.
func (b *Basic) SetProperty(name string, value any) error {
	s, err := stringProperty(name, value)
	if err != nil {
		return err
	}

	switch name {
	case HtpasswdProperty:
		b.htpasswd = s
	case RealmProperty:
		b.realm = s
	default:
		return unknownProperty(name)
	}

	return nil
}

// Init checks the htpasswd file and creates the authenticator.
func (b *Basic) Init(sc *filters.ServingContext) error {
	if b.htpasswd == "" {
		sc.Logger().Debugf("%s: no %s property, filter not configured", filters.BasicAuthName, HtpasswdProperty)
		return nil
	}

	if _, err := os.Stat(b.htpasswd); err != nil {
		return fmt.Errorf("stat failed for %q: %w", b.htpasswd, err)
	}

	htpasswd := auth.HtpasswdFileProvider(b.htpasswd)
	b.authenticator = auth.NewBasicAuthenticator(b.realm, htpasswd)
	b.realmDefinition = ForceBasicAuthHeaderValue + `"` + b.realm + `"`
	return nil
}

func (b *Basic) Filter(w http.ResponseWriter, r *http.Request, next filters.Handler) error {
	if b.authenticator == nil {
		return fmt.Errorf("%s: %w", filters.BasicAuthName, errNotConfigured)
	}

	if _, _, ok := r.BasicAuth(); !ok {
		unauthorized(w, "", missingCredentials, b.realmDefinition)
		return nil
	}

	username := b.authenticator.CheckAuth(r)
	if username == "" {
		unauthorized(w, "", invalidCredentials, b.realmDefinition)
		return nil
	}

	filters.SetState(r, filters.AuthUserKey, username)
	return next.Serve(w, WithSubject(r, &Subject{Name: username}))
}
