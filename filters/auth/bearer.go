package auth

import (
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v4"

	"github.com/pathguard/pathguard/filters"
)

const (
	SecretProperty = "secret"
	IssuerProperty = "issuer"

	bearerChallenge = `Bearer realm="token"`
)

type claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

// Bearer validates HS256 signed JWT bearer tokens. The subject claim of
// the token becomes the subject of the request, and the roles claim its
// roles.
type Bearer struct {
	secret []byte
	issuer string
	parser *jwt.Parser
}

// NewBearer creates a bearer token filter. It needs the secret property
// before initialization, otherwise it fails every request.
func NewBearer() *Bearer {
	return &Bearer{}
}

// SetProperty sets the secret or the issuer property.
func (b *Bearer) SetProperty(name string, value any) error {
	s, err := stringProperty(name, value)
	if err != nil {
		return err
	}

	switch name {
	case SecretProperty:
		b.secret = []byte(s)
	case IssuerProperty:
		b.issuer = s
	default:
		return unknownProperty(name)
	}

	return nil
}

// Init prepares the token parser.
func (b *Bearer) Init(sc *filters.ServingContext) error {
	if len(b.secret) == 0 {
		sc.Logger().Debugf("%s: no %s property, filter not configured", filters.BearerAuthName, SecretProperty)
		return nil
	}

	b.parser = jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return nil
}

func (b *Bearer) keyFunc(*jwt.Token) (any, error) {
	return b.secret, nil
}

func (b *Bearer) validate(token string) (*claims, error) {
	c := &claims{}
	if _, err := b.parser.ParseWithClaims(token, c, b.keyFunc); err != nil {
		return nil, err
	}

	if b.issuer != "" && !c.VerifyIssuer(b.issuer, true) {
		return nil, fmt.Errorf("invalid issuer: %s", c.Issuer)
	}

	if c.Subject == "" {
		return nil, fmt.Errorf("missing subject")
	}

	return c, nil
}

func (b *Bearer) Filter(w http.ResponseWriter, r *http.Request, next filters.Handler) error {
	if b.parser == nil {
		return fmt.Errorf("%s: %w", filters.BearerAuthName, errNotConfigured)
	}

	token, err := getToken(r)
	if err != nil {
		unauthorized(w, "", missingBearerToken, bearerChallenge)
		return nil
	}

	c, err := b.validate(token)
	if err != nil {
		unauthorized(w, "", invalidToken, bearerChallenge+`, error="invalid_token"`)
		return nil
	}

	filters.SetState(r, filters.AuthUserKey, c.Subject)
	return next.Serve(w, WithSubject(r, &Subject{Name: c.Subject, Roles: c.Roles}))
}
