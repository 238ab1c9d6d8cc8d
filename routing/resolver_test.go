package routing

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver(t *testing.T) {
	m := NewManager(Options{Filters: defaults(&testFilter{name: "anon"}, &testFilter{name: "authc"})})
	for _, c := range [][2]string{
		{"/admin/**", "authc"},
		{"/public/**", "anon"},
		{"/*.txt", "anon"},
		{"/**", "authc"},
	} {
		require.NoError(t, m.CreateChain(c[0], c[1]))
	}

	for _, tt := range []struct {
		path    string
		pattern string
	}{
		{"/admin", "/admin/**"},
		{"/admin/", "/admin/**"},
		{"/admin/users/1", "/admin/**"},
		{"/public/css/main.css", "/public/**"},
		{"/robots.txt", "/*.txt"},
		{"/docs/robots.txt", "/**"},
		{"/", "/**"},
		{"/public/../admin/x", "/admin/**"},
		{"/adminx", "/**"},
	} {
		t.Run(tt.path, func(t *testing.T) {
			r := NewResolver(m, ResolverOptions{})
			c, ok := r.Resolve(httptest.NewRequest("GET", tt.path, nil))
			require.True(t, ok)
			if c.Pattern != tt.pattern {
				t.Errorf("expected pattern %s, got %s", tt.pattern, c.Pattern)
			}
		})
	}
}

func TestResolverFirstMatchWins(t *testing.T) {
	m := NewManager(Options{Filters: defaults(&testFilter{name: "anon"}, &testFilter{name: "authc"})})
	require.NoError(t, m.CreateChain("/**", "anon"))
	require.NoError(t, m.CreateChain("/admin/**", "authc"))

	c, ok := NewResolver(m, ResolverOptions{}).Resolve(httptest.NewRequest("GET", "/admin/x", nil))
	require.True(t, ok)
	require.Equal(t, "/**", c.Pattern)
}

func TestResolverNoMatch(t *testing.T) {
	m := NewManager(Options{Filters: defaults(&testFilter{name: "anon"})})
	require.NoError(t, m.CreateChain("/api/*", "anon"))

	r := NewResolver(m, ResolverOptions{})
	_, ok := r.Resolve(httptest.NewRequest("GET", "/other", nil))
	require.False(t, ok)

	_, ok = r.Resolve(httptest.NewRequest("GET", "/api/v1/users", nil))
	require.False(t, ok)
}

func TestResolverTrailingSlash(t *testing.T) {
	m := NewManager(Options{Filters: defaults(&testFilter{name: "anon"}, &testFilter{name: "authc"})})
	require.NoError(t, m.CreateChain("/admin", "authc"))
	require.NoError(t, m.CreateChain("/docs/", "authc"))
	require.NoError(t, m.CreateChain("/**", "anon"))

	r := NewResolver(m, ResolverOptions{})
	for _, tt := range []struct {
		path    string
		pattern string
	}{
		{"/admin", "/admin"},
		{"/admin/", "/admin"},
		{"/admin//", "/admin"},
		{"/admin/.", "/admin"},
		{"/admin/x/..", "/admin"},
		{"/docs", "/docs/"},
		{"/docs/", "/docs/"},
		{"/", "/**"},
		{"/administration/", "/**"},
	} {
		t.Run(tt.path, func(t *testing.T) {
			c, ok := r.Resolve(httptest.NewRequest("GET", tt.path, nil))
			require.True(t, ok)
			assert.Equal(t, tt.pattern, c.Pattern)
		})
	}
}

func TestResolverStrictTrailingSlash(t *testing.T) {
	m := NewManager(Options{Filters: defaults(&testFilter{name: "anon"})})
	require.NoError(t, m.CreateChain("/api/users", "anon"))

	r := NewResolver(m, ResolverOptions{StrictTrailingSlash: true})
	_, ok := r.Resolve(httptest.NewRequest("GET", "/api/users", nil))
	assert.True(t, ok)

	_, ok = r.Resolve(httptest.NewRequest("GET", "/api/users/", nil))
	assert.False(t, ok)
}
