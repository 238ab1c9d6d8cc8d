package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func sectionPairs(f *sectionFlag) [][2]string {
	s := f.Section()
	if s == nil {
		return nil
	}

	var pairs [][2]string
	for p := s.Oldest(); p != nil; p = p.Next() {
		pairs = append(pairs, [2]string{p.Key, p.Value})
	}

	return pairs
}

func TestSectionFlag(t *testing.T) {
	t.Run("set", func(t *testing.T) {
		f := &sectionFlag{}
		v := `{/admin/**: "authcBasic, roles[admin]", /login: anon, /**: anon}`
		require.NoError(t, f.Set(v))

		assert.Equal(t, [][2]string{
			{"/admin/**", "authcBasic, roles[admin]"},
			{"/login", "anon"},
			{"/**", "anon"},
		}, sectionPairs(f))
		assert.Equal(t, v, f.String())
	})

	t.Run("set scalars", func(t *testing.T) {
		f := &sectionFlag{}
		require.NoError(t, f.Set(`{rateLimit.rps: 2.5, rateLimit.burst: 5, invalidRequest.blockSemicolon: false, empty: }`))

		assert.Equal(t, [][2]string{
			{"rateLimit.rps", "2.5"},
			{"rateLimit.burst", "5"},
			{"invalidRequest.blockSemicolon", "false"},
			{"empty", ""},
		}, sectionPairs(f))
	})

	t.Run("set empty", func(t *testing.T) {
		f := &sectionFlag{}
		require.NoError(t, f.Set(""))
		assert.Nil(t, f.Section())
	})

	t.Run("set invalid", func(t *testing.T) {
		f := &sectionFlag{}
		assert.Error(t, f.Set(`[foo, bar]`))
		assert.Error(t, f.Set(`{/**: [anon, authcBasic]}`))
		assert.Nil(t, f.Section())
		assert.Equal(t, "", f.String())
	})

	t.Run("unmarshal", func(t *testing.T) {
		var cfg struct {
			URLs *sectionFlag `yaml:"urls"`
		}

		cfg.URLs = &sectionFlag{}
		require.NoError(t, yaml.Unmarshal([]byte("urls:\n  /b/**: anon\n  /a/**: authcBearer\n"), &cfg))

		assert.Equal(t, [][2]string{
			{"/b/**", "anon"},
			{"/a/**", "authcBearer"},
		}, sectionPairs(cfg.URLs))
	})

	t.Run("unmarshal invalid", func(t *testing.T) {
		var cfg struct {
			URLs *sectionFlag `yaml:"urls"`
		}

		cfg.URLs = &sectionFlag{}
		assert.Error(t, yaml.Unmarshal([]byte("urls:\n  /b/**: {foo: bar}\n"), &cfg))
	})

	t.Run("nil", func(t *testing.T) {
		var f *sectionFlag
		assert.Equal(t, "", f.String())
		assert.Nil(t, f.Section())
	})
}
