package routing

import (
	"errors"
	"fmt"
	"strings"
)

var (
	errEmptyFilterName  = errors.New("empty filter name")
	errUnclosedBracket  = errors.New("unclosed bracket")
	errUnexpectedChars  = errors.New("unexpected characters after the filter config")
	errUnbalancedQuotes = errors.New("unbalanced quotes")
)

// FilterRef is a reference to a registered filter in a chain definition,
// with the optional per-use config.
type FilterRef struct {
	Name   string
	Config string
}

func (r FilterRef) String() string {
	if r.Config == "" {
		return r.Name
	}

	return r.Name + "[" + r.Config + "]"
}

// ParseChainDefinition parses a chain definition, a comma separated list of
// filter references. A reference is the name of a filter, optionally
// followed by a per-use config in brackets:
//
//	invalidRequest, authcBasic, roles[admin, ops]
//
// Commas inside brackets or quotes don't separate references. A config
// wrapped entirely in quotes is unquoted. A blank definition contains no
// references.
func ParseChainDefinition(def string) ([]FilterRef, error) {
	if strings.TrimSpace(def) == "" {
		return nil, nil
	}

	tokens, err := splitTokens(def)
	if err != nil {
		return nil, fmt.Errorf("invalid chain definition %q: %w", def, err)
	}

	refs := make([]FilterRef, 0, len(tokens))
	for _, t := range tokens {
		ref, err := parseRef(t)
		if err != nil {
			return nil, fmt.Errorf("invalid chain definition %q: %w", def, err)
		}

		refs = append(refs, ref)
	}

	return refs, nil
}

func splitTokens(def string) ([]string, error) {
	var (
		tokens []string
		depth  int
		quote  byte
		start  int
	)

	for i := 0; i < len(def); i++ {
		c := def[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '[':
			depth++
		case c == ']':
			if depth > 0 {
				depth--
			}
		case c == ',' && depth == 0:
			tokens = append(tokens, def[start:i])
			start = i + 1
		}
	}

	if quote != 0 {
		return nil, errUnbalancedQuotes
	}

	if depth > 0 {
		return nil, errUnclosedBracket
	}

	return append(tokens, def[start:]), nil
}

func parseRef(token string) (FilterRef, error) {
	token = strings.TrimSpace(token)
	open := strings.IndexByte(token, '[')
	if open < 0 {
		if err := checkName(token); err != nil {
			return FilterRef{}, err
		}

		return FilterRef{Name: token}, nil
	}

	if !strings.HasSuffix(token, "]") {
		return FilterRef{}, errUnexpectedChars
	}

	name := strings.TrimSpace(token[:open])
	if err := checkName(name); err != nil {
		return FilterRef{}, err
	}

	return FilterRef{Name: name, Config: unquote(strings.TrimSpace(token[open+1 : len(token)-1]))}, nil
}

func checkName(name string) error {
	if name == "" {
		return errEmptyFilterName
	}

	if strings.ContainsAny(name, " \t\r\n[]\"'") {
		return fmt.Errorf("invalid filter name %q", name)
	}

	return nil
}

func unquote(s string) string {
	if len(s) < 2 {
		return s
	}

	if q := s[0]; (q == '"' || q == '\'') && s[len(s)-1] == q && strings.IndexByte(s[1:len(s)-1], q) < 0 {
		return s[1 : len(s)-1]
	}

	return s
}
