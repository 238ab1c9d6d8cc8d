package builtin

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/pathguard/pathguard/filters"
)

const (
	BlockSemicolonProperty = "blockSemicolon"
	BlockBackslashProperty = "blockBackslash"
	BlockNonASCIIProperty  = "blockNonAscii"
)

// InvalidRequest rejects the requests whose path contains semicolons,
// backslashes or non-ASCII characters, in raw or in percent-encoded
// form, with 400. Each check can be disabled with a property.
type InvalidRequest struct {
	blockSemicolon bool
	blockBackslash bool
	blockNonASCII  bool
}

// NewInvalidRequest creates a filter with every check enabled.
func NewInvalidRequest() *InvalidRequest {
	return &InvalidRequest{blockSemicolon: true, blockBackslash: true, blockNonASCII: true}
}

// SetProperty enables or disables a check.
func (ir *InvalidRequest) SetProperty(name string, value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("%w: property %s expects a string", filters.ErrInvalidFilterParameters, name)
	}

	b, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("%w: %w", filters.ErrInvalidFilterParameters, err)
	}

	switch name {
	case BlockSemicolonProperty:
		ir.blockSemicolon = b
	case BlockBackslashProperty:
		ir.blockBackslash = b
	case BlockNonASCIIProperty:
		ir.blockNonASCII = b
	default:
		return fmt.Errorf("%w: unknown property %s", filters.ErrInvalidFilterParameters, name)
	}

	return nil
}

// anything but printable ASCII
func containsNonASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return true
		}
	}

	return false
}

func (ir *InvalidRequest) valid(r *http.Request) bool {
	raw := r.URL.EscapedPath()
	upper := strings.ToUpper(raw)
	decoded := r.URL.Path

	if ir.blockSemicolon && (strings.Contains(decoded, ";") || strings.Contains(upper, "%3B")) {
		return false
	}

	if ir.blockBackslash && (strings.Contains(decoded, `\`) || strings.Contains(upper, "%5C")) {
		return false
	}

	if ir.blockNonASCII && containsNonASCII(decoded) {
		return false
	}

	return true
}

func (ir *InvalidRequest) Filter(w http.ResponseWriter, r *http.Request, next filters.Handler) error {
	if !ir.valid(r) {
		log.Debugf("%s: request rejected: %q", filters.InvalidRequestName, r.URL.EscapedPath())
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return nil
	}

	return next.Serve(w, r)
}
