package flowid

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/pathguard/pathguard/filters"
)

const (
	Name                = filters.FlowIdName
	ReuseParameterValue = "reuse"
	HeaderName          = "X-Flow-Id"

	maxLength = 64
)

var flowIdRegex = regexp.MustCompile(`^[\w+/=\-]+$`)

type flowId struct {
	reuseExisting bool
}

// New creates a flow id filter that always generates a new flow id.
// With the path config reuse, e.g. flowId[reuse], a valid incoming flow
// id is kept.
func New() filters.Filter {
	return &flowId{}
}

func isValid(flowId string) bool {
	return len(flowId) <= maxLength && flowIdRegex.MatchString(flowId)
}

// NewFlowId generates a new flow id.
func NewFlowId() string {
	return uuid.NewString()
}

func (f *flowId) WithPathConfig(config string) (filters.Filter, error) {
	args := filters.SplitConfig(config)
	if len(args) > 1 {
		return nil, filters.ErrInvalidFilterParameters
	}

	var reuse bool
	if len(args) == 1 {
		reuse = strings.ToLower(args[0]) == ReuseParameterValue
	}

	return &flowId{reuseExisting: reuse}, nil
}

func (f *flowId) Filter(w http.ResponseWriter, r *http.Request, next filters.Handler) error {
	id := r.Header.Get(HeaderName)
	if !f.reuseExisting || !isValid(id) {
		id = NewFlowId()
		r.Header.Set(HeaderName, id)
	}

	w.Header().Set(HeaderName, id)
	return next.Serve(w, r)
}
