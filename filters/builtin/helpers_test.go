package builtin

import orderedmap "github.com/wk8/go-ordered-map/v2"

func objectsSection(kv ...string) *orderedmap.OrderedMap[string, string] {
	s := orderedmap.New[string, string]()
	for i := 0; i+1 < len(kv); i += 2 {
		s.Set(kv[i], kv[i+1])
	}

	return s
}
