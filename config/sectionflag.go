package config

import (
	"fmt"

	"gopkg.in/yaml.v2"

	"github.com/pathguard/pathguard/chainconfig"
)

// sectionFlag holds an ordered configuration section. It can be set from
// the command line as an inline yaml mapping, e.g.
// -urls='{/admin/**: "authcBasic, roles[admin]", /**: anon}', or from the
// config file as a yaml mapping. The order of the keys is preserved.
type sectionFlag struct {
	items yaml.MapSlice
	value string // only for Set
}

func (sf *sectionFlag) Set(value string) error {
	var items yaml.MapSlice
	if err := yaml.Unmarshal([]byte(value), &items); err != nil {
		return fmt.Errorf("failed to parse yaml: %w", err)
	}

	if _, err := toSection(items); err != nil {
		return err
	}

	sf.items = items
	sf.value = value
	return nil
}

func (sf *sectionFlag) UnmarshalYAML(unmarshal func(any) error) error {
	var items yaml.MapSlice
	if err := unmarshal(&items); err != nil {
		return err
	}

	if _, err := toSection(items); err != nil {
		return err
	}

	sf.items = items
	return nil
}

func (sf *sectionFlag) String() string {
	if sf == nil {
		return ""
	}

	return sf.value
}

// Section returns the items as a configuration section, nil when empty.
func (sf *sectionFlag) Section() *chainconfig.Section {
	if sf == nil || len(sf.items) == 0 {
		return nil
	}

	s, _ := toSection(sf.items)
	return s
}

func toSection(items yaml.MapSlice) (*chainconfig.Section, error) {
	s := chainconfig.NewSection()
	for _, item := range items {
		k, err := scalar(item.Key)
		if err != nil {
			return nil, fmt.Errorf("invalid section key: %w", err)
		}

		v, err := scalar(item.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid value of %s: %w", k, err)
		}

		s.Set(k, v)
	}

	return s, nil
}

func scalar(v any) (string, error) {
	switch vt := v.(type) {
	case nil:
		return "", nil
	case string:
		return vt, nil
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(vt), nil
	default:
		return "", fmt.Errorf("expected a scalar, got: %v", v)
	}
}
