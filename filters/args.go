package filters

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SplitConfig splits a per-use filter configuration on commas. Commas
// inside single or double quotes don't split, and the quotes around the
// individual values are removed. Whitespace around the values is trimmed.
// An empty or blank config results in no values.
func SplitConfig(config string) []string {
	if strings.TrimSpace(config) == "" {
		return nil
	}

	var (
		values  []string
		current strings.Builder
		quote   byte
	)

	for i := 0; i < len(config); i++ {
		c := config[i]
		switch {
		case quote != 0 && c == quote:
			quote = 0
		case quote != 0:
			current.WriteByte(c)
		case c == '"' || c == '\'':
			quote = c
		case c == ',':
			values = append(values, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}

	return append(values, strings.TrimSpace(current.String()))
}

func Float64Arg(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a float64", s)
	}

	return f, nil
}

func IntArg(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", s)
	}

	return i, nil
}

// Converts string argument into time.Duration using time.ParseDuration.
// Returns error if duration is negative.
func DurationArg(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}

	if d < 0 {
		return 0, fmt.Errorf("duration %v is negative", s)
	}

	return d, nil
}

type ConfigArgs struct {
	args []string
	pos  int
	errs []error
}

// Creates a path config arguments wrapper that provides methods
// to sequentially access and convert arguments.
// Every call of non-optional accessor method increases expected argument counter.
// The Err() method returns non nil error if expected argument counter
// does not match input argument array length or if there were conversion errors.
//
// Example usage:
//
//	a := Args("10, 20")
//	rps, burst, err := a.Float64(), a.OptionalInt(1), a.Err()
//	if err != nil {
//	    return err
//	}
func Args(config string) *ConfigArgs {
	return &ConfigArgs{args: SplitConfig(config)}
}

func (a *ConfigArgs) Len() int { return len(a.args) }

func (a *ConfigArgs) String() (_ string) {
	if x, ok := a.next(); ok {
		return x
	}
	return
}

func (a *ConfigArgs) OptionalString(defaultValue string) string {
	if a.pos >= len(a.args) {
		return defaultValue
	}
	return a.String()
}

func (a *ConfigArgs) Strings() []string {
	if a.pos >= len(a.args) {
		return nil
	}

	result := a.args[a.pos:]
	a.pos = len(a.args)
	return result
}

func (a *ConfigArgs) Float64() (_ float64) {
	if x, ok := a.next(); ok {
		if f, err := Float64Arg(x); err == nil {
			return f
		} else {
			a.error(err)
		}
	}
	return
}

func (a *ConfigArgs) OptionalFloat64(defaultValue float64) float64 {
	if a.pos >= len(a.args) {
		return defaultValue
	}
	return a.Float64()
}

func (a *ConfigArgs) Int() (_ int) {
	if x, ok := a.next(); ok {
		if i, err := IntArg(x); err == nil {
			return i
		} else {
			a.error(err)
		}
	}
	return
}

func (a *ConfigArgs) OptionalInt(defaultValue int) int {
	if a.pos >= len(a.args) {
		return defaultValue
	}
	return a.Int()
}

func (a *ConfigArgs) Duration() (_ time.Duration) {
	if x, ok := a.next(); ok {
		if d, err := DurationArg(x); err == nil {
			return d
		} else {
			a.error(err)
		}
	}
	return
}

func (a *ConfigArgs) OptionalDuration(defaultValue time.Duration) time.Duration {
	if a.pos >= len(a.args) {
		return defaultValue
	}
	return a.Duration()
}

func (a *ConfigArgs) Err() error {
	var errs []string
	if a.pos != len(a.args) {
		if a.pos == 1 {
			errs = append(errs, "expects 1 argument")
		} else {
			errs = append(errs, fmt.Sprintf("expects %d arguments", a.pos))
		}
	}
	for _, err := range a.errs {
		errs = append(errs, err.Error())
	}

	if len(errs) == 0 {
		return nil
	} else {
		return errors.New(strings.Join(errs, ", "))
	}
}

func (a *ConfigArgs) next() (x string, ok bool) {
	if a.pos < len(a.args) {
		x, ok = a.args[a.pos], true
	}
	a.pos++
	return
}

func (a *ConfigArgs) error(err error) {
	a.errs = append(a.errs, err)
}
