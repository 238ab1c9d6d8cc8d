package objects

import (
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	referencePrefix = "$"
	escapedPrefix   = `\$`
	propertySep     = "."
)

var (
	// ErrUnknownObject is returned when a declaration references an
	// object that doesn't exist.
	ErrUnknownObject = errors.New("unknown object")

	// ErrUnknownKind is returned when an object is declared with a kind
	// that is not registered.
	ErrUnknownKind = errors.New("unknown object kind")

	// ErrNotConfigurable is returned when a property is set on an object
	// that doesn't implement PropertySetter.
	ErrNotConfigurable = errors.New("object does not accept properties")

	// ErrInvalidDeclaration is returned for malformed keys or values.
	ErrInvalidDeclaration = errors.New("invalid declaration")
)

// Constructor creates a new object of a kind.
type Constructor func() any

// Kinds maps the kind names to their constructors.
type Kinds map[string]Constructor

// PropertySetter is implemented by the objects accepting properties.
// The value is either a string, or a referenced object.
type PropertySetter interface {
	SetProperty(name string, value any) error
}

// Builder builds the objects declared in a section.
type Builder struct {
	kinds Kinds
	log   log.FieldLogger
}

// NewBuilder creates a builder for the registered kinds.
func NewBuilder(k Kinds) *Builder {
	return &Builder{kinds: k, log: log.StandardLogger()}
}

// WithLogger sets the logger of the builder.
func (b *Builder) WithLogger(l log.FieldLogger) *Builder {
	b.log = l
	return b
}

type buildState struct {
	context *orderedmap.OrderedMap[string, any]
	objects *orderedmap.OrderedMap[string, any]
}

func (s *buildState) lookup(name string) (any, bool) {
	if o, ok := s.objects.Get(name); ok {
		return o, true
	}

	if s.context != nil {
		return s.context.Get(name)
	}

	return nil, false
}

func (s *buildState) resolve(value string) (any, error) {
	switch {
	case strings.HasPrefix(value, escapedPrefix):
		return value[1:], nil
	case strings.HasPrefix(value, referencePrefix):
		name := value[len(referencePrefix):]
		o, ok := s.lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownObject, name)
		}

		return o, nil
	default:
		return value, nil
	}
}

// BuildObjects processes the declarations of the section in order, and
// returns the declared objects. The objects of the context can be
// referenced, and they can receive properties, but they are not part of
// the result unless declared again.
func (b *Builder) BuildObjects(section *orderedmap.OrderedMap[string, string], context *orderedmap.OrderedMap[string, any]) (*orderedmap.OrderedMap[string, any], error) {
	s := &buildState{context: context, objects: orderedmap.New[string, any]()}
	if section == nil {
		return s.objects, nil
	}

	for p := section.Oldest(); p != nil; p = p.Next() {
		key, value := strings.TrimSpace(p.Key), strings.TrimSpace(p.Value)
		var err error
		if name, property, ok := strings.Cut(key, propertySep); ok {
			err = b.setProperty(s, name, property, value)
		} else {
			err = b.declare(s, key, value)
		}

		if err != nil {
			return nil, fmt.Errorf("failed to process %s: %w", key, err)
		}
	}

	return s.objects, nil
}

func (b *Builder) declare(s *buildState, name, value string) error {
	if name == "" || value == "" {
		return ErrInvalidDeclaration
	}

	if strings.HasPrefix(value, referencePrefix) {
		o, err := s.resolve(value)
		if err != nil {
			return err
		}

		s.objects.Set(name, o)
		return nil
	}

	c, ok := b.kinds[value]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, value)
	}

	if _, redeclared := s.objects.Set(name, c()); redeclared {
		b.log.Warnf("object %s redeclared", name)
	}

	b.log.Debugf("object %s created, kind: %s", name, value)
	return nil
}

func (b *Builder) setProperty(s *buildState, name, property, value string) error {
	if name == "" || property == "" {
		return ErrInvalidDeclaration
	}

	o, ok := s.lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownObject, name)
	}

	ps, ok := o.(PropertySetter)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotConfigurable, name)
	}

	v, err := s.resolve(value)
	if err != nil {
		return err
	}

	return ps.SetProperty(property, v)
}
