package loader

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/goliatone/go-formbind/pkg/forms"
	"github.com/goliatone/go-formbind/pkg/validators"
)

var (
	// ErrUnknownValidator is returned when a document names a validator the
	// registry does not know.
	ErrUnknownValidator = errors.New("loader: unknown validator")
	// ErrInvalidValidatorSpec is returned for malformed validator entries or
	// arguments.
	ErrInvalidValidatorSpec = errors.New("loader: invalid validator spec")
)

// Factory builds a validator from its document arguments. Scalar and list
// arguments arrive under the "value" key; bare names pass an empty map.
type Factory func(args map[string]any) (forms.Validator, error)

// Registry maps validator names used in documents to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a registry with the validators of pkg/validators
// registered under snake_case names.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.registerBuiltins()
	return r
}

// Register adds or replaces a factory.
func (r *Registry) Register(name string, factory Factory) error {
	name = normalizeName(name)
	if name == "" {
		return fmt.Errorf("loader: validator name is required")
	}
	if factory == nil {
		return fmt.Errorf("loader: validator %q factory is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
	return nil
}

// MustRegister mirrors Register but panics on error.
func (r *Registry) MustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// Names returns the registered validator names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build turns one document entry into a validator. The entry is either a
// bare name ("email") or a single-key map ({length: {min: 2}}).
func (r *Registry) Build(spec any) (forms.Validator, error) {
	name, args, err := splitSpec(spec)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownValidator, name)
	}
	v, err := factory(args)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValidatorSpec, name, err)
	}
	return v, nil
}

func splitSpec(spec any) (string, map[string]any, error) {
	switch value := spec.(type) {
	case string:
		return normalizeName(value), map[string]any{}, nil
	case map[string]any:
		if len(value) != 1 {
			return "", nil, fmt.Errorf("%w: expected a single validator name, got %d keys", ErrInvalidValidatorSpec, len(value))
		}
		for name, raw := range value {
			args, err := normalizeArgs(raw)
			if err != nil {
				return "", nil, err
			}
			return normalizeName(name), args, nil
		}
	}
	return "", nil, fmt.Errorf("%w: unsupported entry %T", ErrInvalidValidatorSpec, spec)
}

func normalizeArgs(raw any) (map[string]any, error) {
	switch value := raw.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		out := make(map[string]any, len(value))
		for key, v := range value {
			out[normalizeName(key)] = v
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(value))
		for key, v := range value {
			out[normalizeName(cast.ToString(key))] = v
		}
		return out, nil
	default:
		return map[string]any{"value": value}, nil
	}
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(name, "-", "_")
}

func messageOpts(args map[string]any) []validators.Option {
	if message := cast.ToString(args["message"]); message != "" {
		return []validators.Option{validators.WithMessage(message)}
	}
	return nil
}

func first(args map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		if value, ok := args[key]; ok && value != nil {
			return value, true
		}
	}
	return nil, false
}

func intBound(args map[string]any, key string) (int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return validators.Unbounded, nil
	}
	n, err := cast.ToIntE(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %v", key, raw)
	}
	return n, nil
}

// numberBound returns the bound as a decimal string so large or fractional
// bounds survive YAML and JSON number decoding unchanged.
func numberBound(args map[string]any, key string) (any, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(cast.ToString(raw)))
	if err != nil {
		return nil, fmt.Errorf("%s must be a number, got %v", key, raw)
	}
	return d.String(), nil
}

func simple(build func(opts ...validators.Option) forms.Validator) Factory {
	return func(args map[string]any) (forms.Validator, error) {
		return build(messageOpts(args)...), nil
	}
}

func (r *Registry) registerBuiltins() {
	r.MustRegister("data_required", simple(func(opts ...validators.Option) forms.Validator {
		return validators.DataRequired(opts...)
	}))
	r.MustRegister("input_required", simple(func(opts ...validators.Option) forms.Validator {
		return validators.InputRequired(opts...)
	}))
	r.MustRegister("optional", func(map[string]any) (forms.Validator, error) {
		return validators.Optional(), nil
	})
	r.MustRegister("readonly", simple(func(opts ...validators.Option) forms.Validator {
		return validators.ReadOnly(opts...)
	}))
	r.MustRegister("disabled", simple(func(opts ...validators.Option) forms.Validator {
		return validators.Disabled(opts...)
	}))
	r.MustRegister("email", simple(func(opts ...validators.Option) forms.Validator {
		return validators.Email(opts...)
	}))
	r.MustRegister("url", simple(func(opts ...validators.Option) forms.Validator {
		return validators.URL(opts...)
	}))
	r.MustRegister("uuid", simple(func(opts ...validators.Option) forms.Validator {
		return validators.UUID(opts...)
	}))
	r.MustRegister("mac_address", simple(func(opts ...validators.Option) forms.Validator {
		return validators.MacAddress(opts...)
	}))
	r.MustRegister("ip_address", func(args map[string]any) (forms.Validator, error) {
		ipv6, err := cast.ToBoolE(firstOr(args, false, "ipv6", "value"))
		if err != nil {
			return nil, fmt.Errorf("ipv6 must be a boolean: %w", err)
		}
		return validators.IPAddress(ipv6, messageOpts(args)...), nil
	})
	r.MustRegister("length", func(args map[string]any) (forms.Validator, error) {
		min, err := intBound(args, "min")
		if err != nil {
			return nil, err
		}
		max, err := intBound(args, "max")
		if err != nil {
			return nil, err
		}
		if min == validators.Unbounded && max == validators.Unbounded {
			return nil, errors.New("needs min or max")
		}
		if min != validators.Unbounded && max != validators.Unbounded && max < min {
			return nil, fmt.Errorf("max %d is lower than min %d", max, min)
		}
		return validators.Length(min, max, messageOpts(args)...), nil
	})
	r.MustRegister("number_range", func(args map[string]any) (forms.Validator, error) {
		min, err := numberBound(args, "min")
		if err != nil {
			return nil, err
		}
		max, err := numberBound(args, "max")
		if err != nil {
			return nil, err
		}
		return validators.NumberRange(min, max, messageOpts(args)...), nil
	})
	r.MustRegister("regexp", func(args map[string]any) (forms.Validator, error) {
		raw, ok := first(args, "pattern", "value")
		pattern := cast.ToString(raw)
		if !ok || pattern == "" {
			return nil, errors.New("pattern is required")
		}
		if _, err := regexp.Compile(pattern); err != nil {
			return nil, fmt.Errorf("pattern: %w", err)
		}
		return validators.Regexp(pattern, messageOpts(args)...), nil
	})
	r.MustRegister("equal_to", func(args map[string]any) (forms.Validator, error) {
		raw, ok := first(args, "field", "value")
		other := cast.ToString(raw)
		if !ok || other == "" {
			return nil, errors.New("field is required")
		}
		return validators.EqualTo(other, messageOpts(args)...), nil
	})
	r.MustRegister("any_of", membership(validators.AnyOf))
	r.MustRegister("none_of", membership(validators.NoneOf))
}

func membership(build func(values []any, opts ...validators.Option) *validators.MembershipValidator) Factory {
	return func(args map[string]any) (forms.Validator, error) {
		raw, ok := first(args, "values", "value")
		if !ok {
			return nil, errors.New("values are required")
		}
		values, err := cast.ToSliceE(raw)
		if err != nil {
			return nil, fmt.Errorf("values must be a list: %w", err)
		}
		return build(values, messageOpts(args)...), nil
	}
}

func firstOr(args map[string]any, fallback any, keys ...string) any {
	if value, ok := first(args, keys...); ok {
		return value
	}
	return fallback
}
