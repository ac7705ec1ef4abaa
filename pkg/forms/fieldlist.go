package forms

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formbind/pkg/attrs"
)

// FieldList is a repeating list of entries bound from one template. Entry
// wire names are "{name}-{index}"; indices come from the submission and are
// never renumbered.
type FieldList struct {
	*FieldCore
	MinEntries int
	// MaxEntries caps the entry count; zero means unbounded.
	MaxEntries int
	// LastIndex is the highest index assigned so far, -1 before any entry.
	LastIndex int
	Entries   []Field

	entry       *Template
	entryErrors [][]string
}

// List declares a repeating list of entry. Filters are rejected; validators
// run against the list after every entry has been validated.
func List(entry *Template, opts ...Option) *Template {
	tpl := newTemplate(KindList, func(core *FieldCore, cfg *config) (Field, error) {
		return &FieldList{
			FieldCore:  core,
			MinEntries: cfg.minEntries,
			MaxEntries: cfg.maxEntries,
			LastIndex:  -1,
			entry:      entry,
		}, nil
	}, opts)
	if tpl.err != nil {
		return tpl
	}
	switch {
	case entry == nil:
		tpl.err = fmt.Errorf("list field: %w", ErrMissingTemplate)
	case entry.Err() != nil:
		tpl.err = fmt.Errorf("list field entry: %w", entry.Err())
	case len(tpl.cfg.filters) > 0:
		tpl.err = ErrCompositeFilters
	case tpl.cfg.minEntries < 0 || tpl.cfg.maxEntries < 0:
		tpl.err = fmt.Errorf("list field: entry bounds must not be negative")
	case tpl.cfg.maxEntries > 0 && tpl.cfg.minEntries > tpl.cfg.maxEntries:
		tpl.err = fmt.Errorf("list field: %w: min entries %d exceeds max entries %d",
			ErrMaxEntries, tpl.cfg.minEntries, tpl.cfg.maxEntries)
	}
	return tpl
}

// Process rebuilds the entries. With a non-empty submission one entry is
// built per submitted index, paired in order with the elements of data;
// otherwise one entry is built per element of data. Blank entries are then
// appended up to MinEntries.
func (f *FieldList) Process(sub Submission, data any, extra ...Filter) error {
	if len(extra) > 0 {
		return ErrCompositeFilters
	}
	f.Entries = nil
	f.entryErrors = nil
	f.errors = nil

	if IsUnset(data) || !Truthy(data) {
		data = f.resolveDefault()
	}
	f.objectData = data

	items, ok := attrs.Elements(data)
	if !ok {
		return fmt.Errorf("forms: list %q: data of type %T is not a collection", f.name, data)
	}

	if hasKeys(sub) {
		indices := extractIndices(f.name, sub)
		if f.MaxEntries > 0 && len(indices) > f.MaxEntries {
			indices = indices[:f.MaxEntries]
		}
		for pos, index := range indices {
			var value any = Unset
			if pos < len(items) {
				value = items[pos]
			}
			if _, err := f.addEntry(sub, value, index); err != nil {
				return err
			}
		}
	} else {
		for _, value := range items {
			if _, err := f.addEntry(sub, value, f.LastIndex+1); err != nil {
				return err
			}
		}
	}

	for len(f.Entries) < f.MinEntries {
		if _, err := f.addEntry(sub, Unset, f.LastIndex+1); err != nil {
			return err
		}
	}
	return nil
}

func (f *FieldList) addEntry(sub Submission, data any, index int) (Field, error) {
	if f.MaxEntries > 0 && len(f.Entries) >= f.MaxEntries {
		return nil, fmt.Errorf("forms: list %q: %w (%d)", f.name, ErrMaxEntries, f.MaxEntries)
	}
	f.LastIndex = index
	entry, err := f.entry.Bind(BindParams{
		Name:   fmt.Sprintf("%s-%d", f.shortName, index),
		Prefix: f.prefix,
		ID:     fmt.Sprintf("%s-%d", f.id, index),
		Meta:   f.meta,
	})
	if err != nil {
		return nil, fmt.Errorf("forms: list %q: %w", f.name, err)
	}
	if err := ProcessField(entry, sub, data); err != nil {
		return nil, fmt.Errorf("forms: list %q: %w", f.name, err)
	}
	f.Entries = append(f.Entries, entry)
	return entry, nil
}

// extractIndices returns the sorted, distinct integer indices submitted as
// "{name}-{index}" or "{name}-{index}-...".
func extractIndices(name string, sub Submission) []int {
	prefix := name + "-"
	seen := make(map[int]struct{})
	for _, key := range sub.Keys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		segment, _, _ := strings.Cut(key[len(prefix):], "-")
		if !isDigits(segment) {
			continue
		}
		index, err := strconv.Atoi(segment)
		if err != nil {
			continue
		}
		seen[index] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for index := range seen {
		out = append(out, index)
	}
	sort.Ints(out)
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Validate validates every entry, then runs the list's own chain. Entry
// messages are kept apart from list messages and are dropped when every
// entry passed.
func (f *FieldList) Validate(form *Form, extra ...Validator) (bool, error) {
	if err := checkValidators(extra); err != nil {
		return false, err
	}
	f.errors = nil
	f.entryErrors = make([][]string, 0, len(f.Entries))
	failed := false
	for _, entry := range f.Entries {
		if _, err := ValidateField(entry, form); err != nil {
			return false, err
		}
		errs := append([]string(nil), entry.Errors()...)
		if len(errs) > 0 {
			failed = true
		}
		f.entryErrors = append(f.entryErrors, errs)
	}
	if !failed {
		f.entryErrors = nil
	}

	chain := append(append([]Validator(nil), f.validators...), extra...)
	if _, err := RunChain(form, f, chain); err != nil {
		return false, err
	}
	return !failed && len(f.errors) == 0, nil
}

// Errors flattens the entry messages in entry order, followed by the messages
// recorded by the list's own validators.
func (f *FieldList) Errors() []string {
	var out []string
	for _, errs := range f.entryErrors {
		out = append(out, errs...)
	}
	return append(out, f.errors...)
}

// EntryErrors returns the messages of each entry, in entry order, or nil when
// every entry passed.
func (f *FieldList) EntryErrors() [][]string {
	return f.entryErrors
}

// Data returns the data of every entry.
func (f *FieldList) Data() any {
	out := make([]any, 0, len(f.Entries))
	for _, entry := range f.Entries {
		out = append(out, entry.Data())
	}
	return out
}

// Len returns the number of entries.
func (f *FieldList) Len() int { return len(f.Entries) }

// AppendEntry binds one more entry at LastIndex+1 fed only with data.
func (f *FieldList) AppendEntry(data any) (Field, error) {
	return f.addEntry(nil, data, f.LastIndex+1)
}

// PopEntry removes and returns the last entry.
func (f *FieldList) PopEntry() (Field, bool) {
	if len(f.Entries) == 0 {
		return nil, false
	}
	last := f.Entries[len(f.Entries)-1]
	f.Entries = f.Entries[:len(f.Entries)-1]
	f.LastIndex--
	return last, true
}

// PopulateObject populates one holder per entry, seeded with the matching
// element of the target's current collection, and assigns the resulting
// values to target.name in entry order.
func (f *FieldList) PopulateObject(target any, name string) error {
	accessor := f.accessor()
	var existing []any
	if current, ok := accessor.Lookup(target, name); ok {
		if items, ok := attrs.Elements(current); ok {
			existing = items
		}
	}

	output := make([]any, 0, len(f.Entries))
	for idx, entry := range f.Entries {
		holder := &entryHolder{alloc: func() (any, bool) { return allocateElem(accessor, target, name) }}
		if idx < len(existing) {
			holder.data = existing[idx]
		}
		if err := PopulateField(entry, holder, "data"); err != nil {
			return fmt.Errorf("forms: populate %q entry %d: %w", f.name, idx, err)
		}
		output = append(output, holder.data)
	}
	if err := accessor.Assign(target, name, output); err != nil {
		return fmt.Errorf("forms: populate %q: %w", f.name, err)
	}
	return nil
}

func (f *FieldList) collectErrors(out map[string][]string) {
	for _, entry := range f.Entries {
		collectErrors(entry, out)
	}
	if len(f.errors) > 0 {
		out[f.name] = append([]string(nil), f.errors...)
	}
}

type elemAllocator interface {
	AllocateElem(obj any, name string) (any, bool)
}

func allocateElem(accessor ObjectAccessor, target any, name string) (any, bool) {
	if allocator, ok := accessor.(elemAllocator); ok {
		if value, ok := allocator.AllocateElem(target, name); ok {
			return value, true
		}
	}
	return map[string]any{}, true
}

// entryHolder is the single slot an entry populates.
type entryHolder struct {
	data  any
	alloc func() (any, bool)
}

func (h *entryHolder) GetAttr(name string) (any, bool) {
	if name != "data" {
		return nil, false
	}
	return h.data, true
}

func (h *entryHolder) SetAttr(name string, value any) error {
	if name != "data" {
		return fmt.Errorf("%w: %q", attrs.ErrNoAttribute, name)
	}
	h.data = value
	return nil
}

func (h *entryHolder) AllocAttr(name string) (any, bool) {
	if name != "data" || h.alloc == nil {
		return nil, false
	}
	return h.alloc()
}
