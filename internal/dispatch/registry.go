package dispatch

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/picdrop/internal/common"
	"github.com/dmitrijs2005/picdrop/internal/item"
	"github.com/dmitrijs2005/picdrop/internal/logging"
	"github.com/dmitrijs2005/picdrop/internal/transform"
	"github.com/google/uuid"
)

// DirectorySymbol prefixes the representative record of a directory group.
const DirectorySymbol = "\U0001F4C1"

// Section is one rendered display unit: a single resolved item or a
// completed directory group. The resolved items are the authoritative data;
// the records are derived and recomputed on every repaint.
type Section struct {
	handle  string
	dir     string
	items   []*item.Resolved
	records []transform.Record
}

// Handle returns the section's render handle.
func (s *Section) Handle() string { return s.handle }

// Directory returns the originating directory label, empty for singletons.
func (s *Section) Directory() string { return s.dir }

// Group reports whether the section wraps a directory group.
func (s *Section) Group() bool { return s.dir != "" }

// Records returns the derived records in resolution order. Callers must
// treat the slice as read-only.
func (s *Section) Records() []transform.Record { return s.records }

// Representative returns the record standing in for the whole section: the
// last element in iteration order. For groups it is a copy with all four
// representations prefixed by the directory symbol; the underlying records
// are never touched.
func (s *Section) Representative() transform.Record {
	rec := s.records[len(s.records)-1]
	if s.Group() {
		return rec.Prefixed(DirectorySymbol)
	}
	return rec
}

// Registry owns every rendered section, in render order. It is the only
// place sections are created, repainted, extracted from or destroyed.
type Registry struct {
	options func() transform.Options
	log     logging.Logger

	mu       sync.Mutex
	sections []*Section
}

// NewRegistry builds a registry; options is called on every render pass to
// pick up the current configuration.
func NewRegistry(options func() transform.Options, log logging.Logger) *Registry {
	return &Registry{options: options, log: log}
}

// Render wraps items into a new section and appends it to the registry.
// A non-empty dir marks the section as a directory group.
func (r *Registry) Render(items []*item.Resolved, dir string) *Section {
	s := &Section{
		handle: uuid.NewString(),
		dir:    dir,
		items:  append([]*item.Resolved(nil), items...),
	}
	s.records = transform.TransformAll(s.items, r.options())

	r.mu.Lock()
	r.sections = append(r.sections, s)
	r.mu.Unlock()
	return s
}

// RepaintAll recomputes every section's records under the current
// configuration. No data is re-fetched; this is purely reformatting.
func (r *Registry) RepaintAll() {
	opts := r.options()

	r.mu.Lock()
	repainted := len(r.sections)
	for _, s := range r.sections {
		s.records = transform.TransformAll(s.items, opts)
	}
	r.mu.Unlock()

	if r.log != nil {
		r.log.Debug(context.Background(), "sections repainted", "count", repainted)
	}
}

// Clear destroys every section.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.sections = nil
	r.mu.Unlock()
}

// Sections returns the current sections in render order.
func (r *Registry) Sections() []*Section {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Section(nil), r.sections...)
}

// Len returns the number of live sections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sections)
}

// Extract serializes the requested representation into one clipboard
// payload. In batch mode every section contributes, in registry order;
// otherwise only the section named by handle does (an empty handle selects
// the most recent section). A section wrapping a group expands to one line
// per element, in resolution order.
func (r *Registry) Extract(kind transform.Kind, batch bool, handle string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sections) == 0 {
		return "", common.ErrNoSection
	}

	var buffer []string
	appendSection := func(s *Section) {
		for _, rec := range s.records {
			buffer = append(buffer, rec.Get(kind))
		}
	}

	if batch {
		for _, s := range r.sections {
			appendSection(s)
		}
	} else {
		s := r.findLocked(handle)
		if s == nil {
			return "", fmt.Errorf("%w: %s", common.ErrNoSection, handle)
		}
		appendSection(s)
	}

	return strings.Join(buffer, "\n"), nil
}

func (r *Registry) findLocked(handle string) *Section {
	if handle == "" {
		return r.sections[len(r.sections)-1]
	}
	for _, s := range r.sections {
		if s.handle == handle {
			return s
		}
	}
	return nil
}
