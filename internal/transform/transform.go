// Package transform derives the externally-usable text representations of a
// resolved upload: the plain link plus HTML, UBB and Markdown wrappers.
// Everything here is pure: the same (item, options) pair always yields the
// same strings, and the source item is never mutated.
package transform

import (
	"fmt"
	"path"
	"strings"

	"github.com/dmitrijs2005/picdrop/internal/item"
)

// Kind selects one of the four derived representations.
type Kind string

const (
	KindURL      Kind = "URL"
	KindHTML     Kind = "HTML"
	KindUBB      Kind = "UBB"
	KindMarkdown Kind = "Markdown"
)

// ParseKind maps a user-typed name onto a Kind.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(s) {
	case "url", "link":
		return KindURL, true
	case "html":
		return KindHTML, true
	case "ubb", "bbcode":
		return KindUBB, true
	case "markdown", "md":
		return KindMarkdown, true
	}
	return "", false
}

// CropOriginal is the crop segment meaning "serve the image unmodified".
// Only links built with it get explicit width/height attributes in HTML.
const CropOriginal = "original"

// Options is a snapshot of the configuration a transform runs under.
type Options struct {
	// SchemePrefix is "http://", "https://" or the protocol-relative "//".
	SchemePrefix string
	// Host is the public host (optionally host/prefix) links point at.
	Host string
	// Crop is the resolved crop preset value used as a path segment.
	Crop string
	// TemplateEnabled and Template describe the global URL-template
	// override. When enabled and non-empty, Template replaces Crop
	// entirely.
	TemplateEnabled bool
	Template        string
}

// EffectiveCrop resolves the crop segment, honoring the template override.
func (o Options) EffectiveCrop() string {
	if o.TemplateEnabled && o.Template != "" {
		return o.Template
	}
	return o.Crop
}

var suffixes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// SuffixForMime returns the link suffix for a supported media type.
func SuffixForMime(mime string) (string, bool) {
	s, ok := suffixes[mime]
	return s, ok
}

// Record is one resolved item together with its four derived strings.
// Records are recomputable throwaways; the authoritative data stays in Item.
type Record struct {
	Item     *item.Resolved
	URL      string
	HTML     string
	UBB      string
	Markdown string
}

// Get returns the representation selected by k.
func (r Record) Get(k Kind) string {
	switch k {
	case KindHTML:
		return r.HTML
	case KindUBB:
		return r.UBB
	case KindMarkdown:
		return r.Markdown
	default:
		return r.URL
	}
}

// Prefixed returns a copy of r with all four representations prefixed.
// The underlying item is shared, not copied.
func (r Record) Prefixed(prefix string) Record {
	r.URL = prefix + r.URL
	r.HTML = prefix + r.HTML
	r.UBB = prefix + r.UBB
	r.Markdown = prefix + r.Markdown
	return r
}

// Transform builds the display record for one resolved item.
func Transform(r *item.Resolved, opts Options) Record {
	crop := opts.EffectiveCrop()
	suffix, _ := SuffixForMime(r.MimeType)
	url := opts.SchemePrefix + opts.Host + "/" + crop + "/" + r.PID + suffix

	name := ""
	if r.Source != nil {
		name = strings.TrimSuffix(r.Source.Name, path.Ext(r.Source.Name))
	}

	rec := Record{
		Item:     r,
		URL:      url,
		HTML:     fmt.Sprintf(`<img src=%q alt=%q>`, url, name),
		UBB:      fmt.Sprintf("[IMG]%s[/IMG]", url),
		Markdown: fmt.Sprintf("![%s](%s)", name, url),
	}
	if r.Width > 0 && r.Height > 0 && crop == CropOriginal {
		rec.HTML = fmt.Sprintf(`<img src=%q alt=%q width="%d" data-width="%d" data-height="%d">`,
			url, name, r.Width, r.Width, r.Height)
	}
	return rec
}

// TransformAll maps Transform over items, preserving order.
func TransformAll(items []*item.Resolved, opts Options) []Record {
	records := make([]Record, 0, len(items))
	for _, r := range items {
		records = append(records, Transform(r, opts))
	}
	return records
}
