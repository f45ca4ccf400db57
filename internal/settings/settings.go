// Package settings owns the user-mutable configuration: link scheme, crop
// preset, the global URL-template override and the copy mode. Changes go
// through explicit setters that validate, persist and then fire the repaint
// hook; there is no property interception anywhere.
package settings

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/picdrop/internal/common"
	"github.com/dmitrijs2005/picdrop/internal/logging"
	"github.com/dmitrijs2005/picdrop/internal/store"
	"github.com/dmitrijs2005/picdrop/internal/transform"
)

// Scheme selects the protocol prefix of generated links.
type Scheme string

const (
	SchemeHTTP     Scheme = "http"
	SchemeHTTPS    Scheme = "https"
	SchemeRelative Scheme = "relative"
)

var schemePrefixes = map[Scheme]string{
	SchemeHTTP:     "http://",
	SchemeHTTPS:    "https://",
	SchemeRelative: "//",
}

// Crop names a sizing preset. CropCustom uses the free-text custom value.
type Crop string

const (
	CropOriginal  Crop = "original"
	CropMedium    Crop = "medium"
	CropThumbnail Crop = "thumbnail"
	CropCustom    Crop = "custom"
)

var cropValues = map[Crop]string{
	CropOriginal:  transform.CropOriginal,
	CropMedium:    "medium",
	CropThumbnail: "thumb",
}

// Storage keys.
const (
	keyScheme          = "scheme"
	keyCrop            = "crop"
	keyCropCustom      = "crop_custom"
	keyTemplateEnabled = "url_template_enabled"
	keyTemplateValue   = "url_template_value"
)

// Manager holds the current configuration and keeps it in sync with the
// settings store. A persistence failure rolls the in-memory value back, so
// memory and store never drift apart.
type Manager struct {
	mu   sync.Mutex
	repo store.Repository
	log  logging.Logger

	host            string
	scheme          Scheme
	crop            Crop
	cropCustom      string
	templateEnabled bool
	templateValue   string
	batchCopy       bool

	onRepaint func()
}

func NewManager(repo store.Repository, log logging.Logger, host string) *Manager {
	return &Manager{
		repo:   repo,
		log:    log,
		host:   host,
		scheme: SchemeHTTPS,
		crop:   CropOriginal,
	}
}

// OnRepaint registers the hook fired after every change that affects
// generated links (scheme, crop, template). Copy-mode changes do not fire it.
func (m *Manager) OnRepaint(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRepaint = fn
}

// Load overlays the manager with whatever the store holds. Unknown or absent
// keys keep their defaults.
func (m *Manager) Load(ctx context.Context) error {
	values, err := m.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := values[keyScheme]; ok {
		if _, valid := schemePrefixes[Scheme(v)]; valid {
			m.scheme = Scheme(v)
		}
	}
	if v, ok := values[keyCrop]; ok {
		c := Crop(v)
		if _, valid := cropValues[c]; valid || c == CropCustom {
			m.crop = c
		}
	}
	if v, ok := values[keyCropCustom]; ok {
		m.cropCustom = string(v)
	}
	if v, ok := values[keyTemplateEnabled]; ok {
		m.templateEnabled = string(v) == "1"
	}
	if v, ok := values[keyTemplateValue]; ok {
		m.templateValue = string(v)
	}
	return nil
}

// SetScheme validates and applies a new link scheme.
func (m *Manager) SetScheme(ctx context.Context, s Scheme) error {
	if _, ok := schemePrefixes[s]; !ok {
		return fmt.Errorf("%w: %q", common.ErrInvalidScheme, s)
	}

	m.mu.Lock()
	old := m.scheme
	m.scheme = s
	if err := m.repo.Set(ctx, keyScheme, []byte(s)); err != nil {
		m.scheme = old
		m.mu.Unlock()
		return fmt.Errorf("persisting scheme: %w", err)
	}
	repaint := m.onRepaint
	m.mu.Unlock()

	if repaint != nil {
		repaint()
	}
	return nil
}

// SetCrop validates and applies a named crop preset.
func (m *Manager) SetCrop(ctx context.Context, c Crop) error {
	if _, ok := cropValues[c]; !ok && c != CropCustom {
		return fmt.Errorf("%w: %q", common.ErrInvalidCrop, c)
	}

	m.mu.Lock()
	old := m.crop
	m.crop = c
	if err := m.repo.Set(ctx, keyCrop, []byte(c)); err != nil {
		m.crop = old
		m.mu.Unlock()
		return fmt.Errorf("persisting crop: %w", err)
	}
	repaint := m.onRepaint
	m.mu.Unlock()

	if repaint != nil {
		repaint()
	}
	return nil
}

// SetCustomCrop stores a free-text crop value and switches the preset to it.
func (m *Manager) SetCustomCrop(ctx context.Context, value string) error {
	m.mu.Lock()
	oldValue, oldCrop := m.cropCustom, m.crop
	m.cropCustom = value
	m.crop = CropCustom

	err := m.repo.Set(ctx, keyCropCustom, []byte(value))
	if err == nil {
		if err = m.repo.Set(ctx, keyCrop, []byte(CropCustom)); err != nil {
			_ = m.repo.Set(ctx, keyCropCustom, []byte(oldValue))
		}
	}
	if err != nil {
		m.cropCustom, m.crop = oldValue, oldCrop
		m.mu.Unlock()
		return fmt.Errorf("persisting custom crop: %w", err)
	}

	repaint := m.onRepaint
	m.mu.Unlock()

	if repaint != nil {
		repaint()
	}
	return nil
}

// SetTemplate applies the global URL-template override.
func (m *Manager) SetTemplate(ctx context.Context, enabled bool, value string) error {
	flag := "0"
	if enabled {
		flag = "1"
	}

	m.mu.Lock()
	oldEnabled, oldValue := m.templateEnabled, m.templateValue
	m.templateEnabled = enabled
	m.templateValue = value

	oldFlag := "0"
	if oldEnabled {
		oldFlag = "1"
	}
	err := m.repo.Set(ctx, keyTemplateEnabled, []byte(flag))
	if err == nil {
		if err = m.repo.Set(ctx, keyTemplateValue, []byte(value)); err != nil {
			_ = m.repo.Set(ctx, keyTemplateEnabled, []byte(oldFlag))
		}
	}
	if err != nil {
		m.templateEnabled, m.templateValue = oldEnabled, oldValue
		m.mu.Unlock()
		return fmt.Errorf("persisting template: %w", err)
	}
	repaint := m.onRepaint
	m.mu.Unlock()

	if repaint != nil {
		repaint()
	}
	return nil
}

// ToggleBatchCopy flips the copy mode and returns the new value. The mode is
// session-local and never persisted.
func (m *Manager) ToggleBatchCopy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCopy = !m.batchCopy
	return m.batchCopy
}

// BatchCopy reports whether copy actions cover all sections.
func (m *Manager) BatchCopy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batchCopy
}

// Scheme returns the current scheme.
func (m *Manager) Scheme() Scheme {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scheme
}

// Crop returns the current preset.
func (m *Manager) Crop() Crop {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.crop
}

// Snapshot freezes the current configuration into transform options.
func (m *Manager) Snapshot() transform.Options {
	m.mu.Lock()
	defer m.mu.Unlock()

	crop := cropValues[m.crop]
	if m.crop == CropCustom {
		crop = m.cropCustom
	}
	return transform.Options{
		SchemePrefix:    schemePrefixes[m.scheme],
		Host:            m.host,
		Crop:            crop,
		TemplateEnabled: m.templateEnabled,
		Template:        m.templateValue,
	}
}
