// Package viewstate holds presentation-only state: theme and zoom.
package viewstate

import (
	"context"
	"math"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/kagami/internal/storage"
	"github.com/hyperjump/kagami/pkg/utils"
)

// Theme is the color scheme of the viewer.
type Theme string

const (
	Dark  Theme = "dark"
	Light Theme = "light"
)

// ParseTheme returns the theme named s, or fallback when s names none.
func ParseTheme(s string, fallback Theme) Theme {
	switch Theme(s) {
	case Dark, Light:
		return Theme(s)
	}
	return fallback
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == Light {
		return Dark
	}
	return Light
}

const (
	KeyTheme = "theme"
	KeyZoom  = "zoomLevel"

	MinZoom     = 0.5
	MaxZoom     = 3.0
	DefaultZoom = 1.0
	ZoomStep    = 0.1
)

// ClampZoom limits z to [MinZoom, MaxZoom] and rounds it to one decimal.
func ClampZoom(z float64) float64 {
	if math.IsNaN(z) {
		return DefaultZoom
	}
	z = math.Round(z*10) / 10
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}

// State is the persisted theme and zoom level. Persistence failures are logged and
// never surface to callers.
type State struct {
	mu           sync.Mutex
	prefs        storage.Preferences
	logger       *zap.Logger
	defaultTheme Theme
	theme        Theme
	zoom         float64
}

// New creates a State backed by prefs. Call Load to read persisted values.
func New(prefs storage.Preferences, defaultTheme Theme, logger *zap.Logger) *State {
	defaultTheme = ParseTheme(string(defaultTheme), Dark)
	return &State{
		prefs:        prefs,
		logger:       utils.OrNop(logger),
		defaultTheme: defaultTheme,
		theme:        defaultTheme,
		zoom:         DefaultZoom,
	}
}

// Load reads theme and zoom from the store. Unknown themes fall back to the default,
// unparsable zoom to 1.0, and out-of-range zoom is clamped.
func (s *State) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prefs == nil {
		return
	}
	if v, ok, err := s.prefs.Get(ctx, KeyTheme); err != nil {
		s.logger.Warn("read theme preference", zap.Error(err))
	} else if ok {
		s.theme = ParseTheme(v, s.defaultTheme)
	}
	if v, ok, err := s.prefs.Get(ctx, KeyZoom); err != nil {
		s.logger.Warn("read zoom preference", zap.Error(err))
	} else if ok {
		z, perr := strconv.ParseFloat(v, 64)
		if perr != nil {
			s.logger.Debug("ignore invalid zoom preference", zap.String("value", v))
			z = DefaultZoom
		}
		s.zoom = ClampZoom(z)
	}
}

// Theme returns the current theme.
func (s *State) Theme() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

// Zoom returns the current zoom level.
func (s *State) Zoom() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoom
}

// Scale returns the zoom level formatted as a CSS scale factor.
func (s *State) Scale() string {
	return strconv.FormatFloat(s.Zoom(), 'f', 1, 64)
}

// ToggleTheme flips the theme and persists it.
func (s *State) ToggleTheme(ctx context.Context) Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = s.theme.Toggle()
	s.persist(ctx, KeyTheme, string(s.theme))
	return s.theme
}

// ZoomIn raises the zoom by one step.
func (s *State) ZoomIn(ctx context.Context) float64 {
	return s.setZoom(ctx, func(z float64) float64 { return z + ZoomStep })
}

// ZoomOut lowers the zoom by one step.
func (s *State) ZoomOut(ctx context.Context) float64 {
	return s.setZoom(ctx, func(z float64) float64 { return z - ZoomStep })
}

// ZoomReset returns the zoom to 1.0.
func (s *State) ZoomReset(ctx context.Context) float64 {
	return s.setZoom(ctx, func(float64) float64 { return DefaultZoom })
}

func (s *State) setZoom(ctx context.Context, f func(float64) float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zoom = ClampZoom(f(s.zoom))
	s.persist(ctx, KeyZoom, strconv.FormatFloat(s.zoom, 'f', 1, 64))
	return s.zoom
}

func (s *State) persist(ctx context.Context, key, value string) {
	if s.prefs == nil {
		return
	}
	if err := s.prefs.Set(ctx, key, value); err != nil {
		s.logger.Warn("persist preference", zap.String("key", key), zap.Error(err))
	}
}
