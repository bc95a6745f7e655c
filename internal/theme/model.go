// Package theme implements the theme coordination core: the theme data model,
// validation, built-in themes, pluggable backends, and the coordinator that
// applies themes across every registered component.
package theme

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Type classifies where a theme definition came from.
type Type string

const (
	TypeBuiltIn  Type = "built_in"
	TypeCustom   Type = "custom"
	TypeImported Type = "imported"
)

// ColorScheme holds the named color roles a theme must define. Values accept
// hex (#RGB, #RRGGBB, #RRGGBBAA), rgb()/rgba() functional notation, or a
// basic named color.
type ColorScheme struct {
	Primary       string `yaml:"primary" validate:"required,color"`
	Secondary     string `yaml:"secondary" validate:"required,color"`
	Background    string `yaml:"background" validate:"required,color"`
	Surface       string `yaml:"surface" validate:"required,color"`
	TextPrimary   string `yaml:"text_primary" validate:"required,color"`
	TextSecondary string `yaml:"text_secondary" validate:"required,color"`
	Accent        string `yaml:"accent" validate:"required,color"`
	Error         string `yaml:"error" validate:"required,color"`
	Warning       string `yaml:"warning" validate:"required,color"`
	Success       string `yaml:"success" validate:"required,color"`
}

// IsDark reports whether the scheme reads as a dark theme, judged by the
// perceived luminance of the background color.
func (c ColorScheme) IsDark() bool {
	r, g, b, _, err := ParseColor(c.Background)
	if err != nil {
		return false
	}
	luminance := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 255.0
	return luminance < 0.5
}

// FontSpec describes one font slot of a theme.
type FontSpec struct {
	Family string `yaml:"family" validate:"required"`
	Size   int    `yaml:"size" validate:"required,gt=0"`
	Weight string `yaml:"weight,omitempty" validate:"omitempty,font_weight"`
	Style  string `yaml:"style,omitempty" validate:"omitempty,font_style"`
}

// Configuration is a complete theme definition as loaded from a backend or
// shipped built in. Treat instances as immutable once resolved.
type Configuration struct {
	Name        string              `yaml:"name" validate:"required,theme_name"`
	DisplayName string              `yaml:"display_name" validate:"required"`
	Description string              `yaml:"description,omitempty"`
	Version     string              `yaml:"version" validate:"required,semver"`
	Author      string              `yaml:"author,omitempty"`
	Type        Type                `yaml:"type,omitempty" validate:"omitempty,oneof=built_in custom imported"`
	Colors      ColorScheme         `yaml:"colors"`
	Fonts       map[string]FontSpec `yaml:"fonts,omitempty" validate:"omitempty,dive"`
	Properties  map[string]string   `yaml:"properties,omitempty"`
}

// Info summarizes the configuration for listings.
func (c *Configuration) Info() Info {
	return Info{
		Name:        c.Name,
		DisplayName: c.DisplayName,
		Description: c.Description,
		Version:     c.Version,
		Type:        c.Type,
		Dark:        c.Colors.IsDark(),
	}
}

// Clone returns a deep copy so callers can hand configurations out without
// sharing the font and property maps.
func (c *Configuration) Clone() *Configuration {
	if c == nil {
		return nil
	}
	out := *c
	if c.Fonts != nil {
		out.Fonts = make(map[string]FontSpec, len(c.Fonts))
		for k, v := range c.Fonts {
			out.Fonts[k] = v
		}
	}
	if c.Properties != nil {
		out.Properties = make(map[string]string, len(c.Properties))
		for k, v := range c.Properties {
			out.Properties[k] = v
		}
	}
	return &out
}

// Info is the lightweight listing entry for a theme.
type Info struct {
	Name        string
	DisplayName string
	Description string
	Version     string
	Type        Type
	Dark        bool
}

// EventKind labels coordinator lifecycle events.
type EventKind string

const (
	EventChanged EventKind = "theme_changed"
	EventApplied EventKind = "theme_applied"
	EventError   EventKind = "theme_error"
)

// ChangeEvent describes one theme transition, successful or not.
type ChangeEvent struct {
	Kind     EventKind
	OldTheme string
	NewTheme string
	Time     time.Time
	Duration time.Duration
	Success  bool
	Error    string
}

var (
	hexColorRegex = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	rgbColorRegex = regexp.MustCompile(`^rgb\(\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})\s*\)$`)
	rgbaRegex     = regexp.MustCompile(`^rgba\(\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*([01]?\.?\d*)\s*\)$`)
)

var namedColors = map[string][3]uint8{
	"black":   {0, 0, 0},
	"white":   {255, 255, 255},
	"red":     {255, 0, 0},
	"green":   {0, 128, 0},
	"blue":    {0, 0, 255},
	"yellow":  {255, 255, 0},
	"cyan":    {0, 255, 255},
	"magenta": {255, 0, 255},
	"gray":    {128, 128, 128},
	"grey":    {128, 128, 128},
	"orange":  {255, 165, 0},
	"purple":  {128, 0, 128},
	"brown":   {165, 42, 42},
	"pink":    {255, 192, 203},
}

// ParseColor decodes a color value into RGBA channels. Alpha defaults to 255
// for formats that do not carry one.
func ParseColor(value string) (r, g, b, a uint8, err error) {
	v := strings.TrimSpace(strings.ToLower(value))
	switch {
	case v == "":
		return 0, 0, 0, 0, fmt.Errorf("empty color value")

	case hexColorRegex.MatchString(v):
		return parseHex(v)

	case rgbColorRegex.MatchString(v):
		m := rgbColorRegex.FindStringSubmatch(v)
		return parseChannels(m[1], m[2], m[3], "")

	case rgbaRegex.MatchString(v):
		m := rgbaRegex.FindStringSubmatch(v)
		return parseChannels(m[1], m[2], m[3], m[4])

	default:
		if rgb, ok := namedColors[v]; ok {
			return rgb[0], rgb[1], rgb[2], 255, nil
		}
		return 0, 0, 0, 0, fmt.Errorf("unrecognized color %q", value)
	}
}

func parseHex(v string) (r, g, b, a uint8, err error) {
	digits := v[1:]
	if len(digits) == 3 {
		expanded := make([]byte, 6)
		for i := 0; i < 3; i++ {
			expanded[2*i] = digits[i]
			expanded[2*i+1] = digits[i]
		}
		digits = string(expanded)
	}
	channels := []uint8{0, 0, 0, 255}
	for i := 0; i*2 < len(digits); i++ {
		n, convErr := strconv.ParseUint(digits[i*2:i*2+2], 16, 8)
		if convErr != nil {
			return 0, 0, 0, 0, fmt.Errorf("invalid hex color %q", v)
		}
		channels[i] = uint8(n)
	}
	return channels[0], channels[1], channels[2], channels[3], nil
}

func parseChannels(rs, gs, bs, as string) (r, g, b, a uint8, err error) {
	channels := []uint8{0, 0, 0, 255}
	for i, s := range []string{rs, gs, bs} {
		n, convErr := strconv.Atoi(s)
		if convErr != nil || n < 0 || n > 255 {
			return 0, 0, 0, 0, fmt.Errorf("color channel %q out of range", s)
		}
		channels[i] = uint8(n)
	}
	if as != "" {
		alpha, convErr := strconv.ParseFloat(as, 64)
		if convErr != nil || alpha < 0 || alpha > 1 {
			return 0, 0, 0, 0, fmt.Errorf("alpha %q out of range", as)
		}
		channels[3] = uint8(alpha * 255)
	}
	return channels[0], channels[1], channels[2], channels[3], nil
}
