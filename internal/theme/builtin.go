package theme

import "sort"

// DefaultThemeName is the theme every installation can fall back to.
const DefaultThemeName = "default"

var builtinThemes = map[string]*Configuration{
	"default": {
		Name:        "default",
		DisplayName: "Default",
		Description: "Balanced light theme used when nothing else is configured",
		Version:     "1.0.0",
		Author:      "Viewfinder",
		Type:        TypeBuiltIn,
		Colors: ColorScheme{
			Primary:       "#3574f0",
			Secondary:     "#6c737e",
			Background:    "#ffffff",
			Surface:       "#f2f3f5",
			TextPrimary:   "#1f2328",
			TextSecondary: "#656d76",
			Accent:        "#0969da",
			Error:         "#cf222e",
			Warning:       "#9a6700",
			Success:       "#1a7f37",
		},
		Fonts: map[string]FontSpec{
			"interface": {Family: "Inter", Size: 13},
			"monospace": {Family: "JetBrains Mono", Size: 12},
		},
	},
	"dark": {
		Name:        "dark",
		DisplayName: "Dark",
		Description: "Low-light theme for dim environments",
		Version:     "1.0.0",
		Author:      "Viewfinder",
		Type:        TypeBuiltIn,
		Colors: ColorScheme{
			Primary:       "#4493f8",
			Secondary:     "#8b949e",
			Background:    "#0d1117",
			Surface:       "#161b22",
			TextPrimary:   "#e6edf3",
			TextSecondary: "#8b949e",
			Accent:        "#58a6ff",
			Error:         "#f85149",
			Warning:       "#d29922",
			Success:       "#3fb950",
		},
		Fonts: map[string]FontSpec{
			"interface": {Family: "Inter", Size: 13},
			"monospace": {Family: "JetBrains Mono", Size: 12},
		},
	},
	"light": {
		Name:        "light",
		DisplayName: "Light",
		Description: "High-contrast light theme",
		Version:     "1.0.0",
		Author:      "Viewfinder",
		Type:        TypeBuiltIn,
		Colors: ColorScheme{
			Primary:       "#0969da",
			Secondary:     "#57606a",
			Background:    "#fafbfc",
			Surface:       "#ffffff",
			TextPrimary:   "#24292f",
			TextSecondary: "#57606a",
			Accent:        "#218bff",
			Error:         "#d1242f",
			Warning:       "#bf8700",
			Success:       "#2da44e",
		},
		Fonts: map[string]FontSpec{
			"interface": {Family: "Inter", Size: 13},
			"monospace": {Family: "JetBrains Mono", Size: 12},
		},
	},
}

// Builtin returns a copy of the named built-in theme.
func Builtin(name string) (*Configuration, bool) {
	cfg, ok := builtinThemes[name]
	if !ok {
		return nil, false
	}
	return cfg.Clone(), true
}

// BuiltinNames lists the built-in themes in a stable order.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinThemes))
	for name := range builtinThemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
