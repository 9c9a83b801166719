package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/draftpad/draftpad/pkg/overlay"
	"gopkg.in/yaml.v3"
)

// StyleSpec is one class's appearance in the theme file.
type StyleSpec struct {
	Foreground string `yaml:"foreground"`
	Background string `yaml:"background"`
	Bold       bool   `yaml:"bold"`
	Italic     bool   `yaml:"italic"`
	Underline  bool   `yaml:"underline"`
	Faint      bool   `yaml:"faint"`
}

// Theme maps the overlay's public class names to terminal styles. It is the
// externally-supplied stylesheet of the overlay contract: the engine only
// assigns classes, the theme decides what they look like.
type Theme struct {
	Classes map[string]StyleSpec `yaml:"classes"`
}

// DefaultTheme is used when no theme file exists.
func DefaultTheme() *Theme {
	return &Theme{
		Classes: map[string]StyleSpec{
			overlay.ClassGhostText:      {Foreground: "240", Faint: true},
			overlay.ClassErrorSpan:      {Foreground: "9", Underline: true},
			overlay.ClassTooltip:        {Foreground: "11"},
			overlay.ClassSuggestionPill: {Foreground: "12"},
		},
	}
}

// LoadTheme reads a YAML theme from path. A missing file falls back to the
// default theme; a malformed file is an error.
func LoadTheme(path string) (*Theme, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultTheme(), nil
		}
		return nil, err
	}

	theme := &Theme{}
	if err := yaml.Unmarshal(content, theme); err != nil {
		return nil, err
	}
	if theme.Classes == nil {
		theme.Classes = map[string]StyleSpec{}
	}

	// Classes the file doesn't mention keep their default look.
	for class, spec := range DefaultTheme().Classes {
		if _, ok := theme.Classes[class]; !ok {
			theme.Classes[class] = spec
		}
	}
	return theme, nil
}

// Style resolves a class to a lipgloss style.
func (t *Theme) Style(class string) lipgloss.Style {
	style := lipgloss.NewStyle()
	spec, ok := t.Classes[class]
	if !ok {
		return style
	}

	if spec.Foreground != "" {
		style = style.Foreground(lipgloss.Color(spec.Foreground))
	}
	if spec.Background != "" {
		style = style.Background(lipgloss.Color(spec.Background))
	}
	if spec.Bold {
		style = style.Bold(true)
	}
	if spec.Italic {
		style = style.Italic(true)
	}
	if spec.Underline {
		style = style.Underline(true)
	}
	if spec.Faint {
		style = style.Faint(true)
	}
	return style
}
