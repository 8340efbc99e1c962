package chart

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"salescharts/internal/smooth"
)

// Theme holds the cosmetic properties shared by every chart.
type Theme struct {
	Width        float64  `yaml:"width"`         // inches
	Height       float64  `yaml:"height"`        // inches
	Palette      []string `yaml:"palette"`       // hex colours; current year first
	LineWidth    float64  `yaml:"line_width"`    // points
	MarkerRadius float64  `yaml:"marker_radius"` // points
	BarWidth     float64  `yaml:"bar_width"`     // points
	Samples      int      `yaml:"samples"`       // smoothing density
	ShowValues   bool     `yaml:"show_values"`
	TitleSize    float64  `yaml:"title_size"` // points
	BoxColor     string   `yaml:"box_color"`  // growth annotation fill
}

// DefaultTheme returns the built-in look.
func DefaultTheme() Theme {
	return Theme{
		Width:        10,
		Height:       6,
		Palette:      []string{"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd", "#8c564b", "#e377c2", "#7f7f7f"},
		LineWidth:    2,
		MarkerRadius: 4,
		BarWidth:     14,
		Samples:      smooth.DefaultSamples,
		ShowValues:   true,
		TitleSize:    14,
		BoxColor:     "#fff3c4",
	}
}

// LoadTheme reads a YAML theme file on top of the defaults. An empty path
// returns the defaults.
func LoadTheme(path string) (Theme, error) {
	theme := DefaultTheme()
	if strings.TrimSpace(path) == "" {
		return theme, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, fmt.Errorf("read theme file: %w", err)
	}
	if err := yaml.Unmarshal(data, &theme); err != nil {
		return Theme{}, fmt.Errorf("parse theme file %s: %w", path, err)
	}
	if err := theme.Validate(); err != nil {
		return Theme{}, fmt.Errorf("theme %s: %w", path, err)
	}
	return theme, nil
}

// Validate reports every invalid field at once.
func (t Theme) Validate() error {
	var errs []error
	if t.Width <= 0 || t.Height <= 0 {
		errs = append(errs, fmt.Errorf("width and height must be positive, got %vx%v", t.Width, t.Height))
	}
	if t.LineWidth <= 0 {
		errs = append(errs, fmt.Errorf("line_width must be positive, got %v", t.LineWidth))
	}
	if t.MarkerRadius <= 0 {
		errs = append(errs, fmt.Errorf("marker_radius must be positive, got %v", t.MarkerRadius))
	}
	if t.BarWidth <= 0 {
		errs = append(errs, fmt.Errorf("bar_width must be positive, got %v", t.BarWidth))
	}
	if t.Samples < 12 {
		errs = append(errs, fmt.Errorf("samples must be at least 12, got %d", t.Samples))
	}
	if len(t.Palette) < 2 {
		errs = append(errs, errors.New("palette needs at least two colours"))
	}
	for _, c := range append(append([]string(nil), t.Palette...), t.BoxColor) {
		if _, err := parseColor(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t Theme) colors() ([]color.Color, color.Color, error) {
	palette := make([]color.Color, 0, len(t.Palette))
	for _, c := range t.Palette {
		parsed, err := parseColor(c)
		if err != nil {
			return nil, nil, err
		}
		palette = append(palette, parsed)
	}
	box, err := parseColor(t.BoxColor)
	if err != nil {
		return nil, nil, err
	}
	return palette, box, nil
}

func parseColor(s string) (color.Color, error) {
	c, err := colorful.Hex(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return c, nil
}
