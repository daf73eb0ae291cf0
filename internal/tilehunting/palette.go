package tilehunting

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

var (
	ColorTransparent     = color.NRGBA{}
	ColorPlanned         = color.NRGBA{R: 0, G: 0, B: 0, A: 85}
	ColorMultipleMatches = color.NRGBA{R: 255, G: 0, B: 0, A: 96}
	// ColorNotNew marks tiles of a single workout that an earlier workout already visited
	ColorNotNew = color.NRGBA{R: 0, G: 0, B: 0, A: 0x55}
)

type heatmapStep struct {
	minCount int
	color    color.NRGBA
}

// descending by minCount, first match wins
var heatmapSteps = []heatmapStep{
	{100, color.NRGBA{R: 89, G: 0, B: 8, A: 192}},
	{50, color.NRGBA{R: 138, G: 39, B: 6, A: 192}},
	{25, color.NRGBA{R: 189, G: 101, B: 51, A: 192}},
	{10, color.NRGBA{R: 210, G: 150, B: 116, A: 192}},
	{5, color.NRGBA{R: 3, G: 62, B: 125, A: 192}},
	{2, color.NRGBA{R: 30, G: 111, B: 156, A: 192}},
	{1, color.NRGBA{R: 113, G: 167, B: 195, A: 192}},
}

// ParseHexColor parses "#RRGGBB" or "#RRGGBBAA". Alpha defaults to 255.
func ParseHexColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: expected #RRGGBB or #RRGGBBAA", s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}

	if len(hex) == 6 {
		return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// OverlapColor resolves the color of one base zoom tile from the colors of the
// workout types that visited it.
func OverlapColor(colors []string, planned bool) (color.NRGBA, error) {
	distinct := make(map[string]struct{}, len(colors))
	for _, c := range colors {
		distinct[strings.ToUpper(c)] = struct{}{}
	}

	switch len(distinct) {
	case 0:
		if planned {
			return ColorPlanned, nil
		}
		return ColorTransparent, nil
	case 1:
		return ParseHexColor(colors[0])
	default:
		return ColorMultipleMatches, nil
	}
}

// HeatmapColor maps the number of workouts that visited a tile onto the density palette
func HeatmapColor(count int) color.NRGBA {
	for _, step := range heatmapSteps {
		if count >= step.minCount {
			return step.color
		}
	}
	return ColorTransparent
}

