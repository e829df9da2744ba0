// Package starfield renders a decorative animated background: drifting stars
// around a slowly rotating, glowing sphere. It holds no chat state.
package starfield

import (
	"math"
	"math/rand/v2"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zhouzirui/weatherchat/backend/internal/model/chat"
)

const (
	shadeRamp   = " .:-=+*#%@"
	twoPi       = 2 * math.Pi
	spinPerStep = 0.08
)

type cellKind int

const (
	cellEmpty cellKind = iota
	cellStar
	cellGlow
	cellSphere
	cellBand
)

type star struct {
	x, y  float64
	depth float64
}

// Palette colors each kind of cell.
type Palette struct {
	Star   lipgloss.Style
	Glow   lipgloss.Style
	Sphere lipgloss.Style
	Band   lipgloss.Style
}

// PaletteFor returns the colors for a theme.
func PaletteFor(theme chat.Theme) Palette {
	if theme == chat.ThemeLight {
		return Palette{
			Star:   lipgloss.NewStyle().Foreground(lipgloss.Color("67")),
			Glow:   lipgloss.NewStyle().Foreground(lipgloss.Color("223")),
			Sphere: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
			Band:   lipgloss.NewStyle().Foreground(lipgloss.Color("166")),
		}
	}
	return Palette{
		Star:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Glow:   lipgloss.NewStyle().Foreground(lipgloss.Color("24")),
		Sphere: lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		Band:   lipgloss.NewStyle().Foreground(lipgloss.Color("87")),
	}
}

// Field is the animation state. It is not safe for concurrent use; the
// bubbletea update loop owns it.
type Field struct {
	width, height int
	angle         float64
	stars         []star
	rng           *rand.Rand
}

// New creates a field sized width x height. The same seed yields the same frames.
func New(width, height int, seed uint64) *Field {
	f := &Field{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
	f.Resize(width, height)
	return f
}

// Resize changes the canvas and re-seeds stars for the new area.
func (f *Field) Resize(width, height int) {
	f.width = max(width, 0)
	f.height = max(height, 0)

	count := f.width * f.height / 18
	f.stars = make([]star, count)
	for i := range f.stars {
		f.stars[i] = star{
			x:     f.rng.Float64(),
			y:     f.rng.Float64(),
			depth: 0.2 + 0.8*f.rng.Float64(),
		}
	}
}

// Size returns the canvas dimensions.
func (f *Field) Size() (int, int) {
	return f.width, f.height
}

// Step advances the animation by one frame.
func (f *Field) Step() {
	f.angle = math.Mod(f.angle+spinPerStep, twoPi)
	for i := range f.stars {
		s := &f.stars[i]
		s.x -= 0.004 * s.depth
		if s.x < 0 {
			s.x += 1
			s.y = f.rng.Float64()
		}
	}
}

// Render draws the current frame as height lines of width cells.
func (f *Field) Render(palette Palette) string {
	if f.width == 0 || f.height == 0 {
		return ""
	}

	runes, kinds := f.rasterize()

	var b strings.Builder
	for row := 0; row < f.height; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		start := row * f.width
		end := start + f.width
		for col := start; col < end; {
			kind := kinds[col]
			run := col
			for run < end && kinds[run] == kind {
				run++
			}
			b.WriteString(paint(palette, kind, string(runes[col:run])))
			col = run
		}
	}
	return b.String()
}

func paint(p Palette, kind cellKind, s string) string {
	switch kind {
	case cellStar:
		return p.Star.Render(s)
	case cellGlow:
		return p.Glow.Render(s)
	case cellSphere:
		return p.Sphere.Render(s)
	case cellBand:
		return p.Band.Render(s)
	default:
		return s
	}
}

func (f *Field) rasterize() ([]rune, []cellKind) {
	size := f.width * f.height
	runes := make([]rune, size)
	kinds := make([]cellKind, size)
	for i := range runes {
		runes[i] = ' '
	}

	for _, s := range f.stars {
		col := int(s.x * float64(f.width))
		row := int(s.y * float64(f.height))
		if col < 0 || col >= f.width || row < 0 || row >= f.height {
			continue
		}
		idx := row*f.width + col
		runes[idx] = starRune(s.depth)
		kinds[idx] = cellStar
	}

	// Terminal cells are roughly twice as tall as wide, so x is scaled by 2.
	radius := math.Min(float64(f.width)/4, float64(f.height)/2) * 0.8
	if radius < 1 {
		return runes, kinds
	}
	cx := float64(f.width) / 2
	cy := float64(f.height) / 2

	lx, ly, lz := normalize(math.Cos(f.angle), -0.4, math.Sin(f.angle)+0.6)

	for row := 0; row < f.height; row++ {
		for col := 0; col < f.width; col++ {
			dx := (float64(col) + 0.5 - cx) / (2 * radius)
			dy := (float64(row) + 0.5 - cy) / radius
			d2 := dx*dx + dy*dy
			idx := row*f.width + col

			switch {
			case d2 <= 1:
				nz := math.Sqrt(1 - d2)
				light := math.Max(0, dx*lx+dy*ly+nz*lz)
				shade := int(light*float64(len(shadeRamp)-2)) + 1
				runes[idx] = rune(shadeRamp[shade])
				kinds[idx] = cellSphere

				longitude := math.Atan2(dx, nz) + f.angle
				if math.Sin(longitude*5) > 0.92 {
					kinds[idx] = cellBand
				}
			case d2 <= 1.35 && kinds[idx] == cellEmpty:
				runes[idx] = '·'
				kinds[idx] = cellGlow
			}
		}
	}
	return runes, kinds
}

func starRune(depth float64) rune {
	switch {
	case depth > 0.85:
		return '*'
	case depth > 0.55:
		return '+'
	default:
		return '.'
	}
}

func normalize(x, y, z float64) (float64, float64, float64) {
	n := math.Sqrt(x*x + y*y + z*z)
	if n == 0 {
		return 0, 0, 1
	}
	return x / n, y / n, z / n
}
