package mesh

import (
	"errors"
	"fmt"
	"image/color"
	"image/png"
	"io"
	"sort"

	"github.com/paulmach/orb"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"

	"github.com/kwv/lloydmesh/lloyd"
)

// errNothingToRender is returned when neither a region nor points are set
var errNothingToRender = errors.New("nothing to render: no region and no points")

// DefaultPalette is the set of translucent fills cycled through by cell index
func DefaultPalette() []color.NRGBA {
	return []color.NRGBA{
		{R: 0x4e, G: 0x79, B: 0xa7, A: 0x80},
		{R: 0xf2, G: 0x8e, B: 0x2b, A: 0x80},
		{R: 0xe1, G: 0x57, B: 0x59, A: 0x80},
		{R: 0x76, G: 0xb7, B: 0xb2, A: 0x80},
		{R: 0x59, G: 0xa1, B: 0x4f, A: 0x80},
		{R: 0xed, G: 0xc9, B: 0x48, A: 0x80},
		{R: 0xb0, G: 0x7a, B: 0xa1, A: 0x80},
	}
}

// nrgbaToRGBA converts color.NRGBA to color.RGBA by premultiplying alpha
// This is needed for the canvas library which expects premultiplied RGBA
func nrgbaToRGBA(c color.NRGBA) color.RGBA {
	if c.A == 0 {
		return color.RGBA{0, 0, 0, 0}
	}
	if c.A == 255 {
		return color.RGBA{c.R, c.G, c.B, 255}
	}
	alpha32 := uint32(c.A)
	return color.RGBA{
		R: uint8((uint32(c.R) * alpha32) / 255),
		G: uint8((uint32(c.G) * alpha32) / 255),
		B: uint8((uint32(c.B) * alpha32) / 255),
		A: c.A,
	}
}

// VectorRenderer draws a region, its clipped cells and the points as vector
// graphics
type VectorRenderer struct {
	Region *lloyd.Region
	Points []orb.Point
	Cells  map[int]orb.Ring

	Padding     float64           // Margin around the drawing, in region units
	Scale       float64           // Millimeters of canvas per region unit
	PointRadius float64           // Millimeters
	StrokeWidth float64           // Millimeters
	Resolution  canvas.Resolution // Resolution for PNG output (default: 300 DPI)
	Palette     []color.NRGBA
}

// NewVectorRenderer creates a vector renderer with default settings
func NewVectorRenderer(region *lloyd.Region, points []orb.Point, cells map[int]orb.Ring) *VectorRenderer {
	return &VectorRenderer{
		Region:      region,
		Points:      points,
		Cells:       cells,
		Padding:     DefaultPadding,
		Scale:       DefaultScale,
		PointRadius: DefaultPointRadius,
		StrokeWidth: DefaultStrokeWidth,
		Resolution:  canvas.DPI(DefaultResolution),
		Palette:     DefaultPalette(),
	}
}

// ApplyConfig copies non-zero render settings from cfg
func (r *VectorRenderer) ApplyConfig(cfg RenderConfig) {
	if cfg.Padding > 0 {
		r.Padding = cfg.Padding
	}
	if cfg.Scale > 0 {
		r.Scale = cfg.Scale
	}
	if cfg.PointRadius > 0 {
		r.PointRadius = cfg.PointRadius
	}
	if cfg.StrokeWidth > 0 {
		r.StrokeWidth = cfg.StrokeWidth
	}
	if cfg.Resolution > 0 {
		r.Resolution = canvas.DPI(cfg.Resolution)
	}
}

// canvasRenderer is an interface that both svg and rasterizer renderers implement
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// Size returns the canvas width and height in millimeters
func (r *VectorRenderer) Size() (float64, float64, error) {
	b, err := r.bounds()
	if err != nil {
		return 0, 0, err
	}
	width := (b.Max[0] - b.Min[0] + 2*r.Padding) * r.Scale
	height := (b.Max[1] - b.Min[1] + 2*r.Padding) * r.Scale
	return width, height, nil
}

// RenderToSVG writes the diagram as an SVG to the provided writer
func (r *VectorRenderer) RenderToSVG(w io.Writer) error {
	b, err := r.bounds()
	if err != nil {
		return err
	}
	width, height, _ := r.Size()

	svgRenderer := svg.New(w, width, height, nil)
	r.renderToCanvas(svgRenderer, b, width, height)

	// Close writes the closing tags
	if err := svgRenderer.Close(); err != nil {
		return fmt.Errorf("closing SVG: %w", err)
	}
	return nil
}

// RenderToPNG writes the diagram as a PNG to the provided writer
func (r *VectorRenderer) RenderToPNG(w io.Writer) error {
	b, err := r.bounds()
	if err != nil {
		return err
	}
	width, height, _ := r.Size()

	rast := rasterizer.New(width, height, r.Resolution, canvas.DefaultColorSpace)
	r.renderToCanvas(rast, b, width, height)

	// Rasterizer implements draw.Image interface, which embeds image.Image
	if err := png.Encode(w, rast); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return nil
}

// renderToCanvas draws background, cells, region outline and points, in that
// order (shared logic for SVG and PNG)
func (r *VectorRenderer) renderToCanvas(renderer canvasRenderer, b orb.Bound, width, height float64) {
	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	bgStyle.Stroke = canvas.Paint{Color: canvas.Transparent}
	renderer.RenderPath(canvas.Rectangle(width, height), bgStyle, canvas.Identity)

	toCanvas := func(p orb.Point) (float64, float64) {
		return (p[0] - b.Min[0] + r.Padding) * r.Scale, (p[1] - b.Min[1] + r.Padding) * r.Scale
	}

	indices := make([]int, 0, len(r.Cells))
	for i := range r.Cells {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	for _, i := range indices {
		ring := r.Cells[i]
		if len(ring) < 3 {
			continue
		}
		cellStyle := canvas.DefaultStyle
		cellStyle.Fill = canvas.Paint{Color: nrgbaToRGBA(r.color(i))}
		cellStyle.Stroke = canvas.Paint{Color: canvas.Gray}
		cellStyle.StrokeWidth = r.StrokeWidth
		renderer.RenderPath(ringPath(ring, toCanvas), cellStyle, canvas.Identity)
	}

	if r.Region != nil {
		regionStyle := canvas.DefaultStyle
		regionStyle.Fill = canvas.Paint{Color: canvas.Transparent}
		regionStyle.Stroke = canvas.Paint{Color: canvas.Black}
		regionStyle.StrokeWidth = 2 * r.StrokeWidth
		renderer.RenderPath(ringPath(r.Region.Ring(), toCanvas), regionStyle, canvas.Identity)
	}

	pointStyle := canvas.DefaultStyle
	pointStyle.Fill = canvas.Paint{Color: canvas.Black}
	pointStyle.Stroke = canvas.Paint{Color: canvas.Transparent}
	for _, p := range r.Points {
		cx, cy := toCanvas(p)
		renderer.RenderPath(canvas.Circle(r.PointRadius).Translate(cx, cy), pointStyle, canvas.Identity)
	}
}

func (r *VectorRenderer) color(i int) color.NRGBA {
	if len(r.Palette) == 0 {
		return color.NRGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}
	}
	return r.Palette[i%len(r.Palette)]
}

// bounds returns the region bound extended by every point
func (r *VectorRenderer) bounds() (orb.Bound, error) {
	var b orb.Bound
	started := false
	if r.Region != nil {
		b = r.Region.Bound()
		started = true
	}
	for _, p := range r.Points {
		if !started {
			b = p.Bound()
			started = true
			continue
		}
		b = b.Extend(p)
	}
	if !started {
		return orb.Bound{}, errNothingToRender
	}
	return b, nil
}

func ringPath(ring orb.Ring, toCanvas func(orb.Point) (float64, float64)) *canvas.Path {
	cp := &canvas.Path{}
	for i, p := range ring {
		x, y := toCanvas(p)
		if i == 0 {
			cp.MoveTo(x, y)
		} else {
			cp.LineTo(x, y)
		}
	}
	cp.Close()
	return cp
}
