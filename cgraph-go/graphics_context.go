package cgraph_go

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/segmentio/fasthash/fnv1a"
)

// GraphicsContext is what command instances draw into.
type GraphicsContext interface {
	Range() *GraphRange
	Scale() float64
	Config() *RenderConfig

	/// Sets the root attributes and the coordinate system. scale is the
	/// font-and-stroke scale: a number, "u" for uniform or "?" for uniform
	/// with a notification.
	InitRootElements(attrs []Attr, scale string)

	AppendElement(e *Element, isNewParent bool)
	PopParentElement()

	/// Namespaces an id so several graphs can share one page.
	GetID(suffix string) string
	ArrowHeadStartMarkerID() string
	ArrowHeadEndMarkerID() string

	DrawAngleMarkers(points [3]Point, style string, scale float64)
}

// GraphRange is the user coordinate window of a graph.
type GraphRange struct {
	XMin, XMax float64
	YMin, YMax float64
}

func NewGraphRange() *GraphRange {
	ret := GraphRange{}
	ret.Reset()
	return &ret
}

func (this *GraphRange) Reset() {
	this.XMin, this.XMax = -100, 100
	this.YMin, this.YMax = -100, 100
}

func (this *GraphRange) XRange() float64 { return this.XMax - this.XMin }
func (this *GraphRange) YRange() float64 { return this.YMax - this.YMin }

// Update takes "xmin ymin xmax ymax". Values that are not numbers leave the
// range alone; an empty axis falls back to -100..100.
func (this *GraphRange) Update(values []string) {
	f := ParseFloats(values...)
	if len(f) == 4 && !anyNaN(f) {
		this.XMin, this.YMin, this.XMax, this.YMax = f[0], f[1], f[2], f[3]
	}
	if this.XMin >= this.XMax {
		this.XMin, this.XMax = -100, 100
	}
	if this.YMin >= this.YMax {
		this.YMin, this.YMax = -100, 100
	}
}

type Attr struct {
	Name  string
	Value string
}

// Element is a node of the generated SVG document.
type Element struct {
	Tag      string
	Text     string
	Children []*Element
	attrs_   []Attr
}

var defaultAttributes = map[string][]Attr{
	"svg":           {{"xmlns", "http://www.w3.org/2000/svg"}, {"width", "300"}, {"height", "300"}, {"viewBox", "0 0 300 300"}},
	"circle":        {{"cx", "0"}, {"cy", "0"}, {"r", "1"}},
	"line":          {{"x1", "0"}, {"y1", "0"}, {"x2", "10"}, {"y2", "0"}},
	"text":          {{"x", "0"}, {"y", "0"}, {"fill", "black"}, {"stroke", "none"}},
	"path":          {{"d", " "}},
	"rect":          {{"x", "0"}, {"y", "0"}, {"width", "1"}, {"height", "1"}},
	"foreignObject": {{"x", "0"}, {"y", "0"}, {"width", "10"}, {"height", "10"}},
	"ellipse":       {{"cx", "0"}, {"cy", "0"}, {"rx", "10"}, {"ry", "5"}},
	"image":         {{"x", "0"}, {"y", "50"}, {"width", "50"}, {"height", "50"}, {"preserveAspectRatio", "xMinYMin"}},
}

// NewElement creates an element, seeded with the tag's default attributes
// when withDefaults is set.
func NewElement(tag string, withDefaults bool) *Element {
	ret := Element{Tag: tag}
	if withDefaults {
		ret.SetAttrs(defaultAttributes[tag])
	}
	return &ret
}

func (this *Element) Set(name, value string) {
	for i := range this.attrs_ {
		if this.attrs_[i].Name == name {
			this.attrs_[i].Value = value
			return
		}
	}
	this.attrs_ = append(this.attrs_, Attr{name, value})
}

func (this *Element) SetFloat(name string, value float64) {
	this.Set(name, FormatNumber(value))
}

func (this *Element) SetAttrs(attrs []Attr) {
	for _, a := range attrs {
		this.Set(a.Name, a.Value)
	}
}

func (this *Element) Get(name string) (string, bool) {
	for _, a := range this.attrs_ {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

func (this *Element) Has(name string) bool {
	_, ok := this.Get(name)
	return ok
}

func (this *Element) Attrs() []Attr { return this.attrs_ }

func (this *Element) AppendChild(child *Element) {
	this.Children = append(this.Children, child)
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func (this *Element) writeTo(sb *strings.Builder) {
	sb.WriteByte('<')
	sb.WriteString(this.Tag)
	for _, a := range this.attrs_ {
		fmt.Fprintf(sb, ` %s="%s"`, a.Name, escapeXML(a.Value))
	}
	if this.Text == "" && len(this.Children) == 0 {
		sb.WriteString("/>")
		return
	}
	sb.WriteByte('>')
	sb.WriteString(escapeXML(this.Text))
	for _, child := range this.Children {
		child.writeTo(sb)
	}
	sb.WriteString("</")
	sb.WriteString(this.Tag)
	sb.WriteByte('>')
}

func (this *Element) String() string {
	var sb strings.Builder
	this.writeTo(&sb)
	return sb.String()
}

func (this *Element) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, this.String())
	return int64(n), err
}

const kPrescaledStrokeWidth = "data-cgraph-prescaled-stroke-width"

// / SVGContext renders command instances into an SVG element tree.
type SVGContext struct {
	config_ *RenderConfig

	id_prefix_ string
	range_     *GraphRange

	scale_        float64
	use_uniform_  bool
	show_uniform_ bool

	root_  *Element
	stack_ []*Element
}

// NewSVGContext creates an empty drawing. seed makes the generated ids
// unique per graph; the same seed always yields the same ids.
func NewSVGContext(config *RenderConfig, seed string) *SVGContext {
	ret := SVGContext{}
	if config == nil {
		config = NewRenderConfig()
	}
	ret.config_ = config
	ret.id_prefix_ = fmt.Sprintf("cg%08x_", uint32(fnv1a.HashString64(seed)))
	ret.range_ = NewGraphRange()
	ret.scale_ = 1.0
	ret.root_ = NewElement("svg", true)
	ret.root_.Set("xmlns:xlink", "http://www.w3.org/1999/xlink")
	ret.root_.Set("class", "cgraph-root")
	ret.stack_ = []*Element{ret.root_}
	ret.appendDefaultMarkers()
	return &ret
}

func (this *SVGContext) Range() *GraphRange    { return this.range_ }
func (this *SVGContext) Scale() float64        { return this.scale_ }
func (this *SVGContext) Config() *RenderConfig { return this.config_ }
func (this *SVGContext) Root() *Element        { return this.root_ }

func (this *SVGContext) GetID(suffix string) string {
	return this.id_prefix_ + suffix
}

func (this *SVGContext) ArrowHeadStartMarkerID() string { return this.GetID("arrow_start") }
func (this *SVGContext) ArrowHeadEndMarkerID() string   { return this.GetID("arrow_end") }

func (this *SVGContext) WriteTo(w io.Writer) (int64, error) {
	return this.root_.WriteTo(w)
}

func (this *SVGContext) String() string {
	return this.root_.String()
}

// Marker paths point along +x so orient=auto turns them with the stroke.
func (this *SVGContext) appendDefaultMarkers() {
	defs := NewElement("defs", false)

	end := NewElement("marker", false)
	end.SetAttrs([]Attr{{"id", this.ArrowHeadEndMarkerID()}, {"viewBox", "0 0 10 10"},
		{"refX", "10"}, {"refY", "5"}, {"markerWidth", "6"}, {"markerHeight", "6"},
		{"orient", "auto"}, {"markerUnits", "strokeWidth"}})
	endPath := NewElement("path", false)
	endPath.Set("d", "M 0 0 L 10 4 L 10 6 L 0 10 z")
	end.AppendChild(endPath)
	defs.AppendChild(end)

	start := NewElement("marker", false)
	start.SetAttrs([]Attr{{"id", this.ArrowHeadStartMarkerID()}, {"viewBox", "0 0 10 10"},
		{"refX", "0"}, {"refY", "5"}, {"markerWidth", "6"}, {"markerHeight", "6"},
		{"orient", "auto"}, {"markerUnits", "strokeWidth"}})
	startPath := NewElement("path", false)
	startPath.Set("d", "M 10 0 L 0 4 L 0 6 L 10 10 z")
	start.AppendChild(startPath)
	defs.AppendChild(start)

	this.root_.AppendChild(defs)
}

func (this *SVGContext) setScale(scale string) {
	switch scale {
	case "u":
		this.use_uniform_ = true
	case "?":
		this.use_uniform_ = true
		this.show_uniform_ = true
	default:
		if f, err := strconv.ParseFloat(strings.TrimSpace(scale), 64); err == nil {
			this.scale_ = f
		}
		this.use_uniform_ = false
	}
}

func (this *SVGContext) InitRootElements(attrs []Attr, scale string) {
	if scale != "" {
		this.setScale(scale)
	}
	this.root_.SetAttrs(attrs)
	this.root_.Set("viewBox", fmt.Sprintf("0 0 %s %s", FormatNumber(this.range_.XRange()), FormatNumber(this.range_.YRange())))
	this.root_.Set("preserveAspectRatio", "xMinYMin")

	g := NewElement("g", false)
	g.SetAttrs([]Attr{
		{"stroke", "#000"},
		{"stroke-opacity", "1"},
		{"stroke-width", FormatNumber(this.config_.DefaultStrokeWidth)},
		{"font-size", FormatNumber(this.config_.DefaultFontSize)},
		{"fill", "none"},
		{"transform", fmt.Sprintf("translate(%s,%s) scale(1,-1)", FormatNumber(-this.range_.XMin), FormatNumber(this.range_.YMax))},
	})
	this.AppendElement(g, true)
}

var lengthRe = regexp.MustCompile(`^((?:[0-9]*[.])?[0-9]+)(\D*)$`)

// Size of an svg length in pixels; false for units that depend on layout.
func (this *SVGContext) lengthInPixels(value string) (float64, bool) {
	m := lengthRe.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	switch m[2] {
	case "", "px":
		return f, true
	case "em":
		return f * this.config_.DefaultFontSize, true
	case "pt":
		return f * 4 / 3, true
	}
	return 0, false
}

// Uniform scaling makes one user unit of stroke or font equal one pixel of
// the rendered root.
func (this *SVGContext) computeUniformScale() {
	w, _ := this.root_.Get("width")
	h, _ := this.root_.Get("height")
	wpx, okw := this.lengthInPixels(w)
	hpx, okh := this.lengthInPixels(h)
	pixelsPerUnit := math.Inf(1)
	if okw && wpx > 0 {
		pixelsPerUnit = wpx / this.range_.XRange()
	}
	if okh && hpx > 0 {
		pixelsPerUnit = math.Min(pixelsPerUnit, hpx/this.range_.YRange())
	}
	if math.IsInf(pixelsPerUnit, 1) {
		return
	}
	this.scale_ = 1.0 / pixelsPerUnit
	if this.show_uniform_ {
		Info("fss = %s", FormatNumber(math.Round(this.scale_*10000)/10000))
	}
}

func (this *SVGContext) AppendElement(e *Element, isNewParent bool) {
	parent := this.stack_[len(this.stack_)-1]
	parent.AppendChild(e)

	if isNewParent && e.Tag == "g" {
		// The stroke width must be explicit for the scaling below to work.
		if !e.Has("stroke-width") {
			value, ok := parent.Get(kPrescaledStrokeWidth)
			if !ok {
				value = FormatNumber(this.config_.DefaultStrokeWidth)
			}
			e.Set("stroke-width", value)
		}
		sw, _ := e.Get("stroke-width")
		e.Set(kPrescaledStrokeWidth, sw)

		if this.use_uniform_ && len(this.stack_) == 1 {
			this.computeUniformScale()
		}
		this.stack_ = append(this.stack_, e)
	}

	if sw, ok := e.Get("stroke-width"); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(sw), 64); err == nil {
			e.SetFloat("stroke-width", f*this.scale_)
		}
	}
}

// PopParentElement closes the innermost group. The svg root and the
// coordinate system group are never popped.
func (this *SVGContext) PopParentElement() {
	if len(this.stack_) > 2 && this.stack_[len(this.stack_)-1].Tag == "g" {
		this.stack_ = this.stack_[:len(this.stack_)-1]
	}
}

func (this *SVGContext) Depth() int { return len(this.stack_) }

// scaleTo returns p, relative to origin, resized to length radius.
func scaleTo(p Point, radius float64) Point {
	f := radius / math.Hypot(p.X, p.Y)
	return Point{p.X * f, p.Y * f}
}

// The points must be counter clockwise; points[1] is the vertex.
func (this *SVGContext) drawRoundedAngleMarker(points [3]Point, radius float64) {
	vertex := points[1]
	arcStart := scaleTo(points[2].Sub(vertex), radius).Add(vertex)
	arcEnd := scaleTo(points[0].Sub(vertex), radius).Add(vertex)

	e := NewElement("path", true)
	e.Set("d", fmt.Sprintf("M %s A %s %s 0 0 1 %s", pathPoint(arcStart), FormatNumber(radius), FormatNumber(radius), pathPoint(arcEnd)))
	this.AppendElement(e, false)
}

func (this *SVGContext) drawSquareAngleMarker(points [3]Point, radius float64) {
	vertex := points[1]
	start := scaleTo(points[2].Sub(vertex), radius)
	end := scaleTo(points[0].Sub(vertex), radius)
	mid := scaleTo(Point{0.5 * (start.X + end.X), 0.5 * (start.Y + end.Y)}, math.Sqrt2*radius)

	e := NewElement("path", true)
	e.Set("d", fmt.Sprintf("M %s L %s L %s", pathPoint(start.Add(vertex)), pathPoint(mid.Add(vertex)), pathPoint(end.Add(vertex))))
	this.AppendElement(e, false)
}

// DrawAngleMarkers draws ")", "))", ")))" arcs or an "r" right angle box at
// points[1].
func (this *SVGContext) DrawAngleMarkers(points [3]Point, style string, scale float64) {
	radii := [3]float64{10 * scale, 13 * scale, 16 * scale}
	switch style {
	case ")":
		this.drawRoundedAngleMarker(points, radii[0])
	case "))":
		this.drawRoundedAngleMarker(points, radii[0])
		this.drawRoundedAngleMarker(points, radii[1])
	case ")))":
		for _, r := range radii {
			this.drawRoundedAngleMarker(points, r)
		}
	case "r":
		this.drawSquareAngleMarker(points, radii[0])
	}
}

func pathPoint(p Point) string {
	return FormatNumber(p.X) + " " + FormatNumber(p.Y)
}
