package cgraph_go

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	idParam      = Param{"id", 1, "name", false}
	opacityParam = Param{"o", 1, "opacity", true}
	strokeParams = Params{
		{"sc", 1, "stroke", true},
		{"sw", 1, "stroke-width", true},
		{"so", 1, "stroke-opacity", true},
		{"sda", 1, "stroke-dasharray", true},
	}
	fillParams = Params{
		{"f", 1, "fill", true},
		{"fo", 1, "fill-opacity", true},
	}
	markerParams = Params{
		{"ms", 1, "marker-start", false},
		{"me", 1, "marker-end", false},
	}
)

func join(parts ...any) Params {
	var ret Params
	for _, part := range parts {
		switch p := part.(type) {
		case Param:
			ret = append(ret, p)
		case Params:
			ret = append(ret, p...)
		}
	}
	return ret
}

// appendTo defers drawing e into ctx.
func appendTo(ctx GraphicsContext, e *Element) func() {
	return func() { ctx.AppendElement(e, false) }
}

func setMarkers(ctx GraphicsContext, e *Element, args Args) {
	if args.First("me") == "arrow" {
		e.Set("marker-end", "url(#"+ctx.ArrowHeadEndMarkerID()+")")
	}
	if args.First("ms") == "arrow" {
		e.Set("marker-start", "url(#"+ctx.ArrowHeadStartMarkerID()+")")
	}
}

// newShape creates a default-seeded element carrying the attributes of args.
func newShape(tag string, args Args, params Params) *Element {
	e := NewElement(tag, true)
	e.SetAttrs(ExtractAttributesFromArgs(args, params))
	return e
}

// DefaultRegistry returns a registry holding every built-in command.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, def := range builtinCommands() {
		r.Register(def)
	}
	r.Alias("img", "image")
	return r
}

func builtinCommands() []*CommandDef {
	return []*CommandDef{
		initCommand(),
		pointCommand(),
		pointsCommand(),
		circleCommand(),
		ellipseCommand(),
		lineCommand("line", "straight line between two points"),
		lineCommand("arrow", "line ending in an arrow head"),
		textCommand(),
		groupCommand(),
		endGroupCommand(),
		cloneCommand(),
		pathCommand(),
		rectCommand(),
		triangleCommand(),
		angleCommand(),
		gridCommand(),
		axisCommand(),
		braceCommand(),
		funcCommand(),
		mtextCommand(),
		imageCommand(),
	}
}

func initCommand() *CommandDef {
	def := &CommandDef{Name: "init", Desc: "size, coordinate range and scale of the graph"}
	def.Params = Params{
		{"w", 1, "width", true},
		{"h", 1, "height", true},
		{"r", 4, "range", false},
		{"bo", 1, "border", false},
		{"pad", 1, "padding", false},
		{"fss", 1, "font-and-stroke-scale", false},
	}
	def.CreateInstance = func(ctx GraphicsContext, args Args) (*Instance, error) {
		gr := ctx.Range()
		if args.Has("r") {
			gr.Update(args["r"])
		}

		// scratch element used as an ordered attribute set
		root := NewElement("svg", false)
		root.SetAttrs(ExtractAttributesFromArgs(args, def.Params))
		width, hasWidth := root.Get("width")
		height, hasHeight := root.Get("height")

		if !hasWidth && !hasHeight {
			width, hasWidth = "30em", true
			root.Set("width", width)
		}
		switch {
		case hasWidth && !hasHeight:
			// keep the aspect ratio of the graph range
			if m := lengthRe.FindStringSubmatch(width); m != nil {
				if v, err := strconv.ParseFloat(m[1], 64); err == nil {
					height = FormatNumber(v*gr.YRange()/gr.XRange()) + m[2]
					root.Set("height", height)
				}
			}
		case !hasWidth && hasHeight:
			if m := lengthRe.FindStringSubmatch(height); m != nil {
				if v, err := strconv.ParseFloat(m[1], 64); err == nil {
					width = FormatNumber(v*gr.XRange()/gr.YRange()) + m[2]
					root.Set("width", width)
				}
			}
		}

		style := ""
		if args.Has("bo") {
			border := args.First("bo")
			if plainNumberRe.MatchString(border) {
				border += "px solid #00000033"
			}
			style += "border:" + border + ";"
		}
		if args.Has("pad") {
			padding := args.First("pad")
			if plainNumberRe.MatchString(padding) {
				padding += "px"
			}
			style += "padding:" + padding + ";"
		}
		if style != "" {
			root.Set("style", style)
		}

		ctx.InitRootElements(root.Attrs(), args.First("fss"))

		return &Instance{
			Name:     "init",
			Bindings: Bindings{"w": width, "h": height, "fss": ctx.Scale()},
			Render:   func() {},
		}, nil
	}
	return def
}

// scaledRadius applies the font-and-stroke scale to a point radius.
func scaledRadius(ctx GraphicsContext, args Args) string {
	if !args.Has("r") {
		return FormatNumber(3 * ctx.Scale())
	}
	r, err := strconv.ParseFloat(args.First("r"), 64)
	if err != nil {
		return args.First("r")
	}
	return FormatNumber(r * ctx.Scale())
}

func pointStyle(ctx GraphicsContext, e *Element, args Args) {
	if !args.Has("sw") {
		e.Set("stroke-width", "0")
	}
	if !args.Has("f") {
		e.Set("fill", "#000")
	}
	e.Set("r", scaledRadius(ctx, args))
}

func pointCommand() *CommandDef {
	def := &CommandDef{Name: "point", Desc: "filled dot"}
	def.Params = join(idParam, Param{"p", 2, "point", false}, Param{"r", 1, "r", true}, strokeParams, fillParams, opacityParam)
	def.CreateInstance = func(ctx GraphicsContext, args Args) (*Instance, error) {
		e := newShape("circle", args, def.Params)
		p, _ := pointArg(args, "p")
		e.SetFloat("cx", p.X)
		e.SetFloat("cy", p.Y)
		pointStyle(ctx, e, args)
		return &Instance{
			Name:     args.First("id"),
			Bindings: Bindings{"p": p},
			Render:   appendTo(ctx, e),
		}, nil
	}
	return def
}

func pointsCommand() *CommandDef {
	def := &CommandDef{Name: "points", Desc: "several dots from one coordinate list"}
	def.Params = join(idParam, Param{"p", 1, "points", false}, Param{"r", 1, "r", true}, strokeParams, fillParams, opacityParam)
	def.CreateInstance = func(ctx GraphicsContext, args Args) (*Instance, error) {
		points := coordinateList(args.First("p"))
		elements := make([]*Element, 0, len(points))
		for _, p := range points {
			e := newShape("circle", args, def.Params)
			pointStyle(ctx, e, args)
			e.SetFloat("cx", p.X)
			e.SetFloat("cy", p.Y)
			elements = append(elements, e)
		}
		return &Instance{
			Name:     args.First("id"),
			Bindings: Bindings{"p": points},
			Render: func() {
				for _, e := range elements {
					ctx.AppendElement(e, false)
				}
			},
		}, nil
	}
	return def
}

func circleCommand() *CommandDef {
	def := &CommandDef{Name: "circle", Desc: "circle around a center point"}
	def.Params = join(idParam, Param{"c", 2, "center-point", false}, Param{"r", 1, "r", true}, strokeParams, fillParams, opacityParam)
	def.CreateInstance = func(ctx GraphicsContext, args Args) (*Instance, error) {
		e := newShape("circle", args, def.Params)
		c, _ := pointArg(args, "c")
		e.SetFloat("cx", c.X)
		e.SetFloat("cy", c.Y)
		return &Instance{
			Name:     args.First("id"),
			Bindings: Bindings{"c": c},
			Render:   appendTo(ctx, e),
		}, nil
	}
	return def
}

func ellipseCommand() *CommandDef {
	def := &CommandDef{Name: "ellipse", Desc: "ellipse from center and radii, corner points or bounds"}
	def.Params = join(idParam,
		Param{"c", 2, "center-point", false},
		Param{"rx", 1, "rx", true},
		Param{"ry", 1, "ry", true},
		Param{"p", 4, "points", false},
		Param{"b", 4, "bounds", false},
		strokeParams, fillParams, opacityParam)
	def.CreateInstance = func(ctx GraphicsContext, args Args) (*Instance, error) {
		e := newShape("ellipse", args, def.Params)
		c, _ := pointArg(args, "c")
		if p, ok := floatsArg(args, "p"); ok {
			x1, y1, x2, y2 := p[0], p[1], p[2], p[3]
			c = Point{(x2-x1)/2 + x1, (y2-y1)/2 + y1}
			e.SetFloat("rx", math.Abs(x2-x1)/2)
			e.SetFloat("ry", math.Abs(y2-y1)/2)
		}
		if b, ok := floatsArg(args, "b"); ok {
			w := math.Max(b[2], 0)
			h := math.Max(b[3], 0)
			c = Point{b[0] + w/2, b[1] + h/2}
			e.SetFloat("rx", w/2)
			e.SetFloat("ry", h/2)
		}
		e.SetFloat("cx", c.X)
		e.SetFloat("cy", c.Y)
		return &Instance{
			Name:     args.First("id"),
			Bindings: Bindings{"c": c},
			Render:   appendTo(ctx, e),
		}, nil
	}
	return def
}

// lineCommand builds both "line" and "arrow"; an arrow always carries an
// end marker.
func lineCommand(name, desc string) *CommandDef {
	def := &CommandDef{Name: name, Desc: desc}
	def.Params = join(idParam,
		Param{"p", 4, "points", false},
		Param{"p1", 2, "point1", false},
		Param{"p2", 2, "point2", false},
		strokeParams, markerParams, opacityParam)
	def.CreateInstance = func(ctx GraphicsContext, args Args) (*Instance, error) {
		e := newShape("line", args, def.Params)
		p1 := Point{0, 0}
		p2 := Point{1, 1}
		if p, ok := floatsArg(args, "p"); ok {
			p1 = Point{p[0], p[1]}
			p2 = Point{p[2], p[3]}
		}
		if p, ok := pointArg(args, "p1"); ok {
			p1 = p
		}
		if p, ok := pointArg(args, "p2"); ok {
			p2 = p
		}
		e.SetFloat("x1", p1.X)
		e.SetFloat("y1", p1.Y)
		e.SetFloat("x2", p2.X)
		e.SetFloat("y2", p2.Y)
		setMarkers(ctx, e, args)
		if name == "arrow" {
			e.Set("marker-end", "url(#"+ctx.ArrowHeadEndMarkerID()+")")
		}
		return &Instance{
			Name:     args.First("id"),
			Bindings: Bindings{"p1": p1, "p2": p2},
			Render:   appendTo(ctx, e),
		}, nil
	}
	return def
}

func textCommand() *CommandDef {
	def := &CommandDef{Name: "text", Desc: "text label at a point"}
	def.Params = Params{
		idParam,
		{"p", 2, "point", false},
		{"f", 1, "fill", true},
		{"fs", 1, "font-size", true},
		{"ff", 1, "font-family", true},
		{"ha", 1, "horizontal-alignment", false},
		{"t", 1, "text", false},
		opacityParam,
	}
	def.CreateInstance = func(ctx GraphicsContext, args Args) (*Instance, error) {
		text := args.First("t")
		e := newShape("text", args, def.Params)
		e.Text = text
		p, _ := pointArg(args, "p")
		switch args.First("ha") {
		case "c", "center":
			e.Set("text-anchor", "middle")
		case "l", "left":
			e.Set("text-anchor", "start")
		case "r", "right":
			e.Set("text-anchor", "end")
		}
		s := ctx.Scale()
		// undo the flipped y axis of the coordinate group
		e.Set("transform", fmt.Sprintf("translate(%s,%s) scale(%s, %s)", FormatNumber(p.X), FormatNumber(p.Y), FormatNumber(s), FormatNumber(-s)))
		e.Set("x", "0")
		e.Set("y", "0")
		return &Instance{
			Name:     args.First("id"),
			Bindings: Bindings{"t": text},
			Render:   appendTo(ctx, e),
		}, nil
	}
	return def
}

var transformParam = Param{"xf", 1, "transform", false}

func groupCommand() *CommandDef {
	def := &CommandDef{Name: "g", Desc: "open a group; following commands draw into it until endg"}
	def.Params = join(strokeParams, fillParams,
		Param{"fs", 1, "font-size", true},
		Param{"ff", 1, "font-family", true},
		opacityParam, transformParam,
		Param{"id", 1, "id", false})
	def.CreateInstance = func(ctx GraphicsContext, args Args) (*Instance, error) {
		e := NewElement("g", false)
		e.SetAttrs(ExtractAttributesFromArgs(args, def.Params))
		if args.Has("id") {
			e.Set("id", ctx.GetID(args.First("id")))
		}
		if xf := ParseTransformArg(args.First("xf")); xf != "" {
			e.Set("transform", xf)
		}
		return &Instance{Render: func() { ctx.AppendElement(e, true) }}, nil
	}
	return def
}

func endGroupCommand() *CommandDef {
	def := &CommandDef{Name: "endg", Desc: "close the innermost group"}
	def.CreateInstance = func(ctx GraphicsContext, args Args) (*Instance, error) {
		return &Instance{Render: ctx.PopParentElement}, nil
	}
	return def
}

func cloneCommand() *CommandDef {
	def := &CommandDef{Name: "clone", Desc: "reuse a group by id"}
	def.Params = Params{
		{"id", 1, "id", false},
		{"x", 1, "x", true},
		{"y", 1, "y", true},
		{"sc", 1, "stroke", true},
		// no stroke-width: the cloned group already defines its own.
		{"so", 1, "stroke-opacity", true},
		{"sda", 1, "stroke-dasharray", true},
		{"f", 1, "fill", true},
		{"fo", 1, "fill-opacity", true},
		{"fs", 1, "font-size", true},
		{"ff", 1, "font-family", true},
		opacityParam,
		transformParam,
	}
	def.CreateInstance = func(ctx GraphicsContext, args Args) (*Instance, error) {
		e := NewElement("use", false)
		e.SetAttrs(ExtractAttributesFromArgs(args, def.Params))
		if args.Has("id") {
			e.Set("xlink:href", "#"+ctx.GetID(args.First("id")))
		}
		if xf := ParseTransformArg(args.First("xf")); xf != "" {
			e.Set("transform", xf)
		}
		return &Instance{Render: appendTo(ctx, e)}, nil
	}
	return def
}

func pathCommand() *CommandDef {
	def := &CommandDef{Name: "path", Desc: "raw SVG path data"}
	def.Params = join(Param{"d", 1, "d", true}, strokeParams, markerParams, fillParams, opacityParam)
	def.CreateInstance = func(ctx GraphicsContext, args Args) (*Instance, error) {
		e := newShape("path", args, def.Params)
		setMarkers(ctx, e, args)
		return &Instance{Render: appendTo(ctx, e)}, nil
	}
	return def
}

func rectCommand() *CommandDef {
	def := &CommandDef{Name: "rect", Desc: "rectangle from bounds"}
	def.Params = join(idParam,
		Param{"b", 4, "bounds", false},
		Param{"x", 1, "x", true},
		Param{"y", 1, "y", true},
		Param{"w", 1, "width", true},
		Param{"h", 1, "height", true},
		Param{"cr", 1, "corner-radius", false},
		Param{"rx", 1, "rx", true},
		Param{"ry", 1, "ry", true},
		strokeParams, fillParams, opacityParam)
	def.CreateInstance = func(ctx GraphicsContext, args Args) (*Instance, error) {
		e := newShape("rect", args, def.Params)
		b := Bounds{0, 0, 10, 10}
		if f, ok := floatsArg(args, "b"); ok {
			b = Bounds{f[0], f[1], f[2], f[3]}
		}
		e.SetFloat("x", b.X)
		e.SetFloat("y", b.Y)
		e.SetFloat("width", b.W)
		e.SetFloat("height", b.H)
		if args.Has("cr") {
			e.Set("rx", args.First("cr"))
			e.Set("ry", args.First("cr"))
		}
		return &Instance{
			Name:     args.First("id"),
			Bindings: Bindings{"b": b},
			Render:   appendTo(ctx, e),
		}, nil
	}
	return def
}

func threePoints(f []float64) [3]Point {
	return [3]Point{{f[0], f[1]}, {f[2], f[3]}, {f[4], f[5]}}
}

func triangleCommand() *CommandDef {
	def := &CommandDef{Name: "triangle", Desc: "triangle with optional angle markers"}
	def.Params = join(idParam, Param{"p", 6, "points", false}, strokeParams, fillParams, opacityParam,
		Param{"a1", 1, "angle1-type", false},
		Param{"a2", 1, "angle2-type", false},
		Param{"a3", 1, "angle3-type", false},
		Param{"a1s", 1, "angle1-scale", false},
		Param{"a2s", 1, "angle2-scale", false},
		Param{"a3s", 1, "angle3-scale", false})
	def.CreateInstance = func(ctx GraphicsContext, args Args) (*Instance, error) {
		e := newShape("path", args, def.Params)
		pts := [3]Point{{0, 0}, {1, 0}, {1, 1}}
		if f, ok := floatsArg(args, "p"); ok {
			pts = threePoints(f)
		}
		p1, p2, p3 := pts[0], pts[1], pts[2]
		e.Set("d", fmt.Sprintf("M %s L %s L %s Z", pathPoint(p1), pathPoint(p2), pathPoint(p3)))
		return &Instance{
			Name:     args.First("id"),
			Bindings: Bindings{"p1": p1, "p2": p2, "p3": p3},
			Render: func() {
				corners := [][3]Point{{p3, p1, p2}, {p1, p2, p3}, {p2, p3, p1}}
				for i, corner := range corners {
					flag := fmt.Sprintf("a%d", i+1)
					if args.Has(flag) {
						ctx.DrawAngleMarkers(corner, args.First(flag), GetFloatValueFromArgs(args, flag+"s", 1.0))
					}
				}
				ctx.AppendElement(e, false)
			},
		}, nil
	}
	return def
}

func angleCommand() *CommandDef {
	def := &CommandDef{Name: "angle", Desc: "angle marker at the middle of three points"}
	def.Params = Params{
		{"p", 6, "points", false},
		{"a", 1, "angle-type", false},
		{"as", 1, "angle-scale", false},
	}
	def.CreateInstance = func(ctx GraphicsContext, args Args) (*Instance, error) {
		f, ok := floatsArg(args, "p")
		if !ok || !args.Has("a") {
			return nil, nil
		}
		pts := threePoints(f)
		style := args.First("a")
		scale := GetFloatValueFromArgs(args, "as", 1.0)
		return &Instance{Render: func() { ctx.DrawAngleMarkers(pts, style, scale) }}, nil
	}
	return def
}

// rangeArg reads "xmin ymin xmax ymax" from flag, falling back to the graph
// range.
func rangeArg(ctx GraphicsContext, args Args) (xMin, yMin, xMax, yMax float64) {
	gr := ctx.Range()
	if f, ok := floatsArg(args, "r"); ok {
		return f[0], f[1], f[2], f[3]
	}
	return gr.XMin, gr.YMin, gr.XMax, gr.YMax
}

const kMaxGridLines = 10000

var defaultGridSpacings = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100}

func gridCommand() *CommandDef {
	def := &CommandDef{Name: "grid", Desc: "background grid"}
	def.Params = join(Param{"r", 4, "range", false}, Param{"sp", 2, "spacing", false}, strokeParams, opacityParam)
	def.CreateInstance = func(ctx GraphicsContext, args Args) (*Instance, error) {
		xMin, yMin, xMax, yMax := rangeArg(ctx, args)
		var xSpacing, ySpacing float64
		if f, ok := floatsArg(args, "sp"); ok {
			xSpacing, ySpacing = f[0], f[1]
		} else {
			xSpacing = getNearestValue((xMax-xMin)/10, defaultGridSpacings)
			ySpacing = getNearestValue((yMax-yMin)/10, defaultGridSpacings)
		}
		if xSpacing <= 0 || ySpacing <= 0 {
			return nil, fmt.Errorf("grid spacing must be positive")
		}
		if (xMax-xMin)/xSpacing > kMaxGridLines || (yMax-yMin)/ySpacing > kMaxGridLines {
			return nil, fmt.Errorf("grid spacing too small for its range")
		}

		var d strings.Builder
		for x := roundToNearestMultiple(xMin, xSpacing); x <= xMax; x += xSpacing {
			fmt.Fprintf(&d, "M %s %s V %s ", FormatNumber(x), FormatNumber(yMin), FormatNumber(yMax))
		}
		for y := roundToNearestMultiple(yMin, ySpacing); y <= yMax; y += ySpacing {
			fmt.Fprintf(&d, "M %s %s H %s ", FormatNumber(xMin), FormatNumber(y), FormatNumber(xMax))
		}

		e := newShape("path", args, def.Params)
		e.Set("d", d.String())
		if !args.Has("sw") {
			e.Set("stroke-width", "0.5")
		}
		if !args.Has("so") {
			e.Set("stroke-opacity", "0.2")
		}
		return &Instance{Render: appendTo(ctx, e)}, nil
	}
	return def
}

func axisCommand() *CommandDef {
	def := &CommandDef{Name: "axis", Desc: "x and y axes with arrow heads"}
	def.Params = join(Param{"r", 4, "range", false}, strokeParams, opacityParam)
	def.CreateInstance = func(ctx GraphicsContext, args Args) (*Instance, error) {
		xMin, yMin, xMax, yMax := rangeArg(ctx, args)
		axis := func(d string) *Element {
			e := newShape("path", args, def.Params)
			e.Set("marker-start", "url(#"+ctx.ArrowHeadStartMarkerID()+")")
			e.Set("marker-end", "url(#"+ctx.ArrowHeadEndMarkerID()+")")
			if !args.Has("sw") {
				e.Set("stroke-width", "1")
			}
			if !args.Has("so") {
				e.Set("stroke-opacity", "0.6")
			}
			e.Set("d", d)
			return e
		}
		xAxis := axis(fmt.Sprintf("M %s 0 H %s", FormatNumber(xMin), FormatNumber(xMax)))
		yAxis := axis(fmt.Sprintf("M 0 %s V %s", FormatNumber(yMin), FormatNumber(yMax)))
		return &Instance{Render: func() {
			ctx.AppendElement(xAxis, false)
			ctx.AppendElement(yAxis, false)
		}}, nil
	}
	return def
}

func braceCommand() *CommandDef {
	def := &CommandDef{Name: "brace", Desc: "curly brace along a baseline, pointing at a tip"}
	def.Params = join(Param{"p", 6, "points", false}, strokeParams, opacityParam)
	def.CreateInstance = func(ctx GraphicsContext, args Args) (*Instance, error) {
		f, ok := floatsArg(args, "p")
		if !ok {
			return nil, nil
		}
		e := newShape("path", args, def.Params)
		e.Set("d", bracePath(threePoints(f)))
		return &Instance{Render: appendTo(ctx, e)}, nil
	}
	return def
}

func nonZero(v float64) float64 {
	if v == 0 {
		return 0.000001
	}
	return v
}

// bracePath draws a brace whose baseline runs from pts[0] to pts[1] with
// its tip at pts[2].
func bracePath(pts [3]Point) string {
	p1, p2, p3 := pts[0], pts[1], pts[2]

	baseSlope := nonZero((p2.Y - p1.Y) / nonZero(p2.X-p1.X))
	baseIntercept := p1.Y - baseSlope*p1.X

	perpSlope := -1 / baseSlope
	perpIntercept := p3.Y - perpSlope*p3.X

	// foot of the perpendicular from the tip onto the baseline
	p4x := (perpIntercept - baseIntercept) / nonZero(baseSlope-perpSlope)
	p4 := Point{p4x, baseSlope*p4x + baseIntercept}

	perpMid := Point{(p4.X-p3.X)/2 + p3.X, (p4.Y-p3.Y)/2 + p3.Y}
	delta := perpMid.Sub(p4)
	p1Mid := p1.Add(delta)
	p2Mid := p2.Add(delta)

	length := math.Hypot(p1Mid.X-p1.X, p1Mid.Y-p1.Y)
	unit := scaleTo(p2.Sub(p1), 1)
	step := unit.Scale(length)

	p5 := p1Mid.Add(step)
	p6 := perpMid.Sub(step)
	p7 := perpMid.Add(step)
	p8 := p2Mid.Sub(step)

	return fmt.Sprintf("M %s Q %s %s L %s Q %s %s M %s Q %s %s L %s Q %s %s",
		pathPoint(p1), pathPoint(p1Mid), pathPoint(p5),
		pathPoint(p6), pathPoint(perpMid), pathPoint(p3),
		pathPoint(p3), pathPoint(perpMid), pathPoint(p7),
		pathPoint(p8), pathPoint(p2Mid), pathPoint(p2))
}

const kMaxFuncDivisions = 100000

func funcCommand() *CommandDef {
	def := &CommandDef{Name: "func", Desc: "plot y = f(x) over a range"}
	def.Params = join(Param{"fn", 1, "func", false}, Param{"r", 3, "range", false}, strokeParams, fillParams, opacityParam)
	def.CreateInstance = func(ctx GraphicsContext, args Args) (*Instance, error) {
		r, ok := floatsArg(args, "r")
		if !args.Has("fn") || !ok {
			return nil, nil
		}
		xStart, xEnd, divisions := r[0], r[1], int(r[2])
		if divisions <= 0 || divisions > kMaxFuncDivisions {
			return nil, fmt.Errorf("func: %d divisions out of range", divisions)
		}
		ys, xs, err := PlotFunction(args.First("fn"), xStart, xEnd, divisions)
		if err != nil {
			return nil, err
		}
		var d strings.Builder
		for i := range xs {
			op := "L"
			if i == 0 {
				op = "M"
			}
			fmt.Fprintf(&d, "%s %s %s ", op, FormatNumber(math.Round(xs[i]*1000)/1000), FormatNumber(math.Round(ys[i]*1000)/1000))
		}
		e := newShape("path", args, def.Params)
		e.Set("d", d.String())
		return &Instance{Render: appendTo(ctx, e)}, nil
	}
	return def
}

func mtextCommand() *CommandDef {
	def := &CommandDef{Name: "mtext", Desc: "wrapped multi-line text inside bounds"}
	def.Params = Params{
		{"b", 4, "bounds", false},
		{"t", 1, "text", false},
		{"f", 1, "fill", false},
		{"or", 1, "origin", false},
		{"fs", 1, "font-size", false},
		{"ff", 1, "font-family", false},
		{"sw", 1, "stroke-width", true},
	}
	def.CreateInstance = func(ctx GraphicsContext, args Args) (*Instance, error) {
		b, ok := floatsArg(args, "b")
		if !ok || !args.Has("t") {
			return nil, nil
		}
		fontSize := args.First("fs")
		if fontSize == "" {
			fontSize = FormatNumber(ctx.Config().DefaultFontSize)
		}
		x, y, width, height := b[0], b[1], b[2], b[3]
		s := ctx.Scale()

		fo := newShape("foreignObject", args, def.Params)
		fo.Set("transform", fmt.Sprintf("translate(%s,%s) scale(%s, %s)", FormatNumber(x), FormatNumber(y), FormatNumber(s), FormatNumber(-s)))
		fo.Set("x", "0")
		fo.Set("y", "0")
		fo.SetFloat("width", width/s)
		fo.SetFloat("height", height/s)

		div := NewElement("div", false)
		div.Set("xmlns", "http://www.w3.org/1999/xhtml")
		div.Set("class", "cgraph-mtext")
		style := ""
		if args.Has("f") {
			style += "color: " + args.First("f") + ";"
		}
		style += "font-size: " + fontSize + "px;"
		if args.Has("ff") {
			style += "font-family: " + args.First("ff") + ";"
		}
		div.Set("style", style)
		div.Text = args.First("t")
		fo.AppendChild(div)

		top := fo
		if args.First("or") == "1" {
			top = NewElement("g", false)
			top.Set("transform", fmt.Sprintf("translate(0,%s)", FormatNumber(height)))
			top.AppendChild(fo)
		}
		return &Instance{Render: appendTo(ctx, top)}, nil
	}
	return def
}

func imageCommand() *CommandDef {
	def := &CommandDef{Name: "image", Desc: "external image; @key urls resolve through the url map"}
	def.Params = Params{
		{"x", 1, "x", false},
		{"y", 1, "y", false},
		{"p", 2, "point", false},
		{"w", 1, "width", true},
		{"h", 1, "height", true},
		{"url", 1, "xlink:href", false},
		opacityParam,
	}
	def.CreateInstance = func(ctx GraphicsContext, args Args) (*Instance, error) {
		if !args.Has("url") {
			return nil, nil
		}
		e := newShape("image", args, def.Params)
		p, _ := pointArg(args, "p")
		if f, ok := floatsArg(args, "x"); ok {
			p.X = f[0]
		}
		if f, ok := floatsArg(args, "y"); ok {
			p.Y = f[0]
		}
		e.Set("xlink:href", TransformedUrl(ctx.Config(), args.First("url")))
		e.Set("transform", fmt.Sprintf("translate(%s,%s) scale(1, -1)", FormatNumber(p.X), FormatNumber(p.Y)))
		e.Set("x", "0")
		e.Set("y", "0")
		return &Instance{Render: appendTo(ctx, e)}, nil
	}
	return def
}

var plainNumberRe = regexp.MustCompile(`^(?:[0-9]*[.])?[0-9]+$`)
