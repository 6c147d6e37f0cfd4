package cgraph_go

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// renderInto runs document through the built-in commands.
func renderInto(config *RenderConfig, document string) (*SVGContext, *recordingStatus) {
	status := &recordingStatus{}
	ctx := NewSVGContext(config, "test")
	d := NewDispatcher(DefaultRegistry(), NewExprEvaluator(nil, status), status)
	d.ProcessInput(document, ctx)
	return ctx, status
}

// drawn returns what was drawn into the coordinate system group.
func drawn(t *testing.T, ctx *SVGContext) []*Element {
	children := ctx.Root().Children
	require.Len(t, children, 2)
	require.Equal(t, "defs", children[0].Tag)
	require.Equal(t, "g", children[1].Tag)
	return children[1].Children
}

func attr(t *testing.T, e *Element, name string) string {
	v, ok := e.Get(name)
	require.True(t, ok, "%s has no %s", e.Tag, name)
	return v
}

func TestInitDefaults(t *testing.T) {
	ctx, status := renderInto(nil, "")
	assert.Empty(t, status.warnings)
	assert.Empty(t, drawn(t, ctx))
	assert.Equal(t, "30em", attr(t, ctx.Root(), "width"))
	assert.Equal(t, "30em", attr(t, ctx.Root(), "height"))
	assert.Equal(t, "0 0 200 200", attr(t, ctx.Root(), "viewBox"))
	assert.Equal(t, "translate(100,100) scale(1,-1)", attr(t, ctx.Root().Children[1], "transform"))
}

func TestInitDefaultWidthFollowsRange(t *testing.T) {
	tests := []struct {
		document string
		width    string
		height   string
	}{
		{"init\ntext t ({=init.w} {=init.h})", "30em", "30em"},
		{"init r 0 0 20 10\ntext t ({=init.w} {=init.h})", "30em", "15em"},
		{"init h 10em r 0 0 20 10\ntext t ({=init.w} {=init.h})", "20em", "10em"},
	}
	for _, tt := range tests {
		ctx, status := renderInto(nil, tt.document)
		assert.Empty(t, status.warnings, tt.document)
		assert.Equal(t, tt.width, attr(t, ctx.Root(), "width"), tt.document)
		assert.Equal(t, tt.height, attr(t, ctx.Root(), "height"), tt.document)
		elements := drawn(t, ctx)
		require.Len(t, elements, 1)
		assert.Equal(t, tt.width+" "+tt.height, elements[0].Text, tt.document)
	}
}

func TestInitUniformScale(t *testing.T) {
	ctx, status := renderInto(nil, "init w 200 h 100 r 0 0 20 10 fss u\ntext t {=init.fss}")
	assert.Empty(t, status.warnings)
	root := ctx.Root()
	assert.Equal(t, "200", attr(t, root, "width"))
	assert.Equal(t, "100", attr(t, root, "height"))
	assert.Equal(t, "0 0 20 10", attr(t, root, "viewBox"))
	assert.InDelta(t, 0.1, ctx.Scale(), 1e-12)

	coords := root.Children[1]
	assert.Equal(t, "translate(0,10) scale(1,-1)", attr(t, coords, "transform"))
	assert.Equal(t, "0.1", attr(t, coords, "stroke-width"))

	elements := drawn(t, ctx)
	require.Len(t, elements, 1)
	assert.Equal(t, "text", elements[0].Tag)
	assert.Equal(t, "0.1", elements[0].Text)
}

func TestInitKeepsAspectRatio(t *testing.T) {
	ctx, _ := renderInto(nil, "init w 300px r 0 0 30 10 bo 1 pad 2")
	root := ctx.Root()
	assert.Equal(t, "100px", attr(t, root, "height"))
	assert.Equal(t, "border:1px solid #00000033;padding:2px;", attr(t, root, "style"))
}

func TestPointCommand(t *testing.T) {
	ctx, _ := renderInto(nil, "point p 1 2 id a f red")
	elements := drawn(t, ctx)
	require.Len(t, elements, 1)
	e := elements[0]
	assert.Equal(t, "circle", e.Tag)
	assert.Equal(t, "1", attr(t, e, "cx"))
	assert.Equal(t, "2", attr(t, e, "cy"))
	assert.Equal(t, "3", attr(t, e, "r"))
	assert.Equal(t, "red", attr(t, e, "fill"))
	assert.Equal(t, "0", attr(t, e, "stroke-width"))
}

func TestPointsCommand(t *testing.T) {
	ctx, _ := renderInto(nil, "points p (1,2 3 4 5)")
	elements := drawn(t, ctx)
	require.Len(t, elements, 2)
	assert.Equal(t, "3", attr(t, elements[1], "cx"))
	assert.Equal(t, "4", attr(t, elements[1], "cy"))
}

func TestLineMarkers(t *testing.T) {
	ctx, _ := renderInto(nil, "line p 0 0 5 5 me arrow\narrow p1 1 1 p2 2 3\nline")
	elements := drawn(t, ctx)
	require.Len(t, elements, 3)
	endMarker := "url(#" + ctx.ArrowHeadEndMarkerID() + ")"

	assert.Equal(t, "5", attr(t, elements[0], "x2"))
	assert.Equal(t, endMarker, attr(t, elements[0], "marker-end"))
	assert.False(t, elements[0].Has("marker-start"))

	assert.Equal(t, "1", attr(t, elements[1], "x1"))
	assert.Equal(t, "3", attr(t, elements[1], "y2"))
	assert.Equal(t, endMarker, attr(t, elements[1], "marker-end"))

	assert.Equal(t, "1", attr(t, elements[2], "x2"))
	assert.False(t, elements[2].Has("marker-end"))
}

func TestRectBindingFeedsLaterCommand(t *testing.T) {
	ctx, status := renderInto(nil, "rect id r b 1 2 4 6 cr 1\npoint p {=r.b.Center()}")
	assert.Empty(t, status.warnings)
	elements := drawn(t, ctx)
	require.Len(t, elements, 2)
	assert.Equal(t, "rect", elements[0].Tag)
	assert.Equal(t, "4", attr(t, elements[0], "width"))
	assert.Equal(t, "1", attr(t, elements[0], "rx"))
	assert.Equal(t, "3", attr(t, elements[1], "cx"))
	assert.Equal(t, "5", attr(t, elements[1], "cy"))
}

func TestGroupsAndClone(t *testing.T) {
	ctx, _ := renderInto(nil, "g id grp sc red xf (t 1 2)\npoint p 1 1\nendg\nendg\nclone id grp x 3")
	elements := drawn(t, ctx)
	require.Len(t, elements, 2)

	g := elements[0]
	assert.Equal(t, "g", g.Tag)
	assert.Equal(t, ctx.GetID("grp"), attr(t, g, "id"))
	assert.Equal(t, "red", attr(t, g, "stroke"))
	assert.Equal(t, "translate(1,2) ", attr(t, g, "transform"))
	require.Len(t, g.Children, 1)
	assert.Equal(t, "circle", g.Children[0].Tag)

	use := elements[1]
	assert.Equal(t, "use", use.Tag)
	assert.Equal(t, "#"+ctx.GetID("grp"), attr(t, use, "xlink:href"))
	assert.Equal(t, "3", attr(t, use, "x"))
	assert.Empty(t, use.Children)
}

func TestTriangleAngleMarkers(t *testing.T) {
	ctx, _ := renderInto(nil, "triangle p 0 0 4 0 0 3 a1 r")
	elements := drawn(t, ctx)
	require.Len(t, elements, 2)
	assert.Equal(t, "path", elements[0].Tag)
	assert.Equal(t, "M 0 0 L 4 0 L 0 3 Z", attr(t, elements[1], "d"))
}

func TestFuncCommand(t *testing.T) {
	ctx, status := renderInto(nil, "func fn x*2 r 0 2 2\nfunc fn (x +) r 0 1 1\nfunc r 0 1 1")
	require.Len(t, status.warnings, 1)
	assert.Contains(t, status.warnings[0], "func")
	elements := drawn(t, ctx)
	require.Len(t, elements, 1)
	assert.Equal(t, "M 0 0 L 1 2 ", attr(t, elements[0], "d"))
}

func TestGridCommand(t *testing.T) {
	ctx, status := renderInto(nil, "grid r 0 0 2 2 sp 1 1\ngrid sp 0 1")
	require.Len(t, status.warnings, 1)
	elements := drawn(t, ctx)
	require.Len(t, elements, 1)
	assert.Equal(t, "M 0 0 V 2 M 1 0 V 2 M 2 0 V 2 M 0 0 H 2 M 0 1 H 2 M 0 2 H 2 ", attr(t, elements[0], "d"))
	assert.Equal(t, "0.2", attr(t, elements[0], "stroke-opacity"))
}

func TestImageUrlMap(t *testing.T) {
	config := NewRenderConfig()
	config.UrlMap["logo"] = "https://example.com/logo.png"
	ctx, _ := renderInto(config, "image url @logo p 1 2 w 10\nimg url @missing\nimage p 1 1")
	elements := drawn(t, ctx)
	require.Len(t, elements, 2)
	assert.Equal(t, "https://example.com/logo.png", attr(t, elements[0], "xlink:href"))
	assert.Equal(t, "translate(1,2) scale(1, -1)", attr(t, elements[0], "transform"))
	assert.Equal(t, "10", attr(t, elements[0], "width"))
	assert.Equal(t, "#", attr(t, elements[1], "xlink:href"))
}

func TestMtextCommand(t *testing.T) {
	ctx, _ := renderInto(nil, "mtext b 0 10 20 5 t (two words) f blue or 1")
	elements := drawn(t, ctx)
	require.Len(t, elements, 1)
	g := elements[0]
	assert.Equal(t, "translate(0,5)", attr(t, g, "transform"))
	require.Len(t, g.Children, 1)
	fo := g.Children[0]
	assert.Equal(t, "foreignObject", fo.Tag)
	require.Len(t, fo.Children, 1)
	assert.Equal(t, "two words", fo.Children[0].Text)
	assert.Equal(t, "color: blue;font-size: 16px;", attr(t, fo.Children[0], "style"))
}

func TestCommandsWithoutRequiredArgsDrawNothing(t *testing.T) {
	ctx, status := renderInto(nil, "angle p 0 0 1 1 2 2\nbrace\nfunc fn x\nmtext t x\nimage")
	assert.Empty(t, status.warnings)
	assert.Empty(t, drawn(t, ctx))
}

func TestDefaultRegistryNames(t *testing.T) {
	names := DefaultRegistry().Names()
	for _, name := range []string{"init", "point", "line", "arrow", "text", "g", "endg", "clone", "img", "image", "func"} {
		assert.Contains(t, names, name)
	}
}
