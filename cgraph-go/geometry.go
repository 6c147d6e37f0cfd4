package cgraph_go

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatNumber renders a float in its shortest round-tripping decimal form,
// without exponent for the magnitudes a drawing uses.
func FormatNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "0"
	}
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseFloats parses every whitespace separated element of values. Entries
// that are not numbers become NaN.
func ParseFloats(values ...string) []float64 {
	ret := make([]float64, 0, len(values))
	for _, v := range values {
		for _, field := range strings.Fields(v) {
			f, err := strconv.ParseFloat(field, 64)
			if err != nil {
				f = math.NaN()
			}
			ret = append(ret, f)
		}
	}
	return ret
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// Point is exposed to scripts with lower case field names.
type Point struct {
	X float64 `expr:"x" json:"x"`
	Y float64 `expr:"y" json:"y"`
}

func NewPoint(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) String() string {
	return FormatNumber(p.X) + " " + FormatNumber(p.Y)
}

func (p Point) Copy() Point { return p }

func (p Point) Offset(dx, dy any) Point {
	x, _ := toFloat(dx)
	y, _ := toFloat(dy)
	return Point{p.X + x, p.Y + y}
}

func (p Point) OffsetX(dx any) Point { return p.Offset(dx, 0) }
func (p Point) OffsetY(dy any) Point { return p.Offset(0, dy) }

func (p Point) Add(o Point) Point { return Point{p.X + o.X, p.Y + o.Y} }
func (p Point) Sub(o Point) Point { return Point{p.X - o.X, p.Y - o.Y} }

func (p Point) Scale(f any) Point {
	s, _ := toFloat(f)
	return Point{p.X * s, p.Y * s}
}

func (p Point) Distance(o Point) float64 {
	return math.Hypot(o.X-p.X, o.Y-p.Y)
}

// Angle of the vector from p to o, in radians.
func (p Point) AngleTo(o Point) float64 {
	return math.Atan2(o.Y-p.Y, o.X-p.X)
}

// Bounds is an axis aligned rectangle given by its lower left corner.
type Bounds struct {
	X float64 `expr:"x" json:"x"`
	Y float64 `expr:"y" json:"y"`
	W float64 `expr:"w" json:"w"`
	H float64 `expr:"h" json:"h"`
}

func NewBounds(x, y, w, h float64) Bounds {
	return Bounds{X: x, Y: y, W: w, H: h}
}

func (b Bounds) String() string {
	return fmt.Sprintf("%s %s %s %s", FormatNumber(b.X), FormatNumber(b.Y), FormatNumber(b.W), FormatNumber(b.H))
}

func (b Bounds) Copy() Bounds { return b }

func (b Bounds) Center() Point      { return Point{b.X + b.W/2, b.Y + b.H/2} }
func (b Bounds) TopLeft() Point     { return Point{b.X, b.Y + b.H} }
func (b Bounds) TopRight() Point    { return Point{b.X + b.W, b.Y + b.H} }
func (b Bounds) BottomLeft() Point  { return Point{b.X, b.Y} }
func (b Bounds) BottomRight() Point { return Point{b.X + b.W, b.Y} }

func (b Bounds) Offset(dx, dy any) Bounds {
	x, _ := toFloat(dx)
	y, _ := toFloat(dy)
	return Bounds{b.X + x, b.Y + y, b.W, b.H}
}

// Inset shrinks the rectangle by d on every side.
func (b Bounds) Inset(d any) Bounds {
	v, _ := toFloat(d)
	return Bounds{b.X + v, b.Y + v, b.W - 2*v, b.H - 2*v}
}

// pointFromArgs builds a point from two numbers, a "x y" string, or another
// point.
func pointFromArgs(args []any) (Point, error) {
	switch len(args) {
	case 1:
		switch v := args[0].(type) {
		case Point:
			return v, nil
		case *Point:
			return *v, nil
		case string:
			f := ParseFloats(v)
			if len(f) == 2 && !math.IsNaN(f[0]) && !math.IsNaN(f[1]) {
				return Point{f[0], f[1]}, nil
			}
		}
	case 2:
		x, okx := toFloat(args[0])
		y, oky := toFloat(args[1])
		if okx && oky {
			return Point{x, y}, nil
		}
	}
	return Point{}, fmt.Errorf("cannot build a point from %v", args)
}

func boundsFromArgs(args []any) (Bounds, error) {
	switch len(args) {
	case 1:
		switch v := args[0].(type) {
		case Bounds:
			return v, nil
		case *Bounds:
			return *v, nil
		case string:
			f := ParseFloats(v)
			if len(f) == 4 && !anyNaN(f) {
				return Bounds{f[0], f[1], f[2], f[3]}, nil
			}
		}
	case 2:
		p1, ok1 := args[0].(Point)
		p2, ok2 := args[1].(Point)
		if ok1 && ok2 {
			return Bounds{math.Min(p1.X, p2.X), math.Min(p1.Y, p2.Y), math.Abs(p2.X - p1.X), math.Abs(p2.Y - p1.Y)}, nil
		}
	case 4:
		var f [4]float64
		for i, a := range args {
			v, ok := toFloat(a)
			if !ok {
				return Bounds{}, fmt.Errorf("cannot build bounds from %v", args)
			}
			f[i] = v
		}
		return Bounds{f[0], f[1], f[2], f[3]}, nil
	}
	return Bounds{}, fmt.Errorf("cannot build bounds from %v", args)
}

func anyNaN(f []float64) bool {
	for _, v := range f {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
