package cgraph_go

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// GetFloatValueFromArgs returns the first value of flag as a number, or
// defaultValue when it is missing or not a number.
func GetFloatValueFromArgs(args Args, flag string, defaultValue float64) float64 {
	if !args.Has(flag) {
		return defaultValue
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(args.First(flag)), 64)
	if err != nil || math.IsNaN(f) {
		return defaultValue
	}
	return f
}

// floatsArg parses every value of flag. ok is false when the flag is missing
// or any value is not a number.
func floatsArg(args Args, flag string) ([]float64, bool) {
	values, has := args[flag]
	if !has {
		return nil, false
	}
	ret := make([]float64, len(values))
	for i, v := range values {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, false
		}
		ret[i] = f
	}
	return ret, true
}

func pointArg(args Args, flag string) (Point, bool) {
	f, ok := floatsArg(args, flag)
	if !ok || len(f) != 2 {
		return Point{}, false
	}
	return Point{f[0], f[1]}, true
}

// ParseTransformArg turns the compact "s 2 r 45 t 10 20" form into an SVG
// transform list "scale(2) rotate(45) translate(10,20) ".
func ParseTransformArg(arg string) string {
	var result strings.Builder
	transform := ""
	var parameters []string

	appendTransform := func() {
		if transform != "" && len(parameters) > 0 {
			result.WriteString(transform + "(" + strings.Join(parameters, ",") + ") ")
		}
	}

	for _, part := range strings.Fields(arg) {
		if _, err := strconv.ParseFloat(part, 64); err == nil {
			parameters = append(parameters, part)
			continue
		}
		appendTransform()
		parameters = nil
		switch part {
		case "s":
			transform = "scale"
		case "r":
			transform = "rotate"
		case "t":
			transform = "translate"
		default:
			transform = ""
		}
	}
	appendTransform()
	return result.String()
}

// ExtractAttributesFromArgs returns, in schema order, the SVG attributes
// carried by args.
func ExtractAttributesFromArgs(args Args, params Params) []Attr {
	var attrs []Attr
	for _, param := range params {
		if !param.IsAttribute {
			continue
		}
		if values, ok := args[param.Flag]; ok {
			attrs = append(attrs, Attr{param.Name, strings.Join(values, " ")})
		}
	}
	return attrs
}

// TransformedUrl resolves "@key" through the url map; unknown keys become
// "#".
func TransformedUrl(config *RenderConfig, url string) string {
	if !strings.HasPrefix(url, "@") {
		return url
	}
	if target, ok := config.UrlMap[url[1:]]; ok {
		return target
	}
	return "#"
}

var nonNumberRe = regexp.MustCompile(`[^0-9.\-]+`)

// coordinateList reads "x1 y1 x2 y2 ..." leniently: any run of characters
// that cannot be part of a number separates values, an odd trailing value is
// dropped.
func coordinateList(value string) []Point {
	fields := strings.Fields(nonNumberRe.ReplaceAllString(value, " "))
	if len(fields)%2 == 1 {
		fields = fields[:len(fields)-1]
	}
	var points []Point
	for i := 0; i+1 < len(fields); i += 2 {
		x, errx := strconv.ParseFloat(fields[i], 64)
		y, erry := strconv.ParseFloat(fields[i+1], 64)
		if errx != nil || erry != nil {
			continue
		}
		points = append(points, Point{x, y})
	}
	return points
}

// getNearestValue returns the element of values closest to value.
func getNearestValue(value float64, values []float64) float64 {
	nearest := values[0]
	delta := math.Abs(value - values[0])
	for _, v := range values[1:] {
		if d := math.Abs(value - v); d < delta {
			nearest = v
			delta = d
		}
	}
	return nearest
}

func roundToNearestMultiple(num, multiple float64) float64 {
	return math.Round(num/multiple) * multiple
}
