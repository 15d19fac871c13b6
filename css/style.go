package css

import (
	"strconv"
	"strings"
)

// Declarations maps a lowercase property name to its raw value.
type Declarations map[string]string

// ParseDeclarations parses a declaration block such as an element's style
// attribute: "height: 40px; margin: 0 auto". Malformed declarations are
// skipped, later declarations override earlier ones.
func ParseDeclarations(text string) Declarations {
	decls := make(Declarations)
	for _, part := range strings.Split(text, ";") {
		name, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "!important"))
		if name == "" || value == "" {
			continue
		}
		decls[name] = value
	}
	return decls
}

// Display returns the display value, defaulting to "block".
func (d Declarations) Display() string {
	if v, ok := d["display"]; ok {
		return strings.ToLower(v)
	}
	return "block"
}

// Length returns the named length in pixels. ok is false when the property
// is absent or not a pixel length ("auto", percentages, ems).
func (d Declarations) Length(name string) (px float64, ok bool) {
	v, present := d[name]
	if !present {
		return 0, false
	}
	return ParseLength(v)
}

// Edges resolves a box edge property ("margin", "padding", "border-width")
// from its shorthand and longhand forms, in top, right, bottom, left order.
// Longhands override the shorthand.
func (d Declarations) Edges(prefix, suffix string) (top, right, bottom, left float64) {
	if v, ok := d[prefix+suffix]; ok {
		top, right, bottom, left = parseEdgeShorthand(v)
	}
	sides := []*float64{&top, &right, &bottom, &left}
	for i, side := range []string{"top", "right", "bottom", "left"} {
		if px, ok := d.Length(prefix + "-" + side + suffix); ok {
			*sides[i] = px
		}
	}
	return top, right, bottom, left
}

// parseEdgeShorthand expands the one to four value shorthand.
func parseEdgeShorthand(v string) (top, right, bottom, left float64) {
	var vals []float64
	for _, f := range strings.Fields(v) {
		px, _ := ParseLength(f)
		vals = append(vals, px)
	}
	switch len(vals) {
	case 1:
		return vals[0], vals[0], vals[0], vals[0]
	case 2:
		return vals[0], vals[1], vals[0], vals[1]
	case 3:
		return vals[0], vals[1], vals[2], vals[1]
	case 4:
		return vals[0], vals[1], vals[2], vals[3]
	}
	return 0, 0, 0, 0
}

// ParseLength parses "12px", "12" or "0" into pixels.
func ParseLength(v string) (float64, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	v = strings.TrimSuffix(v, "px")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
