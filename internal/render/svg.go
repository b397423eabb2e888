package render

import (
	"encoding/xml"
	"math"
	"strconv"
	"strings"
)

// Fallback dimensions used when the markup declares no usable size.
const (
	FallbackWidth  = 320
	FallbackHeight = 96
)

// Dimensions reads the intrinsic size of an SVG document. The viewBox wins
// when it holds four finite numbers with positive width and height; then the
// width/height attributes (units stripped); otherwise the fallback size. It
// never fails.
func Dimensions(svg string) (width, height float64) {
	root, ok := rootElement(svg)
	if !ok {
		return FallbackWidth, FallbackHeight
	}

	var viewBox, w, h string
	for _, a := range root.Attr {
		switch a.Name.Local {
		case "viewBox":
			viewBox = a.Value
		case "width":
			w = a.Value
		case "height":
			h = a.Value
		}
	}

	if vw, vh, ok := parseViewBox(viewBox); ok {
		return vw, vh
	}
	if aw, ok := parseLength(w); ok {
		if ah, ok := parseLength(h); ok {
			return aw, ah
		}
	}
	return FallbackWidth, FallbackHeight
}

func rootElement(svg string) (xml.StartElement, bool) {
	dec := xml.NewDecoder(strings.NewReader(svg))
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err != nil {
			return xml.StartElement{}, false
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se, se.Name.Local == "svg"
		}
	}
}

func parseViewBox(v string) (float64, float64, bool) {
	fields := strings.FieldsFunc(v, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) != 4 {
		return 0, 0, false
	}
	nums := make([]float64, 4)
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, 0, false
		}
		nums[i] = n
	}
	if nums[2] <= 0 || nums[3] <= 0 {
		return 0, 0, false
	}
	return nums[2], nums[3], true
}

// parseLength accepts a number with an optional unit suffix such as "ex",
// "px" or "pt". The unit is dropped, not converted.
func parseLength(v string) (float64, bool) {
	v = strings.TrimSpace(v)
	end := 0
	for end < len(v) && strings.ContainsRune("0123456789.+-eE", rune(v[end])) {
		end++
	}
	// Don't let the "e" of an "ex" unit be read as an exponent.
	for end > 0 && (v[end-1] == 'e' || v[end-1] == 'E' || v[end-1] == '+' || v[end-1] == '-') {
		end--
	}
	n, err := strconv.ParseFloat(v[:end], 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 {
		return 0, false
	}
	return n, true
}
