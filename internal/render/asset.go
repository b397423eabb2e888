// Package render typesets math expressions into SVG assets and memoizes
// the results.
package render

import (
	"fmt"
	"strconv"
)

// Key identifies a render request. Matching is exact: no whitespace
// normalization or fuzzy equality is applied.
type Key struct {
	Expression string
	Display    bool
	Scale      float64
}

func (k Key) String() string {
	mode := "inline"
	if k.Display {
		mode = "display"
	}
	return mode + "|" + strconv.FormatFloat(k.Scale, 'g', -1, 64) + "|" + k.Expression
}

// Asset is a typeset expression with its intrinsic size.
type Asset struct {
	Key    Key
	SVG    string
	Width  float64
	Height float64
}

// ErrRender wraps a typesetter failure for a key.
type ErrRender struct {
	Key Key
	Err error
}

func (e *ErrRender) Error() string {
	return fmt.Sprintf("render %q: %v", e.Key.Expression, e.Err)
}

func (e *ErrRender) Unwrap() error { return e.Err }
