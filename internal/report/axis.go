package report

import (
	"fmt"
	"strings"
)

// Axis names one of the four binary personality dimensions, e.g. "E/I".
type Axis string

const (
	AxisEI Axis = "E/I"
	AxisSN Axis = "S/N"
	AxisTF Axis = "T/F"
	AxisJP Axis = "J/P"
)

// Axes lists the axes in personality-code order.
var Axes = []Axis{AxisEI, AxisSN, AxisTF, AxisJP}

// Sides returns the two letters of the axis, first side first.
func (a Axis) Sides() (byte, byte) {
	s := string(a)
	return s[0], s[2]
}

// Side identifies which letter of an axis is favored.
type Side string

const (
	SideFirst  Side = "first"
	SideSecond Side = "second"
)

// Leaning is the derived bar position for a single axis.
type Leaning struct {
	Axis     Axis   `json:"axis" yaml:"axis"`
	Letter   string `json:"letter" yaml:"letter"`
	Side     Side   `json:"side" yaml:"side"`
	Fallback bool   `json:"fallback,omitempty" yaml:"fallback,omitempty"`
}

// ParseCode validates a personality code: exactly four characters, one per
// axis in E/I, S/N, T/F, J/P order.
func ParseCode(code string) (string, error) {
	if len(code) != len(Axes) {
		return "", fmt.Errorf("personality code %q must be %d characters", code, len(Axes))
	}
	for i, axis := range Axes {
		first, second := axis.Sides()
		if code[i] != first && code[i] != second {
			return "", fmt.Errorf("personality code %q: position %d must be %c or %c", code, i+1, first, second)
		}
	}
	return code, nil
}

// AxisLeanings derives which side each axis bar favors. The favored side is
// decided only by whether the axis letter occurs in code. When neither letter
// of an axis occurs, the first side is used and Fallback is set.
func AxisLeanings(code string) []Leaning {
	upper := strings.ToUpper(code)
	out := make([]Leaning, 0, len(Axes))
	for _, axis := range Axes {
		first, second := axis.Sides()
		l := Leaning{Axis: axis, Letter: string(first), Side: SideFirst}
		switch {
		case strings.IndexByte(upper, first) >= 0:
		case strings.IndexByte(upper, second) >= 0:
			l.Letter = string(second)
			l.Side = SideSecond
		default:
			l.Fallback = true
		}
		out = append(out, l)
	}
	return out
}
