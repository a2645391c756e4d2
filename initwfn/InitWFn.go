// Package initwfn wraps Gorgonia InitWFn's so that weight
// initialization schemes can be named in configuration files.
package initwfn

import (
	"fmt"
	"strings"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of InitWFn that are available.
// Type is used to implement a basic type system of InitWFn's.
type Type string

// Available InitWFn types
const (
	GlorotU  Type = "GlorotU"
	GlorotN  Type = "GlorotN"
	HeU      Type = "HeU"
	HeN      Type = "HeN"
	Zeroes   Type = "Zeroes"
	Ones     Type = "Ones"
	Constant Type = "Constant"
)

// InitWFn wraps a Gorgonia InitWFn along with the Type and parameter
// that created it.
type InitWFn struct {
	initWFn G.InitWFn
	Type
	Param float64
}

// New returns the named weight initializer. Names are case
// insensitive. For the Glorot and He initializers, param is the gain;
// for Constant it is the value of every weight; otherwise it is
// ignored.
func New(name string, param float64) (*InitWFn, error) {
	var t Type
	for _, known := range []Type{GlorotU, GlorotN, HeU, HeN, Zeroes, Ones,
		Constant} {
		if strings.EqualFold(name, string(known)) {
			t = known
			break
		}
	}

	var fn G.InitWFn
	switch t {
	case GlorotU:
		fn = G.GlorotU(param)
	case GlorotN:
		fn = G.GlorotN(param)
	case HeU:
		fn = G.HeU(param)
	case HeN:
		fn = G.HeN(param)
	case Zeroes:
		fn = G.Zeroes()
	case Ones:
		fn = G.Ones()
	case Constant:
		fn = G.ValuesOf(param)
	default:
		return nil, fmt.Errorf("new: unknown weight initializer %q", name)
	}

	return &InitWFn{initWFn: fn, Type: t, Param: param}, nil
}

// InitWFn returns the wrapped Gorgonia InitWFn
func (i *InitWFn) InitWFn() G.InitWFn {
	return i.initWFn
}

// String implements the fmt.Stringer interface
func (i *InitWFn) String() string {
	return fmt.Sprintf("{%v InitWFn: %v}", i.Type, i.Param)
}
