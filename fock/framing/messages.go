package framing

import (
	"errors"
	"math"

	"github.com/alan-christopher/fock/fock/sampler"
	"github.com/alan-christopher/fock/fock/wigner"
	"google.golang.org/protobuf/encoding/protowire"
)

// A SampleBatch is a run of homodyne samples. Its schema is
//
//	message SampleBatch {
//	  string run_id = 1;
//	  repeated double theta = 2;
//	  repeated double x = 3;
//	}
type SampleBatch struct {
	RunID  string
	Points []sampler.Point
}

// AppendWire implements the Message interface.
func (s *SampleBatch) AppendWire(b []byte) []byte {
	if s.RunID != "" {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, s.RunID)
	}
	thetas := make([]float64, len(s.Points))
	xs := make([]float64, len(s.Points))
	for i, p := range s.Points {
		thetas[i], xs[i] = p.Theta, p.X
	}
	b = appendDoubles(b, 2, thetas)
	b = appendDoubles(b, 3, xs)
	return b
}

// UnmarshalWire implements the Message interface.
func (s *SampleBatch) UnmarshalWire(b []byte) error {
	*s = SampleBatch{}
	var thetas, xs []float64
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			s.RunID = v
			return n, nil
		case num == 2:
			return consumeDoubles(typ, b, &thetas)
		case num == 3:
			return consumeDoubles(typ, b, &xs)
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return err
	}
	if len(thetas) != len(xs) {
		return errors.New("sample batch has unequal theta and x counts")
	}
	s.Points = make([]sampler.Point, len(xs))
	for i := range xs {
		s.Points[i] = sampler.Point{Theta: thetas[i], X: xs[i]}
	}
	return nil
}

// A Surface is a wigner.Surface on the wire. Its schema is
//
//	message Surface {
//	  repeated double x = 1;
//	  repeated double p = 2;
//	  message Row { repeated double w = 1; }
//	  repeated Row w = 3;
//	}
type Surface wigner.Surface

// AppendWire implements the Message interface.
func (s *Surface) AppendWire(b []byte) []byte {
	b = appendDoubles(b, 1, s.X)
	b = appendDoubles(b, 2, s.P)
	for _, row := range s.W {
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendBytes(b, appendDoubles(nil, 1, row))
	}
	return b
}

// UnmarshalWire implements the Message interface.
func (s *Surface) UnmarshalWire(b []byte) error {
	*s = Surface{}
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1:
			return consumeDoubles(typ, b, &s.X)
		case num == 2:
			return consumeDoubles(typ, b, &s.P)
		case num == 3 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			var row []float64
			err := consumeFields(v, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
				if num == 1 {
					return consumeDoubles(typ, b, &row)
				}
				return protowire.ConsumeFieldValue(num, typ, b), nil
			})
			if err != nil {
				return 0, err
			}
			if row == nil {
				row = []float64{}
			}
			s.W = append(s.W, row)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return err
	}
	if len(s.W) != len(s.X) {
		return errors.New("surface row count does not match x")
	}
	for _, row := range s.W {
		if len(row) != len(s.P) {
			return errors.New("surface row length does not match p")
		}
	}
	return nil
}

// Wigner returns s as a wigner.Surface.
func (s *Surface) Wigner() *wigner.Surface {
	return (*wigner.Surface)(s)
}

// appendDoubles appends vs as a packed repeated double field.
func appendDoubles(b []byte, num protowire.Number, vs []float64) []byte {
	if len(vs) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(len(vs)*protowire.SizeFixed64()))
	for _, v := range vs {
		b = protowire.AppendFixed64(b, math.Float64bits(v))
	}
	return b
}

// consumeDoubles accepts both packed and unpacked encodings of a repeated
// double field.
func consumeDoubles(typ protowire.Type, b []byte, dst *[]float64) (int, error) {
	switch typ {
	case protowire.Fixed64Type:
		v, n := protowire.ConsumeFixed64(b)
		if n >= 0 {
			*dst = append(*dst, math.Float64frombits(v))
		}
		return n, nil
	case protowire.BytesType:
		packed, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n, nil
		}
		if len(packed)%protowire.SizeFixed64() != 0 {
			return 0, errors.New("packed doubles are not a whole number of words")
		}
		for len(packed) > 0 {
			v, m := protowire.ConsumeFixed64(packed)
			*dst = append(*dst, math.Float64frombits(v))
			packed = packed[m:]
		}
		return n, nil
	}
	return 0, errors.New("repeated double with wire type " + typeName(typ))
}

// consumeFields walks the fields of b, handing each value to f, which
// returns how many bytes it consumed or a negative protowire error code.
func consumeFields(b []byte, f func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		m, err := f(num, typ, b)
		if err != nil {
			return err
		}
		if m < 0 {
			return protowire.ParseError(m)
		}
		b = b[m:]
	}
	return nil
}

func typeName(typ protowire.Type) string {
	switch typ {
	case protowire.VarintType:
		return "varint"
	case protowire.Fixed32Type:
		return "fixed32"
	case protowire.StartGroupType, protowire.EndGroupType:
		return "group"
	}
	return "unknown"
}
