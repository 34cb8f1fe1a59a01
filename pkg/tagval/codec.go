package tagval

import (
	"fmt"
	"io"
)

// Encode writes the value to w in the given wire format.
func Encode(w io.Writer, v Value, f Format) error {
	switch f {
	case FormatCBOR:
		return EncodeCBOR(w, v)
	case FormatJSON:
		return EncodeJSON(w, v)
	default:
		return fmt.Errorf("unknown format %s", f)
	}
}

// Decode reads a single document from r in the given wire format.
func Decode(r io.Reader, f Format) (Value, error) {
	switch f {
	case FormatCBOR:
		return DecodeCBOR(r)
	case FormatJSON:
		return DecodeJSON(r)
	default:
		return Value{}, fmt.Errorf("unknown format %s", f)
	}
}
