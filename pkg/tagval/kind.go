package tagval

import "fmt"

// Kind identifies the content kind of a Value, independent of any tag
// attached to it.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindArray
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Format selects the wire encoding of a Value tree.
type Format uint8

const (
	FormatCBOR Format = iota
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatCBOR:
		return "cbor"
	case FormatJSON:
		return "json"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

func ParseFormat(s string) (Format, error) {
	switch s {
	case "cbor":
		return FormatCBOR, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatCBOR, fmt.Errorf("unknown format %q", s)
	}
}
