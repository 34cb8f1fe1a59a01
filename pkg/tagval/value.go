package tagval

import (
	"bytes"
	"cmp"
	"errors"
	"math"
	"slices"
)

var (
	ErrInvalidValue = errors.New("invalid value")
	ErrBadMapKey    = errors.New("map key must be a string or an integer")
	ErrDuplicateKey = errors.New("duplicate map key")
)

// Value is a tagged, binary-encodable value: the interchange form between
// type converters and the wire encodings. A Value holds a content kind, an
// optional CBOR tag number and a payload. Values are treated as immutable;
// WithTag and Untag return modified copies.
type Value struct {
	kind Kind
	tag  uint64
	b    bool
	i    int64
	f    float64
	s    string
	by   []byte
	arr  []Value
	mem  []Member
}

// Member is a single key/value entry of a map Value. Member order is
// significant and preserved by the JSON encoding.
type Member struct {
	Key   Value
	Value Value
}

func Null() Value {
	return Value{kind: KindNull, tag: NoTag}
}

func Bool(b bool) Value {
	return Value{kind: KindBool, tag: NoTag, b: b}
}

func Int(i int64) Value {
	return Value{kind: KindInt, tag: NoTag, i: i}
}

// Uint widens values beyond the signed 64-bit range to a float, matching
// the CBOR value model where integers are stored signed.
func Uint(u uint64) Value {
	if u > math.MaxInt64 {
		return Float(float64(u))
	}
	return Int(int64(u))
}

func Float(f float64) Value {
	return Value{kind: KindFloat, tag: NoTag, f: f}
}

func String(s string) Value {
	return Value{kind: KindString, tag: NoTag, s: s}
}

func Bytes(b []byte) Value {
	return Value{kind: KindBytes, tag: NoTag, by: bytes.Clone(b)}
}

func Array(items ...Value) Value {
	return Value{kind: KindArray, tag: NoTag, arr: items}
}

func Map(members ...Member) Value {
	return Value{kind: KindMap, tag: NoTag, mem: members}
}

func (v Value) Kind() Kind {
	return v.kind
}

// Tag returns the tag number attached to the value, or NoTag.
func (v Value) Tag() uint64 {
	if v.kind == KindInvalid {
		return NoTag
	}
	return v.tag
}

func (v Value) IsTagged() bool {
	return v.Tag() != NoTag
}

// WithTag returns a copy of the value carrying the given tag. A value
// holds at most one tag; tagging a tagged value replaces the tag.
func (v Value) WithTag(tag uint64) Value {
	v.tag = tag
	return v
}

func (v Value) Untag() Value {
	v.tag = NoTag
	return v
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

func (v Value) AsBool() bool {
	return v.b
}

func (v Value) AsInt() int64 {
	return v.i
}

// AsFloat returns the float payload, widening an integer payload.
func (v Value) AsFloat() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

func (v Value) AsString() string {
	return v.s
}

func (v Value) AsBytes() []byte {
	return bytes.Clone(v.by)
}

// Items returns the elements of an array value. The returned slice is
// shared with the value and must not be mutated.
func (v Value) Items() []Value {
	return v.arr
}

// Members returns the entries of a map value. The returned slice is shared
// with the value and must not be mutated.
func (v Value) Members() []Member {
	return v.mem
}

// Len returns the element count of arrays and maps and the byte or rune
// payload length of bytes and strings; 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindMap:
		return len(v.mem)
	case KindBytes:
		return len(v.by)
	case KindString:
		return len(v.s)
	default:
		return 0
	}
}

// Lookup finds the value of the first member with the given string key.
func (v Value) Lookup(key string) (Value, bool) {
	for _, m := range v.mem {
		if m.Key.kind == KindString && m.Key.s == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// sortMembers orders map members read from CBOR deterministically:
// integer keys ascending, then string keys lexicographically.
func sortMembers(members []Member) {
	slices.SortStableFunc(members, func(a, b Member) int {
		ka, kb := a.Key, b.Key
		if ka.kind != kb.kind {
			if ka.kind == KindInt {
				return -1
			}
			return 1
		}
		if ka.kind == KindInt {
			return cmp.Compare(ka.i, kb.i)
		}
		return cmp.Compare(ka.s, kb.s)
	})
}

// Equal reports deep, tag-sensitive equality of two values.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind || v.Tag() != o.Tag() {
		return false
	}
	switch v.kind {
	case KindInvalid, KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindString:
		return v.s == o.s
	case KindBytes:
		return bytes.Equal(v.by, o.by)
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.mem) != len(o.mem) {
			return false
		}
		for i := range v.mem {
			if !v.mem[i].Key.Equal(o.mem[i].Key) || !v.mem[i].Value.Equal(o.mem[i].Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
