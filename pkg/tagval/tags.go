package tagval

import "math"

// NoTag marks a Value that carries no semantic tag. Tag numbers are CBOR
// tag numbers; the reserved maximum is never a valid tag on the wire.
const NoTag uint64 = math.MaxUint64

// Well known CBOR tag numbers (RFC 8949 and the IANA registry) understood
// by this package and its callers.
const (
	TagDateTimeString    uint64 = 0
	TagEpochDateTime     uint64 = 1
	TagExpectedBase64URL uint64 = 21
	TagExpectedBase64    uint64 = 22
	TagExpectedBase16    uint64 = 23
	TagURI               uint64 = 32
	TagUUID              uint64 = 37
)

// TagName returns a readable name for well known tags, or "" when the tag
// has no registered name here.
func TagName(tag uint64) string {
	switch tag {
	case TagDateTimeString:
		return "date-time string"
	case TagEpochDateTime:
		return "epoch date-time"
	case TagExpectedBase64URL:
		return "expected base64url"
	case TagExpectedBase64:
		return "expected base64"
	case TagExpectedBase16:
		return "expected base16"
	case TagURI:
		return "URI"
	case TagUUID:
		return "UUID"
	default:
		return ""
	}
}
