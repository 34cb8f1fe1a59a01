package serializer

import "reflect"

// Pair is a two element tuple. On the wire it becomes a two element array
// instead of an object, which keeps it compact and order-preserving.
type Pair[F any, S any] struct {
	First  F
	Second S
}

// NewPair pairs two values.
func NewPair[F any, S any](first F, second S) Pair[F, S] {
	return Pair[F, S]{First: first, Second: second}
}

func (Pair[F, S]) pairMarker() {}

type pairLike interface{ pairMarker() }

var pairLikeType = reflect.TypeOf((*pairLike)(nil)).Elem()
