package utils

import (
	"reflect"

	"github.com/benbjohnson/immutable"
)

type (
	// Hashable types provide their own 32-bit hash.
	Hashable interface {
		Hash() uint32
	}

	// HashableEq types are hashable and comparable for equality, as the
	// immutable collections require of their keys.
	HashableEq[T any] interface {
		Hashable
		Equal(T) bool
	}

	hashableHasher[T HashableEq[T]] struct{}
)

func (hashableHasher[T]) Equal(a, b T) bool { return a.Equal(b) }

func (hashableHasher[T]) Hash(a T) uint32 { return a.Hash() }

// HashableHasher adapts a HashableEq type to the hasher interface of the
// immutable collections.
func HashableHasher[T HashableEq[T]]() immutable.Hasher[T] { return hashableHasher[T]{} }

// PointerHasher hashes pointer-like values by address. Interface types
// holding pointers work as well.
type PointerHasher[T any] struct{}

func (PointerHasher[T]) Hash(v T) uint32 {
	p := reflect.ValueOf(v).Pointer()
	return uint32(p ^ (p >> 32))
}

func (PointerHasher[T]) Equal(a, b T) bool {
	return any(a) == any(b)
}

var _ immutable.Hasher[any] = PointerHasher[any]{}

// HashCombine folds multiple hash values into one, following the boost
// hash_combine recipe.
func HashCombine(hs ...uint32) (seed uint32) {
	for _, v := range hs {
		seed = v + 0x9e3779b9 + (seed << 6) + (seed >> 2)
	}

	return
}
