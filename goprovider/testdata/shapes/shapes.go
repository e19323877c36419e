// Package shapes exercises the Go-to-class mapping.
package shapes

import "io"

// Number is a union constraint; it names no interface.
type Number interface {
	~int | ~float64
}

// Named is a plain method set.
type Named interface {
	Name() string
}

type Box[T any] struct {
	Value T
	Tags  []string
}

func (b *Box[T]) Get() T { return b.Value }

func (b *Box[T]) Reset() {}

type Container[E any] interface {
	Items() []E
	Len() int
}

type List[E any] struct {
	Box[[]E]
	items []E
	index map[string]*E
}

func (l *List[E]) Items() []E { return l.items }

func (l *List[E]) Len() int { return len(l.items) }

type StringList struct {
	List[string]
}

type Lookup[K comparable, V Named] interface {
	Container[V]
	Get(key K) (V, bool)
}

type Registry[K comparable, V Named] struct {
	*List[V]
	io.Writer
	byKey   map[K]V
	updates chan V
	grid    [4][]K
	onClose func() error
}

type Sum[N Number] struct {
	Total N
}

type Sorted[T interface {
	Named
	io.Closer
}] struct {
	first T
}

type Pair[A, B any] struct {
	First  A
	Second B
}

type IntPair = Pair[int, int]

type Coord Pair[float64, float64]
