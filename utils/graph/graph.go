// Package graph provides lazy graph views over data that already has a
// graph shape, such as call graphs and basic block successor relations.
// A view is described by an edge function; algorithms on the view memoize
// the edges they discover, so edge functions may be arbitrarily expensive.
package graph

// Mapper abstracts the node-keyed maps the algorithms rely on, so that
// views can be built over node types that are not comparable.
type Mapper[K any] interface {
	Get(key K) (any, bool)
	Set(key K, value any)
}

type mapFactory[K any] func() Mapper[K]
type edgeFunc[T any] func(node T) []T

type Graph[T any] struct {
	mapFactory  mapFactory[T]
	edgesOf     edgeFunc[T]
	cachedEdges Mapper[T]
}

// Of builds a graph view from an edge function and a factory for
// node-keyed maps.
func Of[T any](mapFactory mapFactory[T], edgesOf edgeFunc[T]) Graph[T] {
	return Graph[T]{
		mapFactory:  mapFactory,
		edgesOf:     edgesOf,
		cachedEdges: mapFactory(),
	}
}

// OfHashable builds a graph view over comparable nodes, backed by
// builtin maps.
func OfHashable[K comparable](edgesOf edgeFunc[K]) Graph[K] {
	return Of(func() Mapper[K] { return mapMapper[K]{} }, edgesOf)
}

// Edges returns the successors of the node. The edge function runs at
// most once per node; later calls hit the cache.
func (G Graph[T]) Edges(node T) []T {
	if cached, found := G.cachedEdges.Get(node); found {
		return cached.([]T)
	}

	es := G.edgesOf(node)
	G.cachedEdges.Set(node, es)
	return es
}

type mapMapper[K comparable] map[K]any

func (m mapMapper[K]) Get(key K) (any, bool) {
	value, ok := m[key]
	return value, ok
}

func (m mapMapper[K]) Set(key K, value any) {
	m[key] = value
}
