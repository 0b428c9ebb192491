package usecase

// Group is a set of items sharing one key.
type Group[K comparable, T any] struct {
	Key     K
	Members []T
}

// GroupBy partitions items by key. Groups are returned in order of first
// appearance and members keep their input order.
func GroupBy[K comparable, T any](items []T, key func(T) K) []Group[K, T] {
	index := make(map[K]int)
	var groups []Group[K, T]
	for _, item := range items {
		k := key(item)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[K, T]{Key: k})
		}
		groups[i].Members = append(groups[i].Members, item)
	}
	return groups
}

// Best returns the item that no other item is better than.
// better must be a strict total order for the result to be independent of input order.
func Best[T any](items []T, better func(a, b T) bool) (T, bool) {
	var best T
	if len(items) == 0 {
		return best, false
	}
	best = items[0]
	for _, item := range items[1:] {
		if better(item, best) {
			best = item
		}
	}
	return best, true
}

// FoldGroups keeps the best member of every group.
func FoldGroups[K comparable, T any](groups []Group[K, T], better func(a, b T) bool) []T {
	result := make([]T, 0, len(groups))
	for _, g := range groups {
		if best, ok := Best(g.Members, better); ok {
			result = append(result, best)
		}
	}
	return result
}
