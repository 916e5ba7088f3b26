// Package utils holds small generic helpers shared across packages.
package utils

// GroupBy groups items by the key returned from keyFn, the way SQL GROUP BY
// does. Keys are returned in order of first appearance so callers iterating
// groups get deterministic results; items inside a group keep their input order.
func GroupBy[T any, K comparable](items []T, keyFn func(T) K) ([]K, map[K][]T) {
	keys := make([]K, 0)
	groups := make(map[K][]T)
	for _, item := range items {
		key := keyFn(item)
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], item)
	}
	return keys, groups
}
