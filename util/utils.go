package util

import (
	"cmp"
	"slices"
)

func Map[T, V any](ts []T, fn func(T) V) []V {
	result := make([]V, len(ts))
	for i, t := range ts {
		result[i] = fn(t)
	}
	return result
}

// MapErr maps ts through fn and stops at the first error.
func MapErr[T, V any](ts []T, fn func(T) (V, error)) ([]V, error) {
	result := make([]V, 0, len(ts))
	for _, t := range ts {
		v, err := fn(t)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}

// Filter keeps the elements fn accepts, in order.
func Filter[T any](ts []T, keep func(T) bool) []T {
	result := make([]T, 0, len(ts))
	for _, t := range ts {
		if keep(t) {
			result = append(result, t)
		}
	}
	return result
}

// Reduce folds ts into acc from left to right.
func Reduce[T, V any](ts []T, step func(t T, acc V) V, acc V) V {
	for _, t := range ts {
		acc = step(t, acc)
	}
	return acc
}

func GroupBy[T any, K comparable](ts []T, key func(T) K) map[K][]T {
	groups := make(map[K][]T)
	for _, t := range ts {
		k := key(t)
		groups[k] = append(groups[k], t)
	}
	return groups
}

func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
