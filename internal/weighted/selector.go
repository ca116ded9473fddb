// Package weighted provides proportional selection over labelled categories.
package weighted

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

var (
	// ErrNoCategories is returned when a selector is built from an empty list.
	ErrNoCategories = errors.New("weighted: no categories")

	// ErrNegativeWeight is returned when any category carries a negative weight.
	ErrNegativeWeight = errors.New("weighted: negative weight")

	// ErrZeroWeight is returned when the weights sum to zero.
	ErrZeroWeight = errors.New("weighted: total weight is zero")
)

// Category is a label paired with its relative weight. Weights are used
// relative to their sum and need not total 1.
type Category[T any] struct {
	Label  T
	Weight float64
}

// Of is shorthand for building a Category.
func Of[T any](label T, weight float64) Category[T] {
	return Category[T]{Label: label, Weight: weight}
}

// Selector draws one label per call, proportional to weight.
// A Selector is immutable after construction and safe for concurrent use
// as long as each caller supplies its own random source.
type Selector[T any] struct {
	categories []Category[T]
	total      float64
}

// New validates the categories and returns a Selector over them.
func New[T any](categories ...Category[T]) (*Selector[T], error) {
	if len(categories) == 0 {
		return nil, ErrNoCategories
	}

	var total float64
	for i, c := range categories {
		if c.Weight < 0 {
			return nil, fmt.Errorf("category %d (%v): %w", i, c.Label, ErrNegativeWeight)
		}
		total += c.Weight
	}
	if total <= 0 {
		return nil, ErrZeroWeight
	}

	cp := make([]Category[T], len(categories))
	copy(cp, categories)
	return &Selector[T]{categories: cp, total: total}, nil
}

// MustNew is like New but panics on an invalid category table. It is meant
// for fixed package-level tables.
func MustNew[T any](categories ...Category[T]) *Selector[T] {
	s, err := New(categories...)
	if err != nil {
		panic(err)
	}
	return s
}

// Uniform builds a Selector giving every label weight 1.
func Uniform[T any](labels ...T) (*Selector[T], error) {
	categories := make([]Category[T], len(labels))
	for i, l := range labels {
		categories[i] = Of(l, 1)
	}
	return New(categories...)
}

// Pick draws a value in [0, total) and returns the first label whose
// cumulative weight exceeds it. Zero-weight categories are never returned.
func (s *Selector[T]) Pick(r *rand.Rand) T {
	draw := r.Float64() * s.total

	var cumulative float64
	for _, c := range s.categories {
		if c.Weight == 0 {
			continue
		}
		cumulative += c.Weight
		if draw < cumulative {
			return c.Label
		}
	}

	// Rounding at the upper boundary: fall back to the last weighted category.
	for i := len(s.categories) - 1; i >= 0; i-- {
		if s.categories[i].Weight > 0 {
			return s.categories[i].Label
		}
	}
	return s.categories[len(s.categories)-1].Label
}

// Len returns the number of categories.
func (s *Selector[T]) Len() int {
	return len(s.categories)
}

// Total returns the sum of all weights.
func (s *Selector[T]) Total() float64 {
	return s.total
}
