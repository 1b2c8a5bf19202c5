package date

import "slices"

// History is a daily series of values, sorted by day with at most one value
// per day. The zero History is empty and ready to use.
type History[T float32 | float64 | string] struct {
	days   []Date
	values []T
}

// Len returns the number of days of h.
func (h *History[T]) Len() int { return len(h.days) }

// Append sets the value of day on, replacing the previous one if any.
func (h *History[T]) Append(on Date, v T) *History[T] {
	i, found := slices.BinarySearchFunc(h.days, on, Date.Compare)
	if found {
		h.values[i] = v
		return h
	}
	h.days = slices.Insert(h.days, i, on)
	h.values = slices.Insert(h.values, i, v)
	return h
}

// First returns the earliest day and its value, or zero values if h is empty.
func (h *History[T]) First() (Date, T) {
	if len(h.days) == 0 {
		return Date{}, *new(T)
	}
	return h.days[0], h.values[0]
}

// Latest returns the latest day and its value, or zero values if h is empty.
func (h *History[T]) Latest() (Date, T) {
	if len(h.days) == 0 {
		return Date{}, *new(T)
	}
	last := len(h.days) - 1
	return h.days[last], h.values[last]
}

// Slice returns a copy of the values in chronological order.
func (h *History[T]) Slice() []T { return slices.Clone(h.values) }

// Between returns a new History restricted to the days in r.
func (h *History[T]) Between(r Range) *History[T] {
	from, _ := slices.BinarySearchFunc(h.days, r.From, Date.Compare)
	to, found := slices.BinarySearchFunc(h.days, r.To, Date.Compare)
	if found {
		to++
	}
	if to < from {
		to = from
	}
	return &History[T]{
		days:   slices.Clone(h.days[from:to]),
		values: slices.Clone(h.values[from:to]),
	}
}
