// Package param implements the indexed parameter descriptor model: each
// effect variant declares its parameters statically and exposes them
// through getParam/setParam by index rather than runtime reflection.
package param

import "math"

// Descriptor statically describes one parameter of an effect or voice bank.
type Descriptor struct {
	Name        string
	Min         float64
	Max         float64
	Default     float64
	Unit        string
	Logarithmic bool
}

// Clamp restricts value to the descriptor's range.
func (d Descriptor) Clamp(value float64) float64 {
	if value < d.Min {
		return d.Min
	}
	if value > d.Max {
		return d.Max
	}
	return value
}

// Set is an ordered, indexed collection of live parameter values backed by
// a fixed list of descriptors. Values are stored in plain (not normalized)
// units, clamped to range on every write.
type Set struct {
	descriptors []Descriptor
	values      []float64
}

// NewSet builds a Set from descriptors, initialised to each default value.
func NewSet(descriptors []Descriptor) *Set {
	s := &Set{
		descriptors: descriptors,
		values:      make([]float64, len(descriptors)),
	}
	for i, d := range descriptors {
		s.values[i] = d.Default
	}
	return s
}

// Len returns the number of parameters.
func (s *Set) Len() int { return len(s.descriptors) }

// Descriptor returns the descriptor at paramIndex.
func (s *Set) Descriptor(paramIndex int) Descriptor { return s.descriptors[paramIndex] }

// Get returns the current plain value at paramIndex.
func (s *Set) Get(paramIndex int) float64 { return s.values[paramIndex] }

// Set clamps value to the descriptor's range and stores it, returning the
// clamped value actually stored.
func (s *Set) Set(paramIndex int, value float64) float64 {
	v := s.descriptors[paramIndex].Clamp(value)
	s.values[paramIndex] = v
	return v
}

// IndexOf returns the index of the parameter with the given name, or -1.
func (s *Set) IndexOf(name string) int {
	for i, d := range s.descriptors {
		if d.Name == name {
			return i
		}
	}
	return -1
}

// Normalized returns the 0-1 normalized position of paramIndex's current
// value within its range; logarithmic descriptors normalize in log space.
func (s *Set) Normalized(paramIndex int) float64 {
	d := s.descriptors[paramIndex]
	if d.Max <= d.Min {
		return 0
	}
	if d.Logarithmic && d.Min > 0 {
		lo, hi, v := math.Log(d.Min), math.Log(d.Max), math.Log(s.values[paramIndex])
		return (v - lo) / (hi - lo)
	}
	return (s.values[paramIndex] - d.Min) / (d.Max - d.Min)
}
