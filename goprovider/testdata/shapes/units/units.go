// Package units is a second package for load-order tests.
package units

type Meters float64

type Scaled[T any] struct {
	Value T
	Unit  string
}
