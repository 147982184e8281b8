package model

import "math"

// kahanSum accumulates float64 values with Neumaier compensation.
type kahanSum struct {
	sum, c float64
}

func (k *kahanSum) Add(v float64) {
	t := k.sum + v
	if math.Abs(k.sum) >= math.Abs(v) {
		k.c += (k.sum - t) + v
	} else {
		k.c += (v - t) + k.sum
	}
	k.sum = t
}

func (k *kahanSum) Value() float64 { return k.sum + k.c }

func sumOf[T any](items []T, f func(T) float64) float64 {
	var k kahanSum
	for _, it := range items {
		k.Add(f(it))
	}
	return k.Value()
}

// isClose mirrors numpy.isclose: |a-b| <= atol + rtol*|b|.
func isClose(a, b, rtol, atol float64) bool {
	return math.Abs(a-b) <= atol+rtol*math.Abs(b)
}
