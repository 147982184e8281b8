package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEquivalenceScale(t *testing.T) {
	tests := []struct {
		name       string
		dependents int64
		weight     float64
		want       float64
	}{
		{name: "no dependents", dependents: 0, weight: 0.3, want: 1.0},
		{name: "one dependent", dependents: 1, weight: 0.3, want: 1.3},
		{name: "two dependents", dependents: 2, weight: 0.3, want: 1.6},
		{name: "three dependents", dependents: 3, weight: 0.3, want: 1.9},
		{name: "zero weight", dependents: 3, weight: 0, want: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, EquivalenceScale(tt.dependents, tt.weight), 1e-12)
		})
	}
}

func TestRemainingLifeYears(t *testing.T) {
	tests := []struct {
		age, maxAge int64
		want        float64
	}{
		{age: 18, maxAge: 100, want: 82},
		{age: 25, maxAge: 100, want: 75},
		{age: 65, maxAge: 85, want: 20},
		{age: 99, maxAge: 100, want: 1},
		{age: 100, maxAge: 100, want: 0},
		{age: 104, maxAge: 100, want: 0},
		{age: math.MinInt64, maxAge: 100, want: 100 - float64(math.MinInt64)},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RemainingLifeYears(tt.age, tt.maxAge), "age %d max %d", tt.age, tt.maxAge)
	}
}

func TestMarginalUtility(t *testing.T) {
	assert.InDelta(t, 0.002, MarginalUtility(500), 1e-15)
	assert.Equal(t, 1e10, MarginalUtility(0))
	assert.Equal(t, 1e10, MarginalUtility(-42))
	assert.False(t, math.IsInf(MarginalUtility(0), 0))
}

func TestKahanSum(t *testing.T) {
	var k kahanSum
	k.Add(1e16)
	for range 10 {
		k.Add(1)
	}
	k.Add(-1e16)
	assert.Equal(t, 10.0, k.Value())
}

func TestIsClose(t *testing.T) {
	assert.True(t, isClose(1.0, 1.0+1e-9, 1e-5, 1e-8))
	assert.True(t, isClose(1e-9, 0, 1e-5, 1e-8))
	assert.False(t, isClose(1e-3, 0, 1e-5, 1e-8))
	assert.False(t, isClose(100, 101, 1e-5, 1e-8))
}
