package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBrackets(t *testing.T) {
	tests := []struct {
		name     string
		brackets []Bracket
		wantErr  string
	}{
		{"defaults", DefaultBrackets(), ""},
		{"empty", nil, ""},
		{"unnamed", []Bracket{{MinAge: 18, MaxAge: 20}}, "name is required"},
		{"duplicate", []Bracket{{Name: "a", MinAge: 18, MaxAge: 20}, {Name: "a", MinAge: 21, MaxAge: 30}}, "duplicate"},
		{"inverted", []Bracket{{Name: "a", MinAge: 40, MaxAge: 30}}, "greater than"},
		{"overlap", []Bracket{{Name: "a", MinAge: 18, MaxAge: 30}, {Name: "b", MinAge: 30, MaxAge: 40}}, "overlaps"},
		{"single age", []Bracket{{Name: "a", MinAge: 30, MaxAge: 30}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBrackets(tt.brackets)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefaultBracketsCoverDatasetAges(t *testing.T) {
	brackets := DefaultBrackets()
	for age := int64(MinAge); age <= MaxAge; age++ {
		n := 0
		for _, b := range brackets {
			if b.Contains(age) {
				n++
			}
		}
		assert.Equal(t, 1, n, "age %d", age)
	}
}

func TestBand(t *testing.T) {
	assert.True(t, Band{}.IsZero())
	b := Band{Min: 100, Max: 200}
	assert.False(t, b.IsZero())
	assert.True(t, b.Contains(100))
	assert.True(t, b.Contains(200))
	assert.False(t, b.Contains(99.99))
}

func TestParametersValidate(t *testing.T) {
	assert.NoError(t, DefaultParameters().Validate())
	assert.NoError(t, Parameters{MaxLifeExpectancy: 85, DependentWeight: 0}.Validate())

	err := Parameters{MaxLifeExpectancy: 0, DependentWeight: 0.3}.Validate()
	assert.ErrorIs(t, err, ErrInvalidParameters)

	err = Parameters{MaxLifeExpectancy: 100, DependentWeight: -0.1}.Validate()
	assert.ErrorIs(t, err, ErrInvalidParameters)
	assert.Contains(t, err.Error(), "dependent_weight")
}

func TestValidationError(t *testing.T) {
	var records []RecordError
	for i := int64(1); i <= 7; i++ {
		records = append(records, RecordError{Row: i, Column: ColumnAge, Reason: "not an integer"})
	}
	err := error(&ValidationError{Records: records})

	assert.True(t, errors.Is(err, ErrInvalidRecord))
	msg := err.Error()
	assert.True(t, strings.HasPrefix(msg, "invalid household record: 7 bad rows"))
	assert.Contains(t, msg, "row 5: age: not an integer")
	assert.NotContains(t, msg, "row 6:")
	assert.Contains(t, msg, "and 2 more")
}

func TestRecordErrorWithoutColumn(t *testing.T) {
	assert.Equal(t, "row 3: blank line", RecordError{Row: 3, Reason: "blank line"}.Error())
}

func TestAllocationSides(t *testing.T) {
	assert.True(t, Allocation{Transfer: 1}.Receives())
	assert.True(t, Allocation{Transfer: -1}.Contributes())
	zero := Allocation{}
	assert.False(t, zero.Receives())
	assert.False(t, zero.Contributes())
}
