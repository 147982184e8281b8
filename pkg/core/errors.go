package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Wrap them with fmt.Errorf and test with errors.Is.
var (
	ErrMissingColumns    = errors.New("CSV missing required columns")
	ErrInvalidRecord     = errors.New("invalid household record")
	ErrNoHouseholds      = errors.New("no households")
	ErrNoRemainingLife   = errors.New("households have no remaining life years")
	ErrInconsistent      = errors.New("redistribution is inconsistent")
	ErrInvalidParameters = errors.New("invalid model parameters")
	ErrRunNotFound       = errors.New("run not found")
)

// RecordError describes one bad row of the input dataset.
type RecordError struct {
	Row    int64
	Column string
	Reason string
}

func (e RecordError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
	}
	return fmt.Sprintf("row %d: %s: %s", e.Row, e.Column, e.Reason)
}

// ValidationError collects every bad row found while reading a dataset.
type ValidationError struct {
	Records []RecordError
}

// maxListedRecords caps how many rows Error() spells out.
const maxListedRecords = 5

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d bad rows", ErrInvalidRecord, len(e.Records))
	for i, r := range e.Records {
		if i == maxListedRecords {
			fmt.Fprintf(&b, "; and %d more", len(e.Records)-maxListedRecords)
			break
		}
		b.WriteString("; ")
		b.WriteString(r.Error())
	}
	return b.String()
}

// Unwrap lets errors.Is match ErrInvalidRecord.
func (e *ValidationError) Unwrap() error { return ErrInvalidRecord }
