package view

import (
	"fmt"
	"strings"
)

// Field is a transaction attribute the view can be ordered by.
type Field string

const (
	FieldDate      Field = "date"
	FieldPayee     Field = "payee"
	FieldMemo      Field = "memo"
	FieldAmount    Field = "amount"
	FieldCategory  Field = "category"
	FieldRecurring Field = "recurring"
	FieldFixedCost Field = "fixed"
)

// Direction is the sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort is a sort specification.
type Sort struct {
	Field     Field     `json:"field"`
	Direction Direction `json:"direction"`
}

// DefaultSort is newest bookings first.
func DefaultSort() Sort {
	return Sort{Field: FieldDate, Direction: Desc}
}

// DefaultDirection returns the direction applied when a field is newly selected.
// Dates and amounts start with the largest value, text and flags ascending.
func DefaultDirection(f Field) Direction {
	switch f {
	case FieldDate, FieldAmount:
		return Desc
	default:
		return Asc
	}
}

// Toggle returns the sort state after the user selects field. Selecting the
// current field flips the direction; any other field starts at its default.
func Toggle(prev Sort, field Field) Sort {
	if prev.Field == field {
		return Sort{Field: field, Direction: prev.Direction.Flip()}
	}
	return Sort{Field: field, Direction: DefaultDirection(field)}
}

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Asc {
		return Desc
	}
	return Asc
}

// ParseField validates a wire value.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FieldDate, FieldPayee, FieldMemo, FieldAmount, FieldCategory, FieldRecurring, FieldFixedCost:
		return f, nil
	}
	return "", fmt.Errorf("unknown sort field %q", s)
}

// ParseDirection validates a wire value.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case Asc, Desc:
		return d, nil
	}
	return "", fmt.Errorf("unknown sort direction %q", s)
}
