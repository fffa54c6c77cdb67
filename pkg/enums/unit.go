package enums

import "fmt"

// Unit represents the sale unit an article is priced in.
type Unit string

const (
	UnitKilogram Unit = "kg"
	UnitGram     Unit = "g"
	UnitPiece    Unit = "piece"
	UnitBunch    Unit = "bunch"
	UnitLiter    Unit = "liter"
)

var validUnits = []Unit{
	UnitKilogram,
	UnitGram,
	UnitPiece,
	UnitBunch,
	UnitLiter,
}

// String implements fmt.Stringer.
func (u Unit) String() string {
	return string(u)
}

// IsValid reports whether the value is a known Unit.
func (u Unit) IsValid() bool {
	for _, candidate := range validUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// IsWeight reports whether the unit sells goods by weight. Weight-sold
// articles derive their piece count from weight-per-piece.
func (u Unit) IsWeight() bool {
	return u == UnitKilogram || u == UnitGram
}

// ParseUnit converts raw input into a Unit.
func ParseUnit(value string) (Unit, error) {
	for _, candidate := range validUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit %q", value)
}
