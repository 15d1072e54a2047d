package models

import "fmt"

// Unit is the period of a reminder cycle
type Unit string

const (
	UnitDay   Unit = "day"
	UnitWeek  Unit = "week"
	UnitMonth Unit = "month"
)

// Units lists the supported cycle units.
var Units = []Unit{UnitDay, UnitWeek, UnitMonth}

// Valid reports whether u is one of the supported units.
func (u Unit) Valid() bool {
	switch u {
	case UnitDay, UnitWeek, UnitMonth:
		return true
	}
	return false
}

// Cycle is a recurrence descriptor such as "2 week"
type Cycle struct {
	Count int  `json:"count"`
	Unit  Unit `json:"unit"`
}

func (c Cycle) String() string {
	return fmt.Sprintf("%d %s", c.Count, c.Unit)
}
