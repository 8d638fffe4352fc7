package model

import "fmt"

// Physical layout of the arithmetic array. Units are numbered row-major,
// so the unit type repeats along every row:
//
//	    0 1 2
//	 0: A M D
//	 1: A M D
//	    ...
//	49: A M D
const (
	UnitRows    = 50
	UnitColumns = 3
	UnitCount   = UnitRows * UnitColumns

	// SentinelID is the virtual unit carrying the array input "x".
	SentinelID = UnitCount
	// OutputCount is the number of unit outputs tracked during propagation,
	// every real unit plus the sentinel.
	OutputCount = UnitCount + 1

	SlotsPerUnit = 2
	SlotCount    = UnitCount * SlotsPerUnit

	// Unconnected marks an input slot with no source.
	Unconnected = -1
)

type UnitType int

const (
	Adder UnitType = iota
	Multiplier
	Divider
)

func (t UnitType) String() string {
	switch t {
	case Adder:
		return "adder"
	case Multiplier:
		return "multiplier"
	case Divider:
		return "divider"
	default:
		return fmt.Sprintf("unit_type(%d)", int(t))
	}
}

// TypeOf returns the arithmetic type of a real unit.
func TypeOf(unit int) UnitType {
	return UnitType(unit % UnitColumns)
}

type Position struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

func PositionOf(unit int) Position {
	return Position{Row: unit / UnitColumns, Column: unit % UnitColumns}
}

// UnitAt is the inverse of PositionOf.
func UnitAt(row, column int) int {
	return row*UnitColumns + column
}

func IsUnit(id int) bool {
	return id >= 0 && id < UnitCount
}

// IsSource reports whether id may appear as a slot source.
func IsSource(id int) bool {
	return id >= 0 && id <= SentinelID
}

// UnitOfSlot returns the unit owning an input slot.
func UnitOfSlot(slot int) int {
	return slot / SlotsPerUnit
}

// SlotsOf returns both input slot indices of a unit.
func SlotsOf(unit int) (int, int) {
	return unit * SlotsPerUnit, unit*SlotsPerUnit + 1
}
