package model

import (
	"errors"
	"fmt"
)

var ErrInvalidWiring = errors.New("invalid wiring")

// Wiring assigns a source to each unit input slot. Slot 2u and 2u+1 belong
// to unit u; each entry is Unconnected or a source id in [0, SentinelID].
type Wiring []int

// NewWiring returns a fully unconnected wiring.
func NewWiring() Wiring {
	w := make(Wiring, SlotCount)
	for i := range w {
		w[i] = Unconnected
	}
	return w
}

func (w Wiring) Clone() Wiring {
	return append(Wiring(nil), w...)
}

// CopyFrom overwrites w with the content of src without reallocating.
func (w Wiring) CopyFrom(src Wiring) {
	copy(w, src)
}

// Sources returns the two slot sources feeding unit.
func (w Wiring) Sources(unit int) (int, int) {
	a, b := SlotsOf(unit)
	return w[a], w[b]
}

// ConnectedInputs counts the populated slots of unit.
func (w Wiring) ConnectedInputs(unit int) int {
	a, b := w.Sources(unit)
	n := 0
	if a != Unconnected {
		n++
	}
	if b != Unconnected {
		n++
	}
	return n
}

// UsesSentinel reports whether the array input feeds any slot.
func (w Wiring) UsesSentinel() bool {
	for _, src := range w {
		if src == SentinelID {
			return true
		}
	}
	return false
}

// Connections counts the populated slots.
func (w Wiring) Connections() int {
	n := 0
	for _, src := range w {
		if src != Unconnected {
			n++
		}
	}
	return n
}

// Edges lists every connected slot as a [source, unit] pair in slot order.
func (w Wiring) Edges() [][2]int {
	out := make([][2]int, 0, w.Connections())
	for slot, src := range w {
		if src != Unconnected {
			out = append(out, [2]int{src, UnitOfSlot(slot)})
		}
	}
	return out
}

// Validate checks shape and source ranges. Acyclicity is not checked here.
func (w Wiring) Validate() error {
	if len(w) != SlotCount {
		return fmt.Errorf("%w: got %d slots, want %d", ErrInvalidWiring, len(w), SlotCount)
	}
	for slot, src := range w {
		if src == Unconnected {
			continue
		}
		if !IsSource(src) {
			return fmt.Errorf("%w: slot %d has source %d", ErrInvalidWiring, slot, src)
		}
		if src == UnitOfSlot(slot) {
			return fmt.Errorf("%w: unit %d feeds itself", ErrInvalidWiring, src)
		}
	}
	return nil
}
