package ppm

import "errors"

// ErrTableFull is returned when a frame does not fit its table.
var ErrTableFull = errors.New("pulse table full")

// MaxEdges is the capacity of one frame table: two edges per channel plus
// the final stop and the frame end.
const MaxEdges = 2*MaxPhaseChannels + 2

// Table is one frame as edge times in microseconds from the frame start.
// The pin toggles at the frame start and at every edge; the last edge is
// the frame end. Len marks the end of the table.
type Table struct {
	edges [MaxEdges]uint32
	n     int
}

// Reset empties the table.
func (t *Table) Reset() { t.n = 0 }

// Append adds an edge. It rejects edges beyond the table capacity.
func (t *Table) Append(pos uint32) error {
	if t.n >= len(t.edges) {
		return ErrTableFull
	}
	t.edges[t.n] = pos
	t.n++
	return nil
}

// Len returns the number of edges.
func (t *Table) Len() int { return t.n }

// Edges returns the edge times.
func (t *Table) Edges() []uint32 { return t.edges[:t.n] }

// Delta returns the time from edge i-1 (or the frame start) to edge i.
func (t *Table) Delta(i int) uint32 {
	if i <= 0 {
		return t.edges[0]
	}
	return t.edges[i] - t.edges[i-1]
}

// Channels returns the number of channel pulses in the frame.
func (t *Table) Channels() int {
	if t.n < 2 {
		return 0
	}
	return (t.n - 2) / 2
}

// Width returns the period of channel ch (stop plus pulse), the value a
// receiver decodes.
func (t *Table) Width(ch int) uint32 {
	if ch < 0 || ch >= t.Channels() {
		return 0
	}
	end := t.edges[2*ch+1]
	if ch == 0 {
		return end
	}
	return end - t.edges[2*ch-1]
}

// Gap returns the time from the end of the last stop to the frame end.
func (t *Table) Gap() uint32 {
	if t.n < 2 {
		return 0
	}
	return t.edges[t.n-1] - t.edges[t.n-2]
}

// Length returns the frame length.
func (t *Table) Length() uint32 {
	if t.n == 0 {
		return 0
	}
	return t.edges[t.n-1]
}
