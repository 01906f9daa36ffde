package terminal

// Position addresses a cell in the surface buffer. Col counts runes.
type Position struct {
	Line int
	Col  int
}

// Before reports whether p sorts before o.
func (p Position) Before(o Position) bool {
	return p.Line < o.Line || (p.Line == o.Line && p.Col < o.Col)
}

// Range is a span of the buffer. End is exclusive.
type Range struct {
	Start Position
	End   Position
}

// Normalize returns r with Start before End.
func (r Range) Normalize() Range {
	if r.End.Before(r.Start) {
		r.Start, r.End = r.End, r.Start
	}
	return r
}

// IsEmpty reports whether r covers no cells.
func (r Range) IsEmpty() bool {
	n := r.Normalize()
	return n.Start == n.End
}

// Contains reports whether p lies inside r.
func (r Range) Contains(p Position) bool {
	n := r.Normalize()
	return !p.Before(n.Start) && p.Before(n.End)
}
