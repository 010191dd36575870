package hanoi

// Peg holds a stack of disks ordered bottom → top. Sizes strictly decrease
// from bottom to top as long as every placement goes through CanPlace.
type Peg struct {
	Index int
	stack []*Disk
}

// NewPeg returns an empty peg with the given index.
func NewPeg(index int) *Peg { return &Peg{Index: index} }

// Count returns the number of disks on the peg.
func (p *Peg) Count() int { return len(p.stack) }

// CanPlace reports whether d may go on top: the peg is empty or its top disk
// is strictly larger.
func (p *Peg) CanPlace(d *Disk) bool {
	if d == nil {
		return false
	}
	top := p.Peek()
	return top == nil || d.Size < top.Size
}

// Peek returns the top disk without removing it, or nil when empty.
func (p *Peg) Peek() *Disk {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

// Pop removes the top disk. No-op on an empty peg.
func (p *Peg) Pop() {
	if len(p.stack) == 0 {
		return
	}
	top := p.stack[len(p.stack)-1]
	p.stack[len(p.stack)-1] = nil
	p.stack = p.stack[:len(p.stack)-1]
	if top.peg == p {
		top.peg = nil
	}
}

// PushTop places d on top and records the peg on the disk.
// Callers check CanPlace first.
func (p *Peg) PushTop(d *Disk) {
	if d == nil {
		return
	}
	p.stack = append(p.stack, d)
	d.peg = p
}

// PushBottom inserts d under every disk already on the peg.
// Only used while building the initial layout.
func (p *Peg) PushBottom(d *Disk) {
	if d == nil {
		return
	}
	p.stack = append([]*Disk{d}, p.stack...)
	d.peg = p
}

// Clear empties the peg and detaches its disks.
func (p *Peg) Clear() {
	for i, d := range p.stack {
		if d.peg == p {
			d.peg = nil
		}
		p.stack[i] = nil
	}
	p.stack = p.stack[:0]
}

// Sizes returns the disk sizes bottom → top.
func (p *Peg) Sizes() []int {
	out := make([]int, len(p.stack))
	for i, d := range p.stack {
		out[i] = d.Size
	}
	return out
}
