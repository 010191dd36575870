package hanoi

// Disk is a sized puzzle piece. Size 1 is the smallest.
type Disk struct {
	Size int
	peg  *Peg
}

// Peg returns the peg currently holding the disk, or nil.
func (d *Disk) Peg() *Peg { return d.peg }
