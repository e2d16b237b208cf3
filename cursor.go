package rowdb

// Cursor is a position in the ordered key space: a leaf page plus a
// cell index. It supports forward iteration across leaf boundaries and
// is only valid while its table stays open.
type Cursor struct {
	table      *Table
	pageNum    uint32
	cellNum    uint32
	endOfTable bool
}

// Valid reports whether the cursor is positioned on a cell. It turns
// false once Advance runs off the rightmost leaf, or immediately on an
// empty table.
func (c *Cursor) Valid() bool {
	return !c.endOfTable
}

// Key returns the key at the cursor's current cell.
func (c *Cursor) Key() (uint32, error) {
	p, err := c.table.pager.page(c.pageNum)
	if err != nil {
		return 0, err
	}
	return p.leafKey(c.cellNum), nil
}

// Row decodes the record at the cursor's current cell.
func (c *Cursor) Row() (Row, error) {
	p, err := c.table.pager.page(c.pageNum)
	if err != nil {
		return Row{}, err
	}
	return decodeRow(p.leafValue(c.cellNum)), nil
}

// Advance moves the cursor one cell forward, following the next-leaf
// chain at the end of each leaf. Past the rightmost leaf the cursor
// becomes invalid.
func (c *Cursor) Advance() error {
	p, err := c.table.pager.page(c.pageNum)
	if err != nil {
		return err
	}

	c.cellNum++
	if c.cellNum >= p.leafNumCells() {
		next := p.leafNextLeaf()
		if next == 0 {
			// This was the rightmost leaf
			c.endOfTable = true
		} else {
			c.pageNum = next
			c.cellNum = 0
		}
	}
	return nil
}
