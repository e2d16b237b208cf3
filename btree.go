package rowdb

import "fmt"

// find returns a cursor positioned at the given key, or at the slot
// where it would be inserted if absent. Descent is an explicit loop so
// tree depth never grows the stack.
func (t *Table) find(key uint32) (*Cursor, error) {
	pageNum := t.rootPageNum
	for {
		p, err := t.pager.page(pageNum)
		if err != nil {
			return nil, err
		}
		if p.nodeType() == nodeLeaf {
			return t.leafFind(pageNum, p, key), nil
		}
		pageNum = p.internalChild(internalFindChild(p, key))
	}
}

// leafFind binary-searches the leaf's ordered keys. The cursor lands on
// the exact match, or on the first key strictly greater than key.
func (t *Table) leafFind(pageNum uint32, p *page, key uint32) *Cursor {
	cursor := &Cursor{table: t, pageNum: pageNum}

	minIndex := uint32(0)
	onePastMaxIndex := p.leafNumCells()
	for onePastMaxIndex != minIndex {
		index := (minIndex + onePastMaxIndex) / 2
		keyAtIndex := p.leafKey(index)
		if key == keyAtIndex {
			cursor.cellNum = index
			return cursor
		}
		if key < keyAtIndex {
			onePastMaxIndex = index
		} else {
			minIndex = index + 1
		}
	}

	cursor.cellNum = minIndex
	return cursor
}

// internalFindChild returns the index of the child which should contain
// the given key: the first separator >= key, or numKeys for the
// rightmost child.
func internalFindChild(p *page, key uint32) uint32 {
	minIndex := uint32(0)
	maxIndex := p.internalNumKeys() // one more child than keys
	for minIndex != maxIndex {
		index := (minIndex + maxIndex) / 2
		if p.internalKey(index) >= key {
			maxIndex = index
		} else {
			minIndex = index + 1
		}
	}
	return minIndex
}

// nodeMaxKey returns the maximum key in the subtree rooted at p. For
// internal nodes that means following rightmost children down to a
// leaf.
func (t *Table) nodeMaxKey(p *page) (uint32, error) {
	for p.nodeType() == nodeInternal {
		child, err := t.pager.page(p.internalRightChild())
		if err != nil {
			return 0, err
		}
		p = child
	}
	numCells := p.leafNumCells()
	if numCells == 0 {
		return 0, nil
	}
	return p.leafKey(numCells - 1), nil
}

// leafInsert writes a new cell at the cursor's position, shifting later
// cells right. A full leaf is split instead. Duplicate detection is the
// caller's job; inserting an existing key here produces two cells with
// the same key.
func (t *Table) leafInsert(cursor *Cursor, key uint32, row *Row) error {
	p, err := t.pager.page(cursor.pageNum)
	if err != nil {
		return err
	}

	numCells := p.leafNumCells()
	if numCells >= LeafMaxCells {
		return t.leafSplitInsert(cursor, key, row)
	}

	if cursor.cellNum < numCells {
		// Make room for the new cell
		for i := numCells; i > cursor.cellNum; i-- {
			copy(p.leafCell(i), p.leafCell(i-1))
		}
	}

	p.setLeafNumCells(numCells + 1)
	p.setLeafKey(cursor.cellNum, key)
	row.encode(p.leafValue(cursor.cellNum))
	return nil
}

// leafSplitInsert splits a full leaf and inserts the new entry into the
// correct half. The old leaf keeps the lower half of the merged cell
// sequence, a freshly allocated sibling takes the upper half, and the
// parent gains a separator for the sibling. Splitting the root goes
// through createNewRoot instead.
func (t *Table) leafSplitInsert(cursor *Cursor, key uint32, row *Row) error {
	oldNode, err := t.pager.page(cursor.pageNum)
	if err != nil {
		return err
	}

	// A non-root split adds a key to the parent. Refuse before mutating
	// anything if the parent has no room, so the error leaves the tree
	// exactly as it was.
	if !oldNode.isRoot() {
		parent, err := t.pager.page(oldNode.parent())
		if err != nil {
			return err
		}
		if parent.internalNumKeys() >= InternalMaxKeys {
			return fmt.Errorf("%w: parent page %d", ErrInternalNodeSplitUnsupported, oldNode.parent())
		}
	}

	oldMax, err := t.nodeMaxKey(oldNode)
	if err != nil {
		return err
	}

	newPageNum := t.pager.allocatePage()
	newNode, err := t.pager.page(newPageNum)
	if err != nil {
		return err
	}
	newNode.initLeaf()
	newNode.setParent(oldNode.parent())
	newNode.setLeafNextLeaf(oldNode.leafNextLeaf())
	oldNode.setLeafNextLeaf(newPageNum)

	// All existing cells plus the new one form a virtual sequence of
	// LeafMaxCells+1 entries split between old (left) and new (right).
	// Walk it from the top so cells still unread in the old node are
	// never overwritten early.
	for i := int32(LeafMaxCells); i >= 0; i-- {
		destNode := oldNode
		if i >= leafLeftSplitCount {
			destNode = newNode
		}
		indexWithinNode := uint32(i) % leafLeftSplitCount

		switch {
		case uint32(i) == cursor.cellNum:
			destNode.setLeafKey(indexWithinNode, key)
			row.encode(destNode.leafValue(indexWithinNode))
		case uint32(i) > cursor.cellNum:
			copy(destNode.leafCell(indexWithinNode), oldNode.leafCell(uint32(i)-1))
		default:
			copy(destNode.leafCell(indexWithinNode), oldNode.leafCell(uint32(i)))
		}
	}

	oldNode.setLeafNumCells(leafLeftSplitCount)
	newNode.setLeafNumCells(leafRightSplitCount)

	t.log.Info("leaf split", "page", cursor.pageNum, "sibling", newPageNum)

	if oldNode.isRoot() {
		return t.createNewRoot(newPageNum)
	}

	parentPageNum := oldNode.parent()
	newMax, err := t.nodeMaxKey(oldNode)
	if err != nil {
		return err
	}
	parent, err := t.pager.page(parentPageNum)
	if err != nil {
		return err
	}
	updateInternalKey(parent, oldMax, newMax)
	return t.internalInsert(parentPageNum, newPageNum)
}

// createNewRoot handles splitting the root: the old root's bytes move
// verbatim to a fresh page which becomes the left child, and page 0 is
// rewritten in place as an internal node with one separator and two
// children. The root's page number never changes.
func (t *Table) createNewRoot(rightChildPageNum uint32) error {
	root, err := t.pager.page(t.rootPageNum)
	if err != nil {
		return err
	}
	rightChild, err := t.pager.page(rightChildPageNum)
	if err != nil {
		return err
	}

	leftChildPageNum := t.pager.allocatePage()
	leftChild, err := t.pager.page(leftChildPageNum)
	if err != nil {
		return err
	}

	leftChild.buf = root.buf
	leftChild.setRoot(false)

	leftChildMax, err := t.nodeMaxKey(leftChild)
	if err != nil {
		return err
	}

	root.initInternal()
	root.setRoot(true)
	root.setInternalNumKeys(1)
	root.setInternalChild(0, leftChildPageNum)
	root.setInternalKey(0, leftChildMax)
	root.setInternalRightChild(rightChildPageNum)
	leftChild.setParent(t.rootPageNum)
	rightChild.setParent(t.rootPageNum)

	t.log.Info("root split", "left", leftChildPageNum, "right", rightChildPageNum)
	return nil
}

// internalInsert registers a new child in parent. If the child's max
// key exceeds the current rightmost child's, the new child takes the
// rightmost slot and the old rightmost child becomes a regular keyed
// cell; otherwise cells shift right to make room at the sorted
// position.
func (t *Table) internalInsert(parentPageNum, childPageNum uint32) error {
	parent, err := t.pager.page(parentPageNum)
	if err != nil {
		return err
	}
	child, err := t.pager.page(childPageNum)
	if err != nil {
		return err
	}
	childMax, err := t.nodeMaxKey(child)
	if err != nil {
		return err
	}
	index := internalFindChild(parent, childMax)

	originalNumKeys := parent.internalNumKeys()
	if originalNumKeys >= InternalMaxKeys {
		return fmt.Errorf("%w: parent page %d", ErrInternalNodeSplitUnsupported, parentPageNum)
	}

	rightChildPageNum := parent.internalRightChild()
	rightChild, err := t.pager.page(rightChildPageNum)
	if err != nil {
		return err
	}
	rightChildMax, err := t.nodeMaxKey(rightChild)
	if err != nil {
		return err
	}

	parent.setInternalNumKeys(originalNumKeys + 1)

	if childMax > rightChildMax {
		// New child becomes the rightmost child; the old rightmost child
		// moves into the last keyed cell.
		parent.setInternalChild(originalNumKeys, rightChildPageNum)
		parent.setInternalKey(originalNumKeys, rightChildMax)
		parent.setInternalRightChild(childPageNum)
	} else {
		// Make room for the new cell
		for i := originalNumKeys; i > index; i-- {
			copy(parent.internalCell(i), parent.internalCell(i-1))
		}
		parent.setInternalChild(index, childPageNum)
		parent.setInternalKey(index, childMax)
	}
	return nil
}

// updateInternalKey repoints the separator that reflected a child's old
// maximum key after a split shrank it.
func updateInternalKey(p *page, oldKey, newKey uint32) {
	p.setInternalKey(internalFindChild(p, oldKey), newKey)
}
