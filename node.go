package rowdb

import "encoding/binary"

// PageSize is the fixed size of every page in the file and in cache.
const PageSize = 4096

// page is a raw 4096-byte disk page. Tree code never touches offsets
// directly; it goes through the typed accessors below.
//
// COMMON NODE HEADER (6 bytes at offset 0):
//	[type: 1][isRoot: 1][parent: 4]
//
// LEAF NODE LAYOUT:
//	[common header: 6][numCells: 4][nextLeaf: 4]
//	[cell 0: key(4) + row(293)] ... [cell 12]          (13 cells max)
//
// INTERNAL NODE LAYOUT:
//	[common header: 6][numKeys: 4][rightChild: 4]
//	[cell 0: child(4) + key(4)] ... [cell 2]           (3 cells max)
//
// All integers are little-endian. nextLeaf == 0 marks the rightmost
// leaf; page 0 is always the root, so 0 can never be a real sibling.
type page struct {
	buf [PageSize]byte
}

type nodeKind uint8

const (
	nodeInternal nodeKind = iota
	nodeLeaf
)

const (
	nodeTypeOffset   = 0
	isRootOffset     = 1
	parentOffset     = 2
	commonHeaderSize = 6

	leafNumCellsOffset = commonHeaderSize
	leafNextLeafOffset = leafNumCellsOffset + 4
	leafHeaderSize     = leafNextLeafOffset + 4

	leafKeySize       = 4
	leafCellSize      = leafKeySize + RowSize
	leafSpaceForCells = PageSize - leafHeaderSize

	// LeafMaxCells is how many key/row cells fit in one leaf page:
	// (4096-14)/297 = 13.
	LeafMaxCells = leafSpaceForCells / leafCellSize

	leafRightSplitCount = (LeafMaxCells + 1) / 2
	leafLeftSplitCount  = LeafMaxCells + 1 - leafRightSplitCount

	internalNumKeysOffset    = commonHeaderSize
	internalRightChildOffset = internalNumKeysOffset + 4
	internalHeaderSize       = internalRightChildOffset + 4

	internalChildSize = 4
	internalKeySize   = 4
	internalCellSize  = internalChildSize + internalKeySize

	// InternalMaxKeys is kept deliberately small so multi-level trees
	// show up without large inputs.
	InternalMaxKeys = 3
)

// Common header accessors.

func (p *page) nodeType() nodeKind {
	return nodeKind(p.buf[nodeTypeOffset])
}

func (p *page) setNodeType(k nodeKind) {
	p.buf[nodeTypeOffset] = byte(k)
}

func (p *page) isRoot() bool {
	return p.buf[isRootOffset] != 0
}

func (p *page) setRoot(root bool) {
	if root {
		p.buf[isRootOffset] = 1
	} else {
		p.buf[isRootOffset] = 0
	}
}

func (p *page) parent() uint32 {
	return binary.LittleEndian.Uint32(p.buf[parentOffset:])
}

func (p *page) setParent(n uint32) {
	binary.LittleEndian.PutUint32(p.buf[parentOffset:], n)
}

// Leaf accessors.

// initLeaf resets the header fields of a leaf node. Cell storage is not
// cleared: cells past numCells are never read.
func (p *page) initLeaf() {
	p.setNodeType(nodeLeaf)
	p.setRoot(false)
	p.setLeafNumCells(0)
	p.setLeafNextLeaf(0)
}

func (p *page) leafNumCells() uint32 {
	return binary.LittleEndian.Uint32(p.buf[leafNumCellsOffset:])
}

func (p *page) setLeafNumCells(n uint32) {
	binary.LittleEndian.PutUint32(p.buf[leafNumCellsOffset:], n)
}

func (p *page) leafNextLeaf() uint32 {
	return binary.LittleEndian.Uint32(p.buf[leafNextLeafOffset:])
}

func (p *page) setLeafNextLeaf(n uint32) {
	binary.LittleEndian.PutUint32(p.buf[leafNextLeafOffset:], n)
}

// leafCell returns the whole cell (key + serialized row) at index i.
func (p *page) leafCell(i uint32) []byte {
	off := leafHeaderSize + i*leafCellSize
	return p.buf[off : off+leafCellSize]
}

func (p *page) leafKey(i uint32) uint32 {
	return binary.LittleEndian.Uint32(p.leafCell(i))
}

func (p *page) setLeafKey(i uint32, key uint32) {
	binary.LittleEndian.PutUint32(p.leafCell(i), key)
}

// leafValue returns the serialized-row portion of cell i, valid for
// in-place reads and writes.
func (p *page) leafValue(i uint32) []byte {
	return p.leafCell(i)[leafKeySize:]
}

// Internal accessors.

// initInternal resets the header fields of an internal node.
func (p *page) initInternal() {
	p.setNodeType(nodeInternal)
	p.setRoot(false)
	p.setInternalNumKeys(0)
	p.setInternalRightChild(0)
}

func (p *page) internalNumKeys() uint32 {
	return binary.LittleEndian.Uint32(p.buf[internalNumKeysOffset:])
}

func (p *page) setInternalNumKeys(n uint32) {
	binary.LittleEndian.PutUint32(p.buf[internalNumKeysOffset:], n)
}

func (p *page) internalRightChild() uint32 {
	return binary.LittleEndian.Uint32(p.buf[internalRightChildOffset:])
}

func (p *page) setInternalRightChild(n uint32) {
	binary.LittleEndian.PutUint32(p.buf[internalRightChildOffset:], n)
}

// internalCell returns the cell (child ref + separator key) at index i.
func (p *page) internalCell(i uint32) []byte {
	off := internalHeaderSize + i*internalCellSize
	return p.buf[off : off+internalCellSize]
}

// internalChild returns the child page number at index i. There is one
// more child than there are keys: index numKeys resolves to the
// rightmost child.
func (p *page) internalChild(i uint32) uint32 {
	numKeys := p.internalNumKeys()
	if i > numKeys {
		panic("internalChild: index past numKeys")
	}
	if i == numKeys {
		return p.internalRightChild()
	}
	return binary.LittleEndian.Uint32(p.internalCell(i))
}

func (p *page) setInternalChild(i uint32, child uint32) {
	numKeys := p.internalNumKeys()
	if i > numKeys {
		panic("setInternalChild: index past numKeys")
	}
	if i == numKeys {
		p.setInternalRightChild(child)
		return
	}
	binary.LittleEndian.PutUint32(p.internalCell(i), child)
}

func (p *page) internalKey(i uint32) uint32 {
	return binary.LittleEndian.Uint32(p.internalCell(i)[internalChildSize:])
}

func (p *page) setInternalKey(i uint32, key uint32) {
	binary.LittleEndian.PutUint32(p.internalCell(i)[internalChildSize:], key)
}
