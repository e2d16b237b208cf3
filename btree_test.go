package rowdb

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T, options ...Option) *Table {
	t.Helper()
	table, err := Open(filepath.Join(t.TempDir(), "users.db"), options...)
	require.NoError(t, err)
	t.Cleanup(func() {
		if !table.closed {
			require.NoError(t, table.Close())
		}
	})
	return table
}

func testRow(id uint32) Row {
	return Row{
		ID:       id,
		Username: fmt.Sprintf("user%d", id),
		Email:    fmt.Sprintf("user%d@example.com", id),
	}
}

// collectKeys iterates the whole table from the start cursor.
func collectKeys(t *testing.T, table *Table) []uint32 {
	t.Helper()
	var keys []uint32
	cursor, err := table.Start()
	require.NoError(t, err)
	for cursor.Valid() {
		key, err := cursor.Key()
		require.NoError(t, err)
		keys = append(keys, key)
		require.NoError(t, cursor.Advance())
	}
	return keys
}

func TestFindExistingKey(t *testing.T) {
	table := newTestTable(t)
	for _, id := range []uint32{10, 20, 30} {
		require.NoError(t, table.Insert(testRow(id)))
	}

	cursor, err := table.Find(20)
	require.NoError(t, err)
	key, err := cursor.Key()
	require.NoError(t, err)
	assert.Equal(t, uint32(20), key)
}

func TestFindAbsentKeyInsertionPoint(t *testing.T) {
	table := newTestTable(t)
	for _, id := range []uint32{10, 20, 30} {
		require.NoError(t, table.Insert(testRow(id)))
	}

	cursor, err := table.Find(25)
	require.NoError(t, err)

	// The cursor sits on the first key greater than 25, with its
	// left neighbor below 25.
	p, err := table.pager.page(cursor.pageNum)
	require.NoError(t, err)
	assert.Equal(t, uint32(30), p.leafKey(cursor.cellNum))
	require.Greater(t, cursor.cellNum, uint32(0))
	assert.Equal(t, uint32(20), p.leafKey(cursor.cellNum-1))

	// Past-the-end insertion point for a key above everything.
	cursor, err = table.Find(99)
	require.NoError(t, err)
	assert.Equal(t, p.leafNumCells(), cursor.cellNum)
}

func TestLeafSplitArithmetic(t *testing.T) {
	table := newTestTable(t)

	// 13 cells fit; the 14th ascending insert forces exactly one split.
	for id := uint32(1); id <= 13; id++ {
		require.NoError(t, table.Insert(testRow(id)))
	}
	root, err := table.pager.page(0)
	require.NoError(t, err)
	require.Equal(t, nodeLeaf, root.nodeType())

	require.NoError(t, table.Insert(testRow(14)))

	// Root became internal with a single separator.
	require.Equal(t, nodeInternal, root.nodeType())
	assert.True(t, root.isRoot())
	require.Equal(t, uint32(1), root.internalNumKeys())
	assert.Equal(t, uint32(7), root.internalKey(0))

	leftNum := root.internalChild(0)
	rightNum := root.internalRightChild()

	left, err := table.pager.page(leftNum)
	require.NoError(t, err)
	right, err := table.pager.page(rightNum)
	require.NoError(t, err)

	require.Equal(t, uint32(7), left.leafNumCells())
	require.Equal(t, uint32(7), right.leafNumCells())
	for i := uint32(0); i < 7; i++ {
		assert.Equal(t, i+1, left.leafKey(i))
		assert.Equal(t, i+8, right.leafKey(i))
	}

	// Leaves are chained left to right; the rightmost leaf ends the chain.
	assert.Equal(t, rightNum, left.leafNextLeaf())
	assert.Equal(t, uint32(0), right.leafNextLeaf())

	assert.Equal(t, uint32(0), left.parent())
	assert.Equal(t, uint32(0), right.parent())
	assert.False(t, left.isRoot())
	assert.False(t, right.isRoot())
}

func TestAscendingTraversalRandomOrder(t *testing.T) {
	table := newTestTable(t)

	const n = 27
	rng := rand.New(rand.NewSource(42))
	for _, i := range rng.Perm(n) {
		require.NoError(t, table.Insert(testRow(uint32(i+1))))
	}

	keys := collectKeys(t, table)
	require.Len(t, keys, n)
	for i, key := range keys {
		assert.Equal(t, uint32(i+1), key)
	}
}

func TestMaxKeyConsistency(t *testing.T) {
	table := newTestTable(t)

	rng := rand.New(rand.NewSource(7))
	maxInserted := uint32(0)
	for _, i := range rng.Perm(27) {
		id := uint32(i + 1)
		require.NoError(t, table.Insert(testRow(id)))
		if id > maxInserted {
			maxInserted = id
		}

		root, err := table.pager.page(0)
		require.NoError(t, err)
		rootMax, err := table.nodeMaxKey(root)
		require.NoError(t, err)
		assert.Equal(t, maxInserted, rootMax)
	}
}

func TestRootGrowth(t *testing.T) {
	table := newTestTable(t)

	inserted := map[uint32]bool{}
	for id := uint32(1); id <= 14; id++ {
		require.NoError(t, table.Insert(testRow(id)))
		inserted[id] = true
	}

	root, err := table.pager.page(0)
	require.NoError(t, err)
	require.Equal(t, nodeInternal, root.nodeType())
	require.Equal(t, uint32(1), root.internalNumKeys())

	// The two children's key sets together equal the inserted set.
	seen := map[uint32]bool{}
	for _, pageNum := range []uint32{root.internalChild(0), root.internalRightChild()} {
		leaf, err := table.pager.page(pageNum)
		require.NoError(t, err)
		for i := uint32(0); i < leaf.leafNumCells(); i++ {
			key := leaf.leafKey(i)
			assert.False(t, seen[key], "key %d appears in both children", key)
			seen[key] = true
		}
	}
	assert.Equal(t, inserted, seen)
}

func TestInternalNodeCapacityError(t *testing.T) {
	table := newTestTable(t)

	// Ascending inserts split the rightmost leaf every 7 keys past the
	// first split; the root runs out of separator slots at the fourth
	// split.
	for id := uint32(1); id <= 34; id++ {
		require.NoError(t, table.Insert(testRow(id)))
	}

	err := table.Insert(testRow(35))
	require.ErrorIs(t, err, ErrInternalNodeSplitUnsupported)

	// The failed insert left the tree untouched: all 34 keys remain
	// reachable in order.
	keys := collectKeys(t, table)
	require.Len(t, keys, 34)
	for i, key := range keys {
		assert.Equal(t, uint32(i+1), key)
	}
}

func TestPageCapacityDuringSplit(t *testing.T) {
	table := newTestTable(t, WithMaxPages(2))

	for id := uint32(1); id <= 13; id++ {
		require.NoError(t, table.Insert(testRow(id)))
	}

	// The split needs a sibling page and a copied-root page; only one
	// page number is left.
	err := table.Insert(testRow(14))
	assert.ErrorIs(t, err, ErrPageCapacityExceeded)
}

func TestMultiLevelDescent(t *testing.T) {
	table := newTestTable(t)

	// Three splits give the root four children; finds must route
	// through the separators to the correct leaf.
	for id := uint32(1); id <= 34; id++ {
		require.NoError(t, table.Insert(testRow(id)))
	}

	root, err := table.pager.page(0)
	require.NoError(t, err)
	require.Equal(t, uint32(3), root.internalNumKeys())

	for _, id := range []uint32{1, 7, 8, 14, 21, 28, 34} {
		cursor, err := table.Find(id)
		require.NoError(t, err)
		key, err := cursor.Key()
		require.NoError(t, err)
		assert.Equal(t, id, key)

		row, err := cursor.Row()
		require.NoError(t, err)
		assert.Equal(t, testRow(id), row)
	}
}
