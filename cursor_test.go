package strand

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTxn(t *testing.T) (*Doc, *Txn, *Branch) {
	t.Helper()
	doc := NewDoc(Options{ClientID: 1})
	txn, err := doc.Transact()
	require.NoError(t, err)
	return doc, txn, doc.Branch("text")
}

// appendString inserts s at the end of the branch with a fresh cursor.
func appendString(t *testing.T, txn *Txn, b *Branch, s string) {
	t.Helper()
	cur := b.Cursor()
	require.NoError(t, cur.MoveTo(txn, b.Len()))
	require.NoError(t, cur.InsertContents(txn, NewString(s)))
}

// branchText reads the whole branch through a fresh cursor and joins the
// extracted text units.
func branchText(t *testing.T, txn *Txn, b *Branch) string {
	t.Helper()
	vals, err := b.Cursor().Values(txn).Collect()
	require.NoError(t, err)
	var sb strings.Builder
	for _, v := range vals {
		sb.WriteString(v.(string))
	}
	return sb.String()
}

func chainBlocks(b *Branch) []*Item {
	var out []*Item
	for it := b.start; it != nil; it = it.right {
		out = append(out, it)
	}
	return out
}

func TestCursorEmptyBranch(t *testing.T) {
	_, txn, b := newTestTxn(t)

	cur := b.Cursor()
	assert.True(t, cur.Finished())
	assert.Nil(t, cur.NextItem())
	require.NoError(t, cur.MoveTo(txn, 0))

	err := cur.Forward(txn, 1)
	require.ErrorIs(t, err, ErrLengthExceeded)

	vals, err := b.Cursor().Values(txn).Collect()
	require.NoError(t, err)
	assert.Empty(t, vals)
}

func TestInsertIntoEmptyBranch(t *testing.T) {
	_, txn, b := newTestTxn(t)

	cur := b.Cursor()
	require.NoError(t, cur.InsertContents(txn, NewString("a"), NewString("b"), NewString("c")))

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, 3, cur.Index())
	assert.True(t, cur.Finished())

	blocks := chainBlocks(b)
	require.Len(t, blocks, 3)
	assert.Equal(t, ID{Client: 1, Clock: 0}, blocks[0].ID())
	assert.Equal(t, ID{Client: 1, Clock: 1}, blocks[1].ID())
	assert.Equal(t, ID{Client: 1, Clock: 2}, blocks[2].ID())

	// Links and creation-time origins chain left to right.
	assert.Nil(t, blocks[0].Left())
	assert.Same(t, blocks[0], blocks[1].Left())
	assert.Same(t, blocks[2], blocks[1].Right())
	assert.Nil(t, blocks[2].Right())
	assert.Nil(t, blocks[0].origin)
	require.NotNil(t, blocks[1].origin)
	assert.Equal(t, ID{Client: 1, Clock: 0}, *blocks[1].origin)
	require.NotNil(t, blocks[2].origin)
	assert.Equal(t, ID{Client: 1, Clock: 1}, *blocks[2].origin)

	assert.Equal(t, "abc", branchText(t, txn, b))
}

func TestMoveToIsIdempotent(t *testing.T) {
	_, txn, b := newTestTxn(t)
	appendString(t, txn, b, "abc")
	appendString(t, txn, b, "de")

	for i := 0; i <= b.Len(); i++ {
		cur := b.Cursor()
		require.NoError(t, cur.MoveTo(txn, i))
		index, rel, next := cur.Index(), cur.Rel(), cur.NextItem()

		require.NoError(t, cur.MoveTo(txn, i))
		assert.Equal(t, index, cur.Index(), "index %d", i)
		assert.Equal(t, rel, cur.Rel(), "index %d", i)
		assert.Same(t, next, cur.NextItem(), "index %d", i)
	}
}

func TestForwardThenBackwardRestores(t *testing.T) {
	_, txn, b := newTestTxn(t)
	appendString(t, txn, b, "abc")
	appendString(t, txn, b, "de")

	for k := 0; k <= b.Len(); k++ {
		cur := b.Cursor()
		require.NoError(t, cur.Forward(txn, k))
		require.NoError(t, cur.Backward(txn, k))

		assert.Equal(t, 0, cur.Index(), "k=%d", k)
		assert.Equal(t, 0, cur.Rel(), "k=%d", k)
		assert.Same(t, b.Start(), cur.NextItem(), "k=%d", k)
		assert.Empty(t, cur.movedStack, "k=%d", k)
	}
}

func TestForwardAfterBackward(t *testing.T) {
	_, txn, b := newTestTxn(t)
	appendString(t, txn, b, "abcde")

	cur := b.Cursor()
	require.NoError(t, cur.MoveTo(txn, 5))
	require.NoError(t, cur.MoveTo(txn, 1))
	require.NoError(t, cur.MoveTo(txn, 4))

	assert.Equal(t, 4, cur.Index())
	out, err := cur.Slice(txn, 1)
	require.NoError(t, err)
	assert.Equal(t, []Value{"e"}, out)
}

func TestCursorNeighbors(t *testing.T) {
	_, txn, b := newTestTxn(t)
	appendString(t, txn, b, "abc")
	appendString(t, txn, b, "de")

	cur := b.Cursor()
	require.NoError(t, cur.MoveTo(txn, 3))
	require.Equal(t, 0, cur.Rel())
	require.NotNil(t, cur.Right())
	assert.Equal(t, ID{Client: 1, Clock: 3}, cur.Right().ID())
	require.NotNil(t, cur.Left())
	assert.Equal(t, ID{Client: 1, Clock: 0}, cur.Left().ID())

	require.NoError(t, cur.MoveTo(txn, 5))
	assert.True(t, cur.Finished())
	assert.Nil(t, cur.Right())
	require.NotNil(t, cur.Left())
	assert.Equal(t, ID{Client: 1, Clock: 3}, cur.Left().ID())
}

func TestDeleteTombstonesImmediately(t *testing.T) {
	_, txn, b := newTestTxn(t)
	appendString(t, txn, b, "abcde")

	cur := b.Cursor()
	require.NoError(t, cur.MoveTo(txn, 1))
	require.NoError(t, cur.Delete(txn, 2))

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, "ade", branchText(t, txn, b))
	assert.Contains(t, txn.DeleteSet(), ID{Client: 1, Clock: 1})

	// Tombstoned blocks stay in the chain.
	var dead int
	for _, it := range chainBlocks(b) {
		if it.Deleted() {
			dead++
		}
	}
	assert.Equal(t, 1, dead)
}

func TestDeleteSplitsAtBothBoundaries(t *testing.T) {
	_, txn, b := newTestTxn(t)

	cur := b.Cursor()
	require.NoError(t, cur.InsertContents(txn, NewString("abc")))
	require.NoError(t, cur.InsertContents(txn, NewString("de")))
	require.Equal(t, 5, b.Len())

	del := b.Cursor()
	require.NoError(t, del.MoveTo(txn, 2))
	require.Equal(t, 2, del.Rel())
	require.Equal(t, ID{Client: 1, Clock: 0}, del.NextItem().ID())

	require.NoError(t, del.Delete(txn, 2))
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, "abe", branchText(t, txn, b))

	// The deletion boundary falls mid-block on both sides, so both source
	// blocks were split and only the interior halves are tombstoned.
	blocks := chainBlocks(b)
	require.Len(t, blocks, 4)
	assert.Equal(t, ID{Client: 1, Clock: 0}, blocks[0].ID())
	assert.False(t, blocks[0].Deleted())
	assert.Equal(t, ID{Client: 1, Clock: 2}, blocks[1].ID())
	assert.True(t, blocks[1].Deleted())
	assert.Equal(t, ID{Client: 1, Clock: 3}, blocks[2].ID())
	assert.True(t, blocks[2].Deleted())
	assert.Equal(t, ID{Client: 1, Clock: 4}, blocks[3].ID())
	assert.False(t, blocks[3].Deleted())
}

func TestDeleteBeyondLiveContent(t *testing.T) {
	_, txn, b := newTestTxn(t)
	appendString(t, txn, b, "abcde")

	cur := b.Cursor()
	require.NoError(t, cur.MoveTo(txn, 1))
	require.NoError(t, cur.Delete(txn, 2))
	require.Equal(t, 3, b.Len())

	// The tombstoned range no longer counts, so deleting it again overshoots.
	again := b.Cursor()
	require.NoError(t, again.MoveTo(txn, 1))
	err := again.Delete(txn, 3)
	require.ErrorIs(t, err, ErrLengthExceeded)
}

func TestInsertThenSliceRoundtrip(t *testing.T) {
	_, txn, b := newTestTxn(t)
	appendString(t, txn, b, "hello world")

	mid := b.Cursor()
	require.NoError(t, mid.MoveTo(txn, 5))
	require.NoError(t, mid.InsertContents(txn, NewString(" there")))
	require.Equal(t, 11, mid.Index())

	assert.Equal(t, 17, b.Len())
	assert.Equal(t, "hello there world", branchText(t, txn, b))

	reader := b.Cursor()
	require.NoError(t, reader.MoveTo(txn, 3))
	out, err := reader.Slice(txn, 5)
	require.NoError(t, err)
	require.Len(t, out, 5)
	var sb strings.Builder
	for _, v := range out {
		sb.WriteString(v.(string))
	}
	assert.Equal(t, "lo th", sb.String())
	assert.Equal(t, 8, reader.Index())
}

func TestSliceBeyondLiveContent(t *testing.T) {
	_, txn, b := newTestTxn(t)
	appendString(t, txn, b, "abc")

	cur := b.Cursor()
	_, err := cur.Slice(txn, 4)
	require.ErrorIs(t, err, ErrLengthExceeded)

	out, err := cur.Slice(txn, 3)
	require.NoError(t, err)
	require.Len(t, out, 3)
	_, err = cur.Slice(txn, 1)
	require.ErrorIs(t, err, ErrLengthExceeded)
}

func TestInsertAdvancesPastInsertedRun(t *testing.T) {
	_, txn, b := newTestTxn(t)

	cur := b.Cursor()
	require.NoError(t, cur.InsertContents(txn, NewString("Hello, world!")))
	require.NoError(t, cur.MoveTo(txn, 7))
	require.NoError(t, cur.Delete(txn, 5))
	require.NoError(t, cur.InsertContents(txn, NewString("strand")))

	assert.Equal(t, 13, cur.Index())
	assert.Equal(t, 14, b.Len())
	assert.Equal(t, "Hello, strand!", branchText(t, txn, b))
}
