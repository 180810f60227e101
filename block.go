package strand

// Item is one node of a branch's block chain. Items are created by insertion,
// never mutated afterwards except for tombstoning, relocation ownership and
// link rewiring on split. The chain does not own its nodes; ownership lives
// in the per-client block lists of the store, and left/right are navigation
// only.
type Item struct {
	id          ID
	left, right *Item

	// origin and rightOrigin record the neighbors present at creation time.
	// They belong to the external integration algorithm and are never
	// consulted by the cursor.
	origin      *ID
	rightOrigin *ID

	content Content
	parent  *Branch

	// deleted is the tombstone marker. One-way: never cleared.
	deleted bool

	// moved points at the move block currently responsible for relocating
	// this item, or nil when the item lives at its home position.
	moved *Item
}

// ID returns the item's identifier, addressing its first content unit.
func (it *Item) ID() ID { return it.id }

// Left returns the previous item in the chain, or nil at the chain start.
func (it *Item) Left() *Item { return it.left }

// Right returns the next item in the chain, or nil at the chain end.
func (it *Item) Right() *Item { return it.right }

// Content returns the item's payload.
func (it *Item) Content() Content { return it.content }

// Deleted reports whether the item is tombstoned.
func (it *Item) Deleted() bool { return it.deleted }

// Moved returns the move block relocating this item, or nil.
func (it *Item) Moved() *Item { return it.moved }

// Countable reports whether the item contributes to logical length.
func (it *Item) Countable() bool { return it.content.Countable() }

// Len returns the content length under the given counting convention.
func (it *Item) Len(kind OffsetKind) int { return it.content.Len(kind) }

// clockLen is the width of the clock range this item occupies. Zero-width
// content still takes one clock unit so every block has a distinct address.
func (it *Item) clockLen(kind OffsetKind) int {
	if n := it.content.Len(kind); n > 0 {
		return n
	}
	return 1
}

// lastID addresses the item's final clock unit.
func (it *Item) lastID(kind OffsetKind) ID {
	return ID{Client: it.id.Client, Clock: it.id.Clock + it.clockLen(kind) - 1}
}

// LastID addresses the item's final clock unit under its document's
// counting convention.
func (it *Item) LastID() ID {
	return it.lastID(it.parent.doc.opts.OffsetKind)
}

// containsClock reports whether the given clock falls inside this item's
// clock range. Only meaningful for the item's own client.
func (it *Item) containsClock(clock int, kind OffsetKind) bool {
	return clock >= it.id.Clock && clock < it.id.Clock+it.clockLen(kind)
}

// splitAt divides the item at unit offset off, producing a right half with a
// derived identifier and rewiring the chain links around it. Tombstone state
// and relocation ownership carry over to both halves. The caller registers
// the new half with the store.
func (it *Item) splitAt(off int, kind OffsetKind) (*Item, error) {
	leftContent, rightContent, err := it.content.Split(off, kind)
	if err != nil {
		return nil, err
	}
	next := &Item{
		id:      ID{Client: it.id.Client, Clock: it.id.Clock + off},
		left:    it,
		right:   it.right,
		content: rightContent,
		parent:  it.parent,
		deleted: it.deleted,
		moved:   it.moved,
	}
	o := ID{Client: it.id.Client, Clock: it.id.Clock + off - 1}
	next.origin = &o
	next.rightOrigin = it.rightOrigin

	it.content = leftContent
	if it.right != nil {
		it.right.left = next
	}
	it.right = next
	return next, nil
}
