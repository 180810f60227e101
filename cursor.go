package strand

import "github.com/pkg/errors"

// Cursor walks a branch's block chain by logical index: tombstones and
// relocated blocks are skipped at their home position, move ranges are
// entered and exited transparently, and blocks are split on demand when an
// operation lands mid-content. A cursor is created fresh per walk, bound to
// one transaction, and never shared across goroutines.
type Cursor struct {
	branch *Branch

	// index is the logical offset from the branch start; rel is the
	// unconsumed offset within nextItem.
	index int
	rel   int

	// nextItem is the block at or after the cursor position. When
	// reachedEnd is set it denotes the last block instead, and the cursor
	// sits one past the last live unit.
	nextItem   *Item
	reachedEnd bool

	// currMove is the move block whose range the walk is currently inside,
	// with its resolved boundaries; movedStack holds the suspended
	// enclosing moves, innermost last.
	currMove      *Item
	currMoveStart *Item
	currMoveEnd   *Item
	movedStack    []moveFrame
}

// moveFrame is one suspended move context: the resolved boundaries as they
// were when the nested move was entered, and the move block that owns them.
type moveFrame struct {
	start, end *Item
	movedTo    *Item
}

// Index returns the cursor's logical offset from the branch start.
func (c *Cursor) Index() int { return c.index }

// Rel returns the unconsumed offset within the block at NextItem.
func (c *Cursor) Rel() int { return c.rel }

// Finished reports whether the cursor sits one past the last live unit.
func (c *Cursor) Finished() bool { return c.reachedEnd }

// NextItem returns the block at or after the cursor position, or nil when
// the branch is empty.
func (c *Cursor) NextItem() *Item { return c.nextItem }

// Left returns the block immediately before the cursor boundary, or nil at
// the chain start. Only meaningful when Rel is zero.
func (c *Cursor) Left() *Item {
	if c.reachedEnd {
		return c.nextItem
	}
	if c.nextItem != nil {
		return c.nextItem.left
	}
	return nil
}

// Right returns the block immediately after the cursor boundary, or nil at
// the chain end.
func (c *Cursor) Right() *Item {
	if c.reachedEnd {
		return nil
	}
	return c.nextItem
}

// MoveTo positions the cursor at the given logical index, walking forward or
// backward as needed. Positioning at the current index is a no-op.
func (c *Cursor) MoveTo(txn *Txn, index int) error {
	switch {
	case index > c.index:
		return c.Forward(txn, index-c.index)
	case index < c.index:
		return c.Backward(txn, c.index-index)
	default:
		return nil
	}
}

// canForward reports whether the walk can take another step: either logical
// distance remains, or the current block is a structural one (tombstone,
// zero-width marker, move boundary, out-of-context relocation) that a
// zero-length step may cross.
func (c *Cursor) canForward(item *Item, n int) bool {
	if !c.reachedEnd || c.currMove != nil {
		if n > 0 {
			return true
		}
		if item != nil {
			return !item.Countable() || item.Deleted() ||
				item == c.currMoveEnd ||
				(c.reachedEnd && c.currMoveEnd == nil) ||
				item.moved != c.currMove
		}
	}
	return false
}

// Forward advances the cursor by n content units, descending into move
// ranges transparently. A zero-length call crosses structural boundaries
// only. Fails with ErrLengthExceeded when n overshoots the live content.
func (c *Cursor) Forward(txn *Txn, n int) error {
	if n == 0 && c.nextItem == nil {
		return nil
	}
	if c.index+n > c.branch.Len() || c.nextItem == nil {
		return errors.Wrapf(ErrLengthExceeded, "forward %d from index %d of %d", n, c.index, c.branch.Len())
	}

	item := c.nextItem
	c.index += n
	if c.rel != 0 {
		n += c.rel
		c.rel = 0
	}
	kind := txn.Store().kind

	for c.canForward(item, n) {
		if (c.currMove != nil && item == c.currMoveEnd) ||
			(c.reachedEnd && c.currMoveEnd == nil && c.currMove != nil) {
			// Exit the active move: continue from the move block's own
			// position and step past it below.
			item = c.currMove
			if err := c.pop(txn); err != nil {
				return err
			}
		} else if item == nil {
			return errors.Wrap(ErrCorruptChain, "forward: no next block while work remains")
		} else {
			if item.Countable() && !item.Deleted() && item.moved == c.currMove && n > 0 {
				itemLen := item.Len(kind)
				if itemLen > n {
					c.rel = n
					n = 0
					break
				}
				n -= itemLen
			} else if mc, ok := item.content.(*MoveContent); ok && !item.Deleted() && item.moved == c.currMove {
				if c.currMove != nil {
					c.movedStack = append(c.movedStack, moveFrame{
						start:   c.currMoveStart,
						end:     c.currMoveEnd,
						movedTo: c.currMove,
					})
				}
				start, end, err := mc.Move.movedCoords(txn, c.branch)
				if err != nil {
					return err
				}
				c.currMove = item
				c.currMoveStart = start
				c.currMoveEnd = end
				item = start
				continue
			}
			if c.reachedEnd {
				return errors.Wrap(ErrCorruptChain, "forward: walked past chain end")
			}
		}

		if item.right != nil {
			item = item.right
		} else {
			c.reachedEnd = true
		}
	}

	c.index -= n
	c.nextItem = item
	return nil
}

// Backward retreats the cursor by n content units, the mirror walk of
// Forward with its own edge cases: the intra-block remainder absorbs short
// moves, move ranges are entered at their resolved end and consumed toward
// their start, and crossing a range's start continues left of the move block
// that owns it.
func (c *Cursor) Backward(txn *Txn, n int) error {
	if n > c.index {
		return errors.Wrapf(ErrLengthExceeded, "backward %d from index %d", n, c.index)
	}
	c.index -= n
	kind := txn.Store().kind
	fromEnd := c.reachedEnd
	if c.reachedEnd && c.nextItem != nil {
		if c.nextItem.Countable() && !c.nextItem.Deleted() {
			c.rel = c.nextItem.Len(kind)
		} else {
			c.rel = 0
		}
	}
	if n > 0 {
		// The position now lies strictly before the last live unit.
		c.reachedEnd = false
	}
	if c.rel >= n {
		c.rel -= n
		return nil
	}
	item := c.nextItem
	if item != nil {
		if _, ok := item.content.(*MoveContent); ok {
			// A boundary before the move block retreats past it; a boundary
			// after it sits past the relocated range, which the loop below
			// enters from its end.
			if !fromEnd || item.Deleted() || item.moved != c.currMove {
				item = item.left
			}
		} else {
			if item.Countable() && !item.Deleted() && item.moved == c.currMove {
				n += item.Len(kind)
			}
			n -= c.rel
		}
	}
	c.rel = 0
	for item != nil {
		if n == 0 {
			break
		}
		if item.Countable() && !item.Deleted() && item.moved == c.currMove {
			itemLen := item.Len(kind)
			if n < itemLen {
				c.rel = itemLen - n
				n = 0
			} else {
				n -= itemLen
			}
			if n == 0 {
				break
			}
		} else if mc, ok := item.content.(*MoveContent); ok && !item.Deleted() && item.moved == c.currMove {
			start, end, err := mc.Move.movedCoords(txn, c.branch)
			if err != nil {
				return err
			}
			if start != nil && start != end {
				if c.currMove != nil {
					c.movedStack = append(c.movedStack, moveFrame{
						start:   c.currMoveStart,
						end:     c.currMoveEnd,
						movedTo: c.currMove,
					})
				}
				c.currMove = item
				c.currMoveStart = start
				c.currMoveEnd = end
				// A range is consumed end to start when walking backward.
				if end != nil {
					item = end.left
				} else {
					last := start
					for last.right != nil {
						last = last.right
					}
					item = last
				}
				continue
			}
		}
		if item == c.currMoveStart {
			item = c.currMove
			if err := c.pop(txn); err != nil {
				return err
			}
		}
		if item != nil {
			item = item.left
		}
	}
	c.nextItem = item
	if n > 0 {
		return errors.Wrapf(ErrCorruptChain, "backward: no previous block with %d units unconsumed", n)
	}
	return nil
}

// pop exits the active move context, restoring the enclosing one from the
// stack. Saved boundaries survive across edits only while nothing was
// inserted between a left-biased anchor and its resolved block; otherwise
// they are recomputed against current chain state.
func (c *Cursor) pop(txn *Txn) error {
	var start, end, moved *Item
	if len(c.movedStack) > 0 {
		frame := c.movedStack[len(c.movedStack)-1]
		c.movedStack = c.movedStack[:len(c.movedStack)-1]
		start, end, moved = frame.start, frame.end, frame.movedTo

		mc, ok := moved.content.(*MoveContent)
		if !ok {
			return errors.Wrap(ErrCorruptChain, "move stack frame does not reference a move block")
		}
		kind := txn.Store().kind
		if mc.Move.Start.stale(start, kind) || mc.Move.End.stale(end, kind) {
			s, e, err := mc.Move.movedCoords(txn, c.branch)
			if err != nil {
				return err
			}
			start, end = s, e
		}
	}
	c.currMove = moved
	c.currMoveStart = start
	c.currMoveEnd = end
	c.reachedEnd = false
	return nil
}

// reduceMoves pops every move context whose range starts exactly at the
// cursor position, so an insertion lands outside those ranges rather than
// at their head.
func (c *Cursor) reduceMoves(txn *Txn) error {
	item := c.nextItem
	if item == nil {
		return nil
	}
	for item == c.currMoveStart {
		item = c.currMove
		if err := c.pop(txn); err != nil {
			return err
		}
	}
	c.nextItem = item
	return nil
}

// splitRel splits the block at the cursor's intra-block offset so the
// position falls on a clean block boundary.
func (c *Cursor) splitRel(txn *Txn) error {
	if c.rel == 0 || c.nextItem == nil {
		return nil
	}
	id := c.nextItem.id
	id.Clock += c.rel
	item, err := txn.Store().GetItemCleanStart(id)
	if err != nil {
		return errors.Wrap(err, "split at cursor offset")
	}
	c.nextItem = item
	c.rel = 0
	return nil
}

// Delete removes n logical units starting at the cursor, tombstoning whole
// blocks and splitting first wherever a deletion boundary falls mid-block.
// Structural boundaries are crossed with zero-length forward steps. Fails
// with ErrLengthExceeded when n overshoots the live content; blocks already
// tombstoned by then stay tombstoned.
func (c *Cursor) Delete(txn *Txn, n int) error {
	if c.index+n > c.branch.Len() {
		return errors.Wrapf(ErrLengthExceeded, "delete %d at index %d of %d", n, c.index, c.branch.Len())
	}
	kind := txn.Store().kind
	item := c.nextItem
	for n > 0 {
		for item != nil {
			if !item.Deleted() && item.Countable() && !c.reachedEnd && n > 0 &&
				item.moved == c.currMove && item != c.currMoveEnd {
				if c.rel > 0 {
					id := item.id
					id.Clock += c.rel
					var err error
					item, err = txn.Store().GetItemCleanStart(id)
					if err != nil {
						return errors.Wrap(err, "delete: split at cursor offset")
					}
					c.rel = 0
				}
				if n < item.Len(kind) {
					id := item.id
					id.Clock += n
					if _, err := txn.Store().GetItemCleanStart(id); err != nil {
						return errors.Wrap(err, "delete: split at boundary")
					}
				}
				n -= item.Len(kind)
				txn.Delete(item)
				if item.right != nil {
					item = item.right
				} else {
					c.reachedEnd = true
				}
			} else {
				break
			}
		}
		if n > 0 {
			c.nextItem = item
			if err := c.Forward(txn, 0); err != nil {
				return err
			}
			item = c.nextItem
		}
	}
	c.nextItem = item
	return nil
}

// InsertContents creates one block per content piece at the cursor position,
// chained left to right with fresh identifiers from the transaction's clock.
// Move ranges starting exactly here are reduced first and the current block
// is split so insertion happens on a clean boundary. Afterwards the cursor
// sits just after the inserted run.
func (c *Cursor) InsertContents(txn *Txn, contents ...Content) error {
	if err := c.reduceMoves(txn); err != nil {
		return err
	}
	if err := c.splitRel(txn); err != nil {
		return err
	}
	kind := txn.Store().kind
	right := c.Right()
	left := c.Left()
	for _, content := range contents {
		item := &Item{
			id:      txn.NextID(),
			content: content,
			parent:  c.branch,
		}
		if left != nil {
			o := left.lastID(kind)
			item.origin = &o
		}
		if right != nil {
			ro := right.id
			item.rightOrigin = &ro
		}
		if err := txn.integrate(item, left, right); err != nil {
			return err
		}
		left = item
	}
	if right != nil {
		c.nextItem = right
	} else {
		c.nextItem = left
		c.reachedEnd = true
	}
	for _, content := range contents {
		if content.Countable() {
			c.index += content.Len(kind)
		}
	}
	return nil
}

// InsertMove inserts a move block at the cursor relocating the given range
// here. The fixed low priority lets any concurrent move of the same content
// win the claim.
func (c *Cursor) InsertMove(txn *Txn, start, end RelativePosition) error {
	return c.InsertContents(txn, &MoveContent{
		Move: &Move{Start: start, End: end, Priority: -1},
	})
}

// Slice extracts up to n units of payload starting at the cursor, advancing
// it past the extracted content. Structural boundaries are crossed with
// zero-length forward steps.
func (c *Cursor) Slice(txn *Txn, n int) ([]Value, error) {
	return c.slice(txn, n)
}

func (c *Cursor) slice(txn *Txn, n int) ([]Value, error) {
	if c.index+n > c.branch.Len() {
		return nil, errors.Wrapf(ErrLengthExceeded, "slice %d at index %d of %d", n, c.index, c.branch.Len())
	}
	c.index += n
	kind := txn.Store().kind
	next := c.nextItem
	var out []Value
	// reachedEnd is provisional while a move is active: the pending pop
	// resumes the walk from the move block's own position.
	for n > 0 && !(c.reachedEnd && c.currMove == nil) {
		for next != nil {
			if next == c.currMoveEnd || !next.Countable() || c.reachedEnd || n == 0 {
				break
			}
			if !next.Deleted() && next.moved == c.currMove {
				sliced := next.content.Slice(c.rel, n, kind)
				n -= len(sliced)
				out = concatValues(out, sliced)
				if c.rel+len(sliced) == next.Len(kind) {
					c.rel = 0
				} else {
					c.rel += len(sliced)
					continue // stay inside this block
				}
			}
			if next.right != nil {
				next = next.right
				c.nextItem = next
			} else {
				c.reachedEnd = true
			}
		}
		if n > 0 {
			c.nextItem = next
			if err := c.Forward(txn, 0); err != nil {
				return nil, err
			}
			if c.nextItem == nil {
				return nil, errors.Wrap(ErrCorruptChain, "slice: no next block while content remains")
			}
			next = c.nextItem
		}
	}
	c.nextItem = next
	return out, nil
}

// Values returns a lazy sequence of single logical units starting at the
// cursor position, tied to this cursor and transaction. The sequence is
// finite and not restartable.
func (c *Cursor) Values(txn *Txn) *Values {
	return &Values{cursor: c, txn: txn}
}
