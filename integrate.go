package strand

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// integrate splices a freshly created item into the chain between two known
// neighbors and registers it with the store. Merge conflict resolution
// between concurrent inserts happens in the replication layer above; by the
// time a block reaches here its neighbors are settled.
func (t *Txn) integrate(item *Item, left, right *Item) error {
	if item.parent == nil {
		return errors.Wrap(ErrCorruptChain, "integrate: block without a branch")
	}
	item.left = left
	item.right = right
	if left != nil {
		left.right = item
	} else {
		item.parent.start = item
	}
	if right != nil {
		right.left = item
	}

	t.doc.store.Push(item)
	if item.Countable() && !item.deleted {
		item.parent.length += item.Len(t.doc.store.kind)
	}
	t.log.Debug("integrated block",
		zap.Stringer("id", item.id),
		zap.String("branch", item.parent.name))

	if mc, ok := item.content.(*MoveContent); ok {
		return t.claimRange(item, mc.Move)
	}
	return nil
}

// claimRange marks every block of a move's resolved range as relocated by
// the move block. A competing move keeps the range only if it carries a
// strictly higher priority; ties go to the later claim.
func (t *Txn) claimRange(moveItem *Item, m *Move) error {
	start, end, err := m.movedCoords(t, moveItem.parent)
	if err != nil {
		return errors.Wrap(err, "claim move range")
	}
	for p := start; p != nil && p != end; p = p.right {
		if p == moveItem {
			continue
		}
		if prev := p.moved; prev != nil {
			if pmc, ok := prev.content.(*MoveContent); ok && pmc.Move.Priority > m.Priority {
				continue
			}
		}
		p.moved = moveItem
	}
	return nil
}
