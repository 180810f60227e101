package strand

import (
	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"
)

// Txn is the mutation context every chain-changing call threads through.
// It allocates identifiers for new blocks, tombstones blocks and logs them
// for later propagation. One transaction at a time per document; cursors are
// bound to exactly one transaction for their whole lifetime.
type Txn struct {
	doc     *Doc
	deleted mapset.Set[ID]
	done    bool
	log     *zap.Logger
}

// Transact opens a transaction on the document. It fails when another
// transaction is still pending; exclusivity across goroutines is the
// caller's responsibility.
func (d *Doc) Transact() (*Txn, error) {
	if d.pending != nil && !d.pending.done {
		return nil, ErrTransactionPending
	}
	t := &Txn{
		doc:     d,
		deleted: mapset.NewThreadUnsafeSet[ID](),
		log:     d.opts.Logger,
	}
	d.pending = t
	return t, nil
}

// Store returns the document's block store.
func (t *Txn) Store() *BlockStore { return t.doc.store }

// Doc returns the document this transaction mutates.
func (t *Txn) Doc() *Doc { return t.doc }

// NextID allocates a fresh identifier from the local replica's clock.
func (t *Txn) NextID() ID {
	client := t.doc.opts.ClientID
	return ID{Client: client, Clock: t.doc.store.NextClock(client)}
}

// Delete tombstones a whole block and logs it for propagation. Deleting an
// already-tombstoned block is a no-op. Tombstoning a move block releases the
// range it relocated.
func (t *Txn) Delete(item *Item) {
	if item == nil || item.deleted {
		return
	}
	item.deleted = true
	t.deleted.Add(item.id)
	if item.Countable() {
		item.parent.length -= item.Len(t.doc.store.kind)
	}
	if mc, ok := item.content.(*MoveContent); ok {
		t.releaseMove(item, mc.Move)
	}
	t.log.Debug("tombstoned block", zap.Stringer("id", item.id))
}

// releaseMove clears relocation ownership from the range a deleted move
// block had claimed.
func (t *Txn) releaseMove(moveItem *Item, m *Move) {
	start, end, err := m.movedCoords(t, moveItem.parent)
	if err != nil {
		t.log.Warn("release move: unresolvable range", zap.Error(err))
		return
	}
	for p := start; p != nil && p != end; p = p.right {
		if p.moved == moveItem {
			p.moved = nil
		}
	}
}

// DeleteSet returns the identifiers of every block tombstoned in this
// transaction.
func (t *Txn) DeleteSet() []ID {
	return t.deleted.ToSlice()
}

// Commit closes the transaction. The cursor layer performs no rollback:
// partial mutations before a fatal defect stay applied, and the caller
// decides what to do with the attempt.
func (t *Txn) Commit() error {
	if t.done {
		return ErrTransactionDone
	}
	t.done = true
	t.doc.pending = nil
	t.log.Debug("transaction committed",
		zap.Int("tombstones", t.deleted.Cardinality()))
	return nil
}
