package strand

import "github.com/pkg/errors"

// Assoc is the association bias of a relative position: which side of the
// anchor the position sticks to when concurrent edits land exactly on it.
type Assoc int8

const (
	// AssocAfter binds the position to the unit at the anchor, placing the
	// boundary just before it. Right-biased.
	AssocAfter Assoc = 0

	// AssocBefore binds the position to the unit at the anchor, placing the
	// boundary just after it. Left-biased.
	AssocBefore Assoc = -1
)

// RelativePosition is a chain position that survives concurrent insertions:
// an anchor unit plus a bias. A nil anchor names the branch boundary itself
// (start for right-biased positions, end for left-biased ones).
type RelativePosition struct {
	Anchor *ID
	Assoc  Assoc
}

// resolve maps the position to the first chain block at or after its
// boundary, splitting blocks so the boundary falls exactly between two of
// them. nil means the branch end. Resolution is always against current chain
// state; results must not be cached across edits.
func (p RelativePosition) resolve(txn *Txn, branch *Branch) (*Item, error) {
	if p.Anchor == nil {
		if p.Assoc == AssocAfter {
			return branch.start, nil
		}
		return nil, nil
	}
	if p.Assoc == AssocAfter {
		return txn.Store().GetItemCleanStart(*p.Anchor)
	}
	item, err := txn.Store().GetItemCleanEnd(*p.Anchor)
	if err != nil {
		return nil, err
	}
	return item.right, nil
}

// stale reports whether a previously resolved boundary no longer holds.
// Left-biased positions resolve to the block after their anchor, so an
// insertion between anchor and boundary invalidates them; right-biased
// positions resolve through the anchor itself and never go stale.
func (p RelativePosition) stale(boundary *Item, kind OffsetKind) bool {
	if p.Assoc != AssocBefore || p.Anchor == nil || boundary == nil {
		return false
	}
	left := boundary.left
	return left == nil || left.lastID(kind) != *p.Anchor
}

// Move names a range of content relocated to follow the carrying block's
// position. The range is tracked via relative positions so it keeps meaning
// as the chain is edited concurrently; Priority settles competing claims
// over the same content.
type Move struct {
	Start    RelativePosition
	End      RelativePosition
	Priority int
}

// movedCoords resolves both range boundaries against current chain state,
// returning the first block of the range and the first block after it (nil
// for the chain end). Recomputed on every (re-)entry, never cached beyond
// one entry.
func (m *Move) movedCoords(txn *Txn, branch *Branch) (start, end *Item, err error) {
	start, err = m.Start.resolve(txn, branch)
	if err != nil {
		return nil, nil, errors.Wrap(err, "resolve move start")
	}
	end, err = m.End.resolve(txn, branch)
	if err != nil {
		return nil, nil, errors.Wrap(err, "resolve move end")
	}
	return start, end, nil
}

// RelativePositionAt computes a relative position for the given logical
// index with the given bias. Index 0 with a left bias (and the index equal
// to the branch length with a right bias) anchor the branch boundary.
func RelativePositionAt(txn *Txn, branch *Branch, index int, assoc Assoc) (RelativePosition, error) {
	cur := branch.Cursor()
	if err := cur.MoveTo(txn, index); err != nil {
		return RelativePosition{}, err
	}
	kind := txn.Store().kind
	if assoc == AssocAfter {
		if cur.index == branch.Len() || cur.nextItem == nil {
			return RelativePosition{Assoc: assoc}, nil
		}
		id := cur.nextItem.id
		id.Clock += cur.rel
		return RelativePosition{Anchor: &id, Assoc: assoc}, nil
	}
	if cur.rel > 0 {
		id := cur.nextItem.id
		id.Clock += cur.rel - 1
		return RelativePosition{Anchor: &id, Assoc: assoc}, nil
	}
	left := cur.Left()
	if left == nil {
		return RelativePosition{Assoc: assoc}, nil
	}
	id := left.lastID(kind)
	return RelativePosition{Anchor: &id, Assoc: assoc}, nil
}
