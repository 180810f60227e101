package strand

import (
	"github.com/pkg/errors"
	"github.com/tidwall/btree"
	"go.uber.org/zap"
)

// BlockStore owns every block of a document. Blocks live in per-client
// append-only lists (the arena); an ordered index by identifier serves the
// containing-block lookups that splits and relative positions need. Chain
// links between blocks are navigation only and never imply ownership.
type BlockStore struct {
	kind    OffsetKind
	clients map[ClientID]*clientBlocks
	index   *btree.BTreeG[*Item]
	log     *zap.Logger
}

// clientBlocks is one replica's arena: every block that replica created, in
// creation order, plus the next free clock value.
type clientBlocks struct {
	list []*Item
	next int
}

func newBlockStore(kind OffsetKind, log *zap.Logger) *BlockStore {
	return &BlockStore{
		kind:    kind,
		clients: make(map[ClientID]*clientBlocks),
		index: btree.NewBTreeG(func(a, b *Item) bool {
			return a.id.Compare(b.id) < 0
		}),
		log: log,
	}
}

// OffsetKind returns the counting convention all clock arithmetic uses.
func (s *BlockStore) OffsetKind() OffsetKind { return s.kind }

// NextClock returns the next free clock value for the given client.
func (s *BlockStore) NextClock(client ClientID) int {
	if cb, ok := s.clients[client]; ok {
		return cb.next
	}
	return 0
}

// Push registers a freshly integrated or split-off block.
func (s *BlockStore) Push(item *Item) {
	cb := s.clients[item.id.Client]
	if cb == nil {
		cb = &clientBlocks{}
		s.clients[item.id.Client] = cb
	}
	cb.list = append(cb.list, item)
	if end := item.id.Clock + item.clockLen(s.kind); end > cb.next {
		cb.next = end
	}
	s.index.Set(item)
}

// findBlock returns the block whose clock range covers id.
func (s *BlockStore) findBlock(id ID) (*Item, error) {
	var found *Item
	s.index.Descend(&Item{id: id}, func(it *Item) bool {
		found = it
		return false
	})
	if found == nil || found.id.Client != id.Client || !found.containsClock(id.Clock, s.kind) {
		return nil, errors.Wrapf(ErrBlockNotFound, "no block covers %s", id)
	}
	return found, nil
}

// GetItemCleanStart returns the block starting exactly at id, splitting the
// covering block first when id falls in its interior.
func (s *BlockStore) GetItemCleanStart(id ID) (*Item, error) {
	item, err := s.findBlock(id)
	if err != nil {
		return nil, err
	}
	if item.id.Clock == id.Clock {
		return item, nil
	}
	right, err := item.splitAt(id.Clock-item.id.Clock, s.kind)
	if err != nil {
		return nil, err
	}
	s.Push(right)
	s.log.Debug("split block",
		zap.Stringer("at", id),
		zap.Stringer("left", item.id),
		zap.Stringer("right", right.id))
	return right, nil
}

// GetItemCleanEnd returns the block ending exactly at id, splitting the
// covering block first when id falls before its last unit.
func (s *BlockStore) GetItemCleanEnd(id ID) (*Item, error) {
	item, err := s.findBlock(id)
	if err != nil {
		return nil, err
	}
	if id.Clock == item.lastID(s.kind).Clock {
		return item, nil
	}
	right, err := item.splitAt(id.Clock-item.id.Clock+1, s.kind)
	if err != nil {
		return nil, err
	}
	s.Push(right)
	s.log.Debug("split block",
		zap.Stringer("after", id),
		zap.Stringer("left", item.id),
		zap.Stringer("right", right.id))
	return item, nil
}

// Len returns the total number of blocks in the store.
func (s *BlockStore) Len() int {
	return s.index.Len()
}
