// Package strand implements the block chain and positional cursor of a
// replicated sequence type. Content lives in a doubly-linked chain of
// immutable-once-created blocks, some tombstoned or relocated by move
// operations; the cursor translates logical indexes into chain positions and
// performs offset-aware insertion, deletion and extraction over it.
package strand

import "errors"

// Fatal defects. These indicate caller misuse or a corrupted chain and must
// abort the whole transaction attempt; they are never retryable.
var (
	// ErrLengthExceeded indicates a movement, deletion or slice request
	// longer than the branch's live content.
	ErrLengthExceeded = errors.New("length exceeds live content")

	// ErrCorruptChain indicates the walk hit a state the chain invariants
	// rule out, such as a missing next block while work remains.
	ErrCorruptChain = errors.New("corrupted block chain")

	// ErrUnsplittable indicates a split was requested inside content that
	// has no interior offsets (binary payloads, move markers).
	ErrUnsplittable = errors.New("content cannot be split")

	// ErrBlockNotFound indicates an identifier that no block in the store
	// covers.
	ErrBlockNotFound = errors.New("block not found")
)

// Transaction errors
var (
	// ErrTransactionPending indicates a transaction is already open on the
	// document.
	ErrTransactionPending = errors.New("transaction already pending")

	// ErrTransactionDone indicates use of a transaction after commit.
	ErrTransactionDone = errors.New("transaction already committed")
)
