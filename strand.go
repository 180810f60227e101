package strand

import (
	"encoding/binary"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures a document.
type Options struct {
	// ClientID identifies this replica. A random identifier is generated
	// when zero.
	ClientID ClientID

	// GUID is the document's global identity, shared by all replicas of the
	// same document. A random identity is generated when empty.
	GUID string

	// OffsetKind is the content-length counting convention. Fixed for the
	// document's lifetime.
	OffsetKind OffsetKind

	// Logger receives debug output from chain mutations. Nop when nil.
	Logger *zap.Logger
}

// Doc is one replica's copy of a replicated document: the block store plus
// the named collection roots built on top of it.
type Doc struct {
	guid     string
	opts     Options
	store    *BlockStore
	branches map[string]*Branch
	pending  *Txn
}

// NewDoc creates an empty document.
func NewDoc(opts Options) *Doc {
	if opts.ClientID == 0 {
		opts.ClientID = randomClientID()
	}
	if opts.GUID == "" {
		opts.GUID = uuid.NewString()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	d := &Doc{
		guid:     opts.GUID,
		opts:     opts,
		branches: make(map[string]*Branch),
	}
	d.store = newBlockStore(opts.OffsetKind, opts.Logger)
	return d
}

// GUID returns the document's global identity.
func (d *Doc) GUID() string { return d.guid }

// ClientID returns this replica's identifier.
func (d *Doc) ClientID() ClientID { return d.opts.ClientID }

// Store returns the document's block store.
func (d *Doc) Store() *BlockStore { return d.store }

// Branch returns the named collection root, creating it if absent.
func (d *Doc) Branch(name string) *Branch {
	if b, ok := d.branches[name]; ok {
		return b
	}
	b := &Branch{doc: d, name: name}
	d.branches[name] = b
	return b
}

// randomClientID derives a replica identifier from a random UUID.
func randomClientID() ClientID {
	u := uuid.New()
	return ClientID(binary.BigEndian.Uint64(u[:8]))
}

// DefaultLogger builds a console logger for tools that want chain mutation
// output without configuring zap themselves. Library use defaults to a nop
// logger instead.
func DefaultLogger() *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		NameKey:        "N",
		MessageKey:     "M",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		os.Stdout,
		zapcore.DebugLevel,
	)
	return zap.New(core)
}

// Branch is one collection root: the entry point to a block chain. It owns
// no blocks itself; it only remembers where the chain starts and how much
// live, locally-countable content the chain holds.
type Branch struct {
	doc    *Doc
	name   string
	start  *Item
	length int
}

// Name returns the branch's name within its document.
func (b *Branch) Name() string { return b.name }

// Doc returns the owning document.
func (b *Branch) Doc() *Doc { return b.doc }

// Start returns the first item of the chain, or nil when empty.
func (b *Branch) Start() *Item { return b.start }

// Len returns the live content length: tombstoned blocks and zero-width
// markers contribute nothing, relocated blocks are counted exactly once.
func (b *Branch) Len() int { return b.length }

// Cursor returns a fresh cursor positioned at index 0. The cursor is valid
// for one transaction's lifetime and must not be shared across goroutines.
func (b *Branch) Cursor() *Cursor {
	return &Cursor{
		branch:     b,
		nextItem:   b.start,
		reachedEnd: b.start == nil,
	}
}
