package strand

import (
	"unicode/utf16"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Value is a single extracted content unit: a string for text runs, an
// arbitrary element for list slices, a []byte for binary payloads.
type Value = any

// OffsetKind selects the convention used to count content units. Logical
// indexes, intra-block offsets and clock lengths are all measured in the
// same convention, fixed per document.
type OffsetKind int

const (
	// OffsetRune counts Unicode code points.
	OffsetRune OffsetKind = iota

	// OffsetBytes counts UTF-8 bytes.
	OffsetBytes

	// OffsetUTF16 counts UTF-16 code units.
	OffsetUTF16

	// OffsetGrapheme counts user-perceived characters (grapheme clusters).
	OffsetGrapheme
)

// Content is the payload variant carried by a block. Implementations provide
// the slice/split capability the cursor needs; everything else about a
// content kind is opaque to the chain.
type Content interface {
	// Countable reports whether the content contributes to logical length.
	// Move markers and other zero-width content return false.
	Countable() bool

	// Len returns the content length in units of the given kind.
	Len(kind OffsetKind) int

	// Slice extracts up to n single-unit values starting at unit offset
	// off. Out-of-range offsets yield an empty result.
	Slice(off, n int, kind OffsetKind) []Value

	// Split divides the content at unit offset off, returning the two
	// halves. off must lie strictly inside the content.
	Split(off int, kind OffsetKind) (Content, Content, error)
}

// concatValues joins two extracted runs. Kept as the single concatenation
// point so a future content kind can interpose its own merging.
func concatValues(a, b []Value) []Value {
	return append(a, b...)
}

// StringContent is a run of text.
type StringContent struct {
	str string
}

// NewString returns text content holding s.
func NewString(s string) *StringContent {
	return &StringContent{str: s}
}

// String returns the underlying text.
func (c *StringContent) String() string { return c.str }

func (c *StringContent) Countable() bool { return true }

func (c *StringContent) Len(kind OffsetKind) int {
	switch kind {
	case OffsetBytes:
		return len(c.str)
	case OffsetUTF16:
		n := 0
		for _, r := range c.str {
			n += len(utf16.Encode([]rune{r}))
		}
		return n
	case OffsetGrapheme:
		return uniseg.GraphemeClusterCount(c.str)
	default:
		return utf8.RuneCountInString(c.str)
	}
}

func (c *StringContent) Slice(off, n int, kind OffsetKind) []Value {
	units := c.units(kind)
	if off >= len(units) || n <= 0 {
		return nil
	}
	if off+n > len(units) {
		n = len(units) - off
	}
	out := make([]Value, n)
	for i, u := range units[off : off+n] {
		out[i] = u
	}
	return out
}

func (c *StringContent) Split(off int, kind OffsetKind) (Content, Content, error) {
	if off <= 0 || off >= c.Len(kind) {
		return nil, nil, ErrUnsplittable
	}
	at, ok := c.byteOffset(off, kind)
	if !ok {
		// off lands inside a surrogate pair or grapheme cluster
		return nil, nil, ErrUnsplittable
	}
	return NewString(c.str[:at]), NewString(c.str[at:]), nil
}

// units segments the text into one string per unit of the given kind.
func (c *StringContent) units(kind OffsetKind) []string {
	var out []string
	switch kind {
	case OffsetBytes:
		out = make([]string, 0, len(c.str))
		for i := 0; i < len(c.str); i++ {
			out = append(out, c.str[i:i+1])
		}
	case OffsetUTF16:
		for _, r := range c.str {
			if len(utf16.Encode([]rune{r})) == 2 {
				hi, lo := utf16.EncodeRune(r)
				out = append(out, string(utf16.Decode([]uint16{uint16(hi)})))
				out = append(out, string(utf16.Decode([]uint16{uint16(lo)})))
			} else {
				out = append(out, string(r))
			}
		}
	case OffsetGrapheme:
		g := uniseg.NewGraphemes(c.str)
		for g.Next() {
			out = append(out, g.Str())
		}
	default:
		for _, r := range c.str {
			out = append(out, string(r))
		}
	}
	return out
}

// byteOffset maps a unit offset to a byte index in the underlying string.
// The second result is false when the offset does not fall on a valid
// boundary for the kind.
func (c *StringContent) byteOffset(off int, kind OffsetKind) (int, bool) {
	switch kind {
	case OffsetBytes:
		return off, true
	case OffsetUTF16:
		n := 0
		for i, r := range c.str {
			if n == off {
				return i, true
			}
			n += len(utf16.Encode([]rune{r}))
		}
		if n == off {
			return len(c.str), true
		}
		return 0, false
	case OffsetGrapheme:
		n := 0
		g := uniseg.NewGraphemes(c.str)
		for g.Next() {
			if n == off {
				start, _ := g.Positions()
				return start, true
			}
			n++
		}
		if n == off {
			return len(c.str), true
		}
		return 0, false
	default:
		n := 0
		for i := range c.str {
			if n == off {
				return i, true
			}
			n++
		}
		if n == off {
			return len(c.str), true
		}
		return 0, false
	}
}

// ValueListContent is a slice of arbitrary sequence elements, one unit each.
type ValueListContent struct {
	values []Value
}

// NewValueList returns list content holding the given elements.
func NewValueList(values ...Value) *ValueListContent {
	return &ValueListContent{values: values}
}

// Values returns the underlying elements.
func (c *ValueListContent) Values() []Value { return c.values }

func (c *ValueListContent) Countable() bool { return true }

func (c *ValueListContent) Len(OffsetKind) int { return len(c.values) }

func (c *ValueListContent) Slice(off, n int, _ OffsetKind) []Value {
	if off >= len(c.values) || n <= 0 {
		return nil
	}
	if off+n > len(c.values) {
		n = len(c.values) - off
	}
	out := make([]Value, n)
	copy(out, c.values[off:off+n])
	return out
}

func (c *ValueListContent) Split(off int, _ OffsetKind) (Content, Content, error) {
	if off <= 0 || off >= len(c.values) {
		return nil, nil, ErrUnsplittable
	}
	return &ValueListContent{values: c.values[:off:off]},
		&ValueListContent{values: c.values[off:]}, nil
}

// BinaryContent is an embedded binary payload. It occupies a single unit
// regardless of size and has no interior offsets.
type BinaryContent struct {
	data []byte
}

// NewBinary returns binary content holding data.
func NewBinary(data []byte) *BinaryContent {
	return &BinaryContent{data: data}
}

// Data returns the underlying payload.
func (c *BinaryContent) Data() []byte { return c.data }

func (c *BinaryContent) Countable() bool { return true }

func (c *BinaryContent) Len(OffsetKind) int { return 1 }

func (c *BinaryContent) Slice(off, n int, _ OffsetKind) []Value {
	if off > 0 || n <= 0 {
		return nil
	}
	return []Value{c.data}
}

func (c *BinaryContent) Split(int, OffsetKind) (Content, Content, error) {
	return nil, nil, ErrUnsplittable
}

// MoveContent carries a move descriptor. The block itself is zero-width; the
// range it names is counted at the block's position instead of at home.
type MoveContent struct {
	Move *Move
}

func (c *MoveContent) Countable() bool { return false }

func (c *MoveContent) Len(OffsetKind) int { return 0 }

func (c *MoveContent) Slice(int, int, OffsetKind) []Value { return nil }

func (c *MoveContent) Split(int, OffsetKind) (Content, Content, error) {
	return nil, nil, ErrUnsplittable
}
