package strand

import "fmt"

// ClientID identifies the replica that created a block.
type ClientID uint64

// ID is the stable address of a block: the creating replica plus that
// replica's logical clock at creation time. Clock values are monotonically
// increasing per replica and advance by one per content unit, so a block of
// length n covers clocks [Clock, Clock+n).
type ID struct {
	Client ClientID
	Clock  int
}

// Compare orders IDs by client, then clock. The order is total but only
// meaningful within a single client's blocks.
func (id ID) Compare(other ID) int {
	switch {
	case id.Client < other.Client:
		return -1
	case id.Client > other.Client:
		return 1
	case id.Clock < other.Clock:
		return -1
	case id.Clock > other.Clock:
		return 1
	default:
		return 0
	}
}

func (id ID) String() string {
	return fmt.Sprintf("(%d,%d)", id.Client, id.Clock)
}
