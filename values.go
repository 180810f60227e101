package strand

// Values produces the content under a cursor one logical unit at a time.
// Each pull performs a one-unit slice, so the sequence is lazy, finite and
// tied to the cursor and transaction it was created with; it cannot be
// restarted or rewound.
type Values struct {
	cursor *Cursor
	txn    *Txn
	err    error
	done   bool
}

// Next returns the next logical unit. It reports false when the sequence is
// exhausted or a fatal defect occurred; distinguish the two with Err.
func (v *Values) Next() (Value, bool) {
	if v.done || v.err != nil {
		return nil, false
	}
	if (v.cursor.reachedEnd && v.cursor.currMove == nil) ||
		v.cursor.index == v.cursor.branch.Len() {
		v.done = true
		return nil, false
	}
	out, err := v.cursor.slice(v.txn, 1)
	if err != nil {
		v.err = err
		return nil, false
	}
	if len(out) == 0 {
		v.done = true
		return nil, false
	}
	return out[len(out)-1], true
}

// Err returns the fatal defect that terminated the sequence, if any.
// Running off the end of content is not an error.
func (v *Values) Err() error {
	return v.err
}

// Collect drains the rest of the sequence into a slice.
func (v *Values) Collect() ([]Value, error) {
	var out []Value
	for {
		val, ok := v.Next()
		if !ok {
			return out, v.err
		}
		out = append(out, val)
	}
}
