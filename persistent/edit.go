package persistent

// editToken identifies a transient. Nodes stamped with a transient's token
// were allocated by it and may be mutated in place by it; every other node is
// copied first. The struct must not be zero-sized: distinct zero-sized
// allocations may share an address, and tokens are compared by pointer.
type editToken struct {
	frozen bool
}

func newEditToken() *editToken {
	return &editToken{}
}

// ensureEditable panics if the transient owning edit has been made persistent.
func (e *editToken) ensureEditable() {
	if e.frozen {
		panic(ErrTransientReused)
	}
}

// owns reports whether a node stamped with nodeEdit may be mutated in place
// by the transient owning e. Persistent operations pass a nil e and never own
// anything.
func (e *editToken) owns(nodeEdit *editToken) bool {
	return e != nil && nodeEdit == e
}
