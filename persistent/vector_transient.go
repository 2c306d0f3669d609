package persistent

// TransientVector is a mutable vector built from a persistent one. Nodes it
// allocates are stamped with its edit token and updated in place; nodes
// shared with persistent vectors are copied on first write.
//
// A TransientVector must not be used after Persistent is called on it, nor
// from more than one goroutine at a time.
type TransientVector struct {
	count int
	shift uint
	root  *vectorNode
	// tail always has room for a full leaf.
	tail []interface{}
}

func (v *Vector) AsTransient() *TransientVector {
	edit := newEditToken()
	root := &vectorNode{edit: edit, items: make([]interface{}, vectorNodeLen)}
	copy(root.items, v.root.items)
	tail := make([]interface{}, vectorNodeLen)
	copy(tail, v.tail)
	return &TransientVector{v.count, v.shift, root, tail}
}

func (t *TransientVector) edit() *editToken {
	return t.root.edit
}

func (t *TransientVector) ensureEditable() {
	t.root.edit.ensureEditable()
}

// editableNode returns node if t owns it, or an owned copy.
func (t *TransientVector) editableNode(node *vectorNode) *vectorNode {
	if t.edit().owns(node.edit) {
		return node
	}
	ret := &vectorNode{edit: t.edit(), items: make([]interface{}, len(node.items))}
	copy(ret.items, node.items)
	return ret
}

func (t *TransientVector) Count() int {
	t.ensureEditable()
	return t.count
}

func (t *TransientVector) tailoff() int {
	return tailoff(t.count)
}

func (t *TransientVector) arrayFor(i int) []interface{} {
	if i < 0 || i >= t.count {
		panic(outOfBounds(i, t.count))
	}
	if i >= t.tailoff() {
		return t.tail
	}
	n := t.root
	for level := t.shift; level > 0; level -= vectorNodeShift {
		n = n.items[(i>>level)&vectorNodeMask].(*vectorNode)
	}
	return n.items
}

// editableArrayFor is arrayFor with every node on the path owned by t.
func (t *TransientVector) editableArrayFor(i int) []interface{} {
	if i >= t.tailoff() {
		return t.tail
	}
	n := t.root
	for level := t.shift; level > 0; level -= vectorNodeShift {
		n = t.editableNode(n.items[(i>>level)&vectorNodeMask].(*vectorNode))
	}
	return n.items
}

func (t *TransientVector) Nth(i int) interface{} {
	t.ensureEditable()
	return t.arrayFor(i)[i&vectorNodeMask]
}

func (t *TransientVector) NthOr(i int, notFound interface{}) interface{} {
	t.ensureEditable()
	if i < 0 || i >= t.count {
		return notFound
	}
	return t.arrayFor(i)[i&vectorNodeMask]
}

func (t *TransientVector) Conj(x interface{}) *TransientVector {
	t.ensureEditable()
	i := t.count
	if i-t.tailoff() < vectorNodeLen {
		t.tail[i&vectorNodeMask] = x
		t.count++
		return t
	}
	tailNode := &vectorNode{edit: t.edit(), items: t.tail}
	t.tail = make([]interface{}, vectorNodeLen)
	t.tail[0] = x
	newShift := t.shift
	var newRoot *vectorNode
	if (t.count >> vectorNodeShift) > (1 << t.shift) {
		newRoot = &vectorNode{edit: t.edit(), items: make([]interface{}, vectorNodeLen)}
		newRoot.items[0] = t.root
		newRoot.items[1] = newPath(t.edit(), t.shift, tailNode)
		newShift += vectorNodeShift
	} else {
		newRoot = t.pushTail(t.shift, t.root, tailNode)
	}
	t.root = newRoot
	t.shift = newShift
	t.count++
	return t
}

func (t *TransientVector) pushTail(shift uint, parent *vectorNode, tailNode *vectorNode) *vectorNode {
	ret := t.editableNode(parent)
	subi := ((t.count - 1) >> shift) & vectorNodeMask
	var nodeToInsert *vectorNode
	if shift == vectorNodeShift {
		nodeToInsert = tailNode
	} else if child, ok := ret.items[subi].(*vectorNode); ok {
		nodeToInsert = t.pushTail(shift-vectorNodeShift, child, tailNode)
	} else {
		nodeToInsert = newPath(t.edit(), shift-vectorNodeShift, tailNode)
	}
	ret.items[subi] = nodeToInsert
	return ret
}

// AssocN sets the element at i to x. i may be Count, in which case x is
// appended.
func (t *TransientVector) AssocN(i int, x interface{}) *TransientVector {
	t.ensureEditable()
	if i == t.count {
		return t.Conj(x)
	}
	if i < 0 || i > t.count {
		panic(outOfBounds(i, t.count))
	}
	if i >= t.tailoff() {
		t.tail[i&vectorNodeMask] = x
		return t
	}
	t.root = t.doAssoc(t.shift, t.root, i, x)
	return t
}

func (t *TransientVector) doAssoc(shift uint, node *vectorNode, i int, x interface{}) *vectorNode {
	ret := t.editableNode(node)
	if shift == 0 {
		ret.items[i&vectorNodeMask] = x
		return ret
	}
	subi := (i >> shift) & vectorNodeMask
	ret.items[subi] = t.doAssoc(shift-vectorNodeShift, ret.items[subi].(*vectorNode), i, x)
	return ret
}

// Pop removes the last element. It panics with ErrPopEmpty if there is none.
func (t *TransientVector) Pop() *TransientVector {
	t.ensureEditable()
	if t.count == 0 {
		panic(ErrPopEmpty)
	}
	if t.count == 1 {
		t.count = 0
		t.tail[0] = nil
		return t
	}
	i := t.count - 1
	if i&vectorNodeMask > 0 {
		t.tail[i&vectorNodeMask] = nil
		t.count--
		return t
	}
	newTail := t.editableArrayFor(t.count - 2)
	newRoot := t.popTail(t.shift, t.root)
	newShift := t.shift
	if newRoot == nil {
		newRoot = &vectorNode{edit: t.edit(), items: make([]interface{}, vectorNodeLen)}
	}
	if t.shift > vectorNodeShift && newRoot.items[1] == nil {
		newRoot = t.editableNode(newRoot.items[0].(*vectorNode))
		newShift -= vectorNodeShift
	}
	t.root = newRoot
	t.shift = newShift
	t.count--
	t.tail = newTail
	return t
}

func (t *TransientVector) popTail(shift uint, node *vectorNode) *vectorNode {
	node = t.editableNode(node)
	subi := ((t.count - 2) >> shift) & vectorNodeMask
	if shift > vectorNodeShift {
		newChild := t.popTail(shift-vectorNodeShift, node.items[subi].(*vectorNode))
		if newChild == nil && subi == 0 {
			return nil
		}
		if newChild == nil {
			node.items[subi] = nil
		} else {
			node.items[subi] = newChild
		}
		return node
	}
	if subi == 0 {
		return nil
	}
	node.items[subi] = nil
	return node
}

// Persistent freezes t and returns a persistent vector with its contents.
// Further use of t panics with ErrTransientReused.
func (t *TransientVector) Persistent() *Vector {
	t.ensureEditable()
	t.root.edit.frozen = true
	if t.count == 0 {
		return emptyVector
	}
	trimmed := make([]interface{}, t.count-t.tailoff())
	copy(trimmed, t.tail)
	return &Vector{t.count, t.shift, t.root, trimmed}
}
