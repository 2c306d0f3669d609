package persistent

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/tcard/gojure/lang"
	"github.com/tcard/gojure/seq"
)

// Every level of the hash trie consumes hashBits bits of a key's 32 bit hash.
const (
	hashBits  = 5
	branching = 1 << hashBits
	fragMask  = branching - 1
)

// Representation thresholds. They are tuning knobs, not part of the map's
// semantics, and must not be changed while any map is reachable.
var (
	// ArrayMapThreshold is the number of entries a map holds as a flat
	// key/value array before it is turned into a hash trie.
	ArrayMapThreshold = 8

	// ArrayNodePromoteThreshold is the number of entries at which a bitmap
	// node is rebuilt as a 32 slot array node on the next insertion.
	ArrayNodePromoteThreshold = 16

	// ArrayNodeDemoteThreshold is the occupancy below which an array node is
	// packed back into a bitmap node.
	ArrayNodeDemoteThreshold = 8
)

type nodeKind uint8

const (
	// bitmapKind nodes keep one slot pair per set bit of bitmap, densely, in
	// array. A pair is either (key, value) or (nil, child *node).
	bitmapKind nodeKind = iota
	// arrayKind nodes keep one child per fragment value in nodes; count is
	// the number of non-nil children.
	arrayKind
	// collisionKind nodes keep count (key, value) pairs whose keys all have
	// the same full hash.
	collisionKind
)

// node is a node of the hash trie. Only the fields of its kind are used.
type node struct {
	kind   nodeKind
	edit   *editToken
	bitmap uint32
	hash   uint32
	count  int
	array  []interface{}
	nodes  []*node
}

// emptyNode is the canonical empty root. It is never mutated: its edit token
// is nil, which no transient owns.
var emptyNode = &node{kind: bitmapKind}

func mask(hash uint32, shift uint) uint32 {
	return (hash >> shift) & fragMask
}

func bitpos(hash uint32, shift uint) uint32 {
	return 1 << mask(hash, shift)
}

// index is the slot position of bit in a bitmap node.
func (n *node) index(bit uint32) int {
	return bits.OnesCount32(n.bitmap & (bit - 1))
}

// capFor leaves room for a few more pairs in arrays owned by a transient, so
// that consecutive insertions into the same node don't reallocate.
func capFor(l int, edit *editToken) int {
	if edit == nil {
		return l
	}
	return l + 8
}

// editable returns n itself if the transient owning edit may mutate it, or a
// copy stamped with edit otherwise.
func (n *node) editable(edit *editToken) *node {
	if edit.owns(n.edit) {
		return n
	}
	c := *n
	c.edit = edit
	if n.array != nil {
		c.array = make([]interface{}, len(n.array), capFor(len(n.array), edit))
		copy(c.array, n.array)
	}
	if n.nodes != nil {
		c.nodes = make([]*node, len(n.nodes))
		copy(c.nodes, n.nodes)
	}
	return &c
}

func (n *node) editAndSet(edit *editToken, i int, x interface{}) *node {
	e := n.editable(edit)
	e.array[i] = x
	return e
}

func (n *node) editAndSetPair(edit *editToken, i int, k, v interface{}) *node {
	e := n.editable(edit)
	e.array[i] = k
	e.array[i+1] = v
	return e
}

func (n *node) editAndSetChild(edit *editToken, i int, child *node, delta int) *node {
	e := n.editable(edit)
	e.nodes[i] = child
	e.count += delta
	return e
}

// single returns the only entry of n if n holds exactly one key/value pair
// and no children.
func (n *node) single() (interface{}, interface{}, bool) {
	switch n.kind {
	case bitmapKind:
		if len(n.array) == 2 && n.array[0] != nil {
			return n.array[0], n.array[1], true
		}
	case collisionKind:
		if n.count == 1 {
			return n.array[0], n.array[1], true
		}
	}
	return nil, nil, false
}

// find looks key up without allocating. It returns the stored key, which may
// differ in representation from key.
func (n *node) find(shift uint, hash uint32, key interface{}) (interface{}, interface{}, bool) {
	for {
		switch n.kind {
		case bitmapKind:
			bit := bitpos(hash, shift)
			if n.bitmap&bit == 0 {
				return nil, nil, false
			}
			i := 2 * n.index(bit)
			k, v := n.array[i], n.array[i+1]
			if k == nil {
				n = v.(*node)
				shift += hashBits
				continue
			}
			if lang.Equiv(key, k) {
				return k, v, true
			}
			return nil, nil, false
		case arrayKind:
			child := n.nodes[mask(hash, shift)]
			if child == nil {
				return nil, nil, false
			}
			n = child
			shift += hashBits
		case collisionKind:
			if hash != n.hash {
				return nil, nil, false
			}
			if i := n.findIndex(key); i >= 0 {
				return n.array[i], n.array[i+1], true
			}
			return nil, nil, false
		default:
			panic(fmt.Sprintf("unknown node kind %d", n.kind))
		}
	}
}

// assoc returns the node resulting from associating key with val below n,
// and whether a new entry was added (as opposed to an existing one updated).
// With a nil edit the result shares every untouched node with n; with a
// transient's edit, nodes it owns are updated in place.
func (n *node) assoc(edit *editToken, shift uint, hash uint32, key, val interface{}) (*node, bool) {
	switch n.kind {
	case bitmapKind:
		return n.assocBitmap(edit, shift, hash, key, val)
	case arrayKind:
		idx := mask(hash, shift)
		child := n.nodes[idx]
		if child == nil {
			nc, _ := emptyNode.assoc(edit, shift+hashBits, hash, key, val)
			return n.editAndSetChild(edit, int(idx), nc, 1), true
		}
		nc, added := child.assoc(edit, shift+hashBits, hash, key, val)
		if nc == child {
			return n, added
		}
		return n.editAndSetChild(edit, int(idx), nc, 0), added
	case collisionKind:
		return n.assocCollision(edit, shift, hash, key, val)
	}
	panic(fmt.Sprintf("unknown node kind %d", n.kind))
}

func (n *node) assocBitmap(edit *editToken, shift uint, hash uint32, key, val interface{}) (*node, bool) {
	bit := bitpos(hash, shift)
	idx := n.index(bit)

	if n.bitmap&bit != 0 {
		k, v := n.array[2*idx], n.array[2*idx+1]
		if k == nil {
			child := v.(*node)
			nc, added := child.assoc(edit, shift+hashBits, hash, key, val)
			if nc == child {
				return n, added
			}
			return n.editAndSet(edit, 2*idx+1, nc), added
		}
		if lang.Equiv(key, k) {
			if lang.Identical(val, v) {
				return n, false
			}
			return n.editAndSet(edit, 2*idx+1, val), false
		}
		sub := createNode(edit, shift+hashBits, k, v, hash, key, val)
		return n.editAndSetPair(edit, 2*idx, nil, sub), true
	}

	cnt := bits.OnesCount32(n.bitmap)
	if cnt >= ArrayNodePromoteThreshold {
		nodes := make([]*node, branching)
		nodes[mask(hash, shift)], _ = emptyNode.assoc(edit, shift+hashBits, hash, key, val)
		j := 0
		for i := 0; i < branching; i++ {
			if (n.bitmap>>uint(i))&1 == 0 {
				continue
			}
			if n.array[j] == nil {
				nodes[i] = n.array[j+1].(*node)
			} else {
				nodes[i], _ = emptyNode.assoc(edit, shift+hashBits, lang.Hash(n.array[j]), n.array[j], n.array[j+1])
			}
			j += 2
		}
		return &node{kind: arrayKind, edit: edit, count: cnt + 1, nodes: nodes}, true
	}

	l := len(n.array)
	if edit.owns(n.edit) && cap(n.array) >= l+2 {
		n.array = n.array[:l+2]
		copy(n.array[2*idx+2:], n.array[2*idx:l])
		n.array[2*idx], n.array[2*idx+1] = key, val
		n.bitmap |= bit
		return n, true
	}
	a := make([]interface{}, l+2, capFor(l+2, edit))
	copy(a, n.array[:2*idx])
	a[2*idx], a[2*idx+1] = key, val
	copy(a[2*idx+2:], n.array[2*idx:])
	return &node{kind: bitmapKind, edit: edit, bitmap: n.bitmap | bit, array: a}, true
}

func (n *node) assocCollision(edit *editToken, shift uint, hash uint32, key, val interface{}) (*node, bool) {
	if hash != n.hash {
		// The new key diverges somewhere below this level; push the collision
		// node down into a bitmap node and let that one place the key.
		bm := &node{kind: bitmapKind, edit: edit, bitmap: bitpos(n.hash, shift), array: []interface{}{nil, n}}
		return bm.assoc(edit, shift, hash, key, val)
	}
	if i := n.findIndex(key); i >= 0 {
		if lang.Identical(val, n.array[i+1]) {
			return n, false
		}
		return n.editAndSet(edit, i+1, val), false
	}
	l := len(n.array)
	if edit.owns(n.edit) && cap(n.array) >= l+2 {
		n.array = append(n.array, key, val)
		n.count++
		return n, true
	}
	a := make([]interface{}, l+2, capFor(l+2, edit))
	copy(a, n.array)
	a[l], a[l+1] = key, val
	return &node{kind: collisionKind, edit: edit, hash: n.hash, count: n.count + 1, array: a}, true
}

func (n *node) findIndex(key interface{}) int {
	for i := 0; i < len(n.array); i += 2 {
		if lang.Equiv(key, n.array[i]) {
			return i
		}
	}
	return -1
}

// createNode builds the subtree holding two distinct keys that share a slot
// at shift-hashBits.
func createNode(edit *editToken, shift uint, k1, v1 interface{}, h2 uint32, k2, v2 interface{}) *node {
	h1 := lang.Hash(k1)
	if h1 == h2 {
		// Every remaining fragment is equal too: the keys can only be told
		// apart by equality.
		return &node{kind: collisionKind, edit: edit, hash: h1, count: 2, array: []interface{}{k1, v1, k2, v2}}
	}
	n, _ := emptyNode.assoc(edit, shift, h1, k1, v1)
	n, _ = n.assoc(edit, shift, h2, k2, v2)
	return n
}

// without returns the node resulting from removing key below n, nil if that
// leaves it empty, and whether key was found.
func (n *node) without(edit *editToken, shift uint, hash uint32, key interface{}) (*node, bool) {
	switch n.kind {
	case bitmapKind:
		return n.withoutBitmap(edit, shift, hash, key)
	case arrayKind:
		idx := int(mask(hash, shift))
		child := n.nodes[idx]
		if child == nil {
			return n, false
		}
		nc, removed := child.without(edit, shift+hashBits, hash, key)
		if !removed {
			return n, false
		}
		if nc == nil {
			if n.count-1 < ArrayNodeDemoteThreshold {
				return n.pack(edit, idx), true
			}
			return n.editAndSetChild(edit, idx, nil, -1), true
		}
		if nc == child {
			return n, true
		}
		return n.editAndSetChild(edit, idx, nc, 0), true
	case collisionKind:
		if hash != n.hash {
			return n, false
		}
		i := n.findIndex(key)
		if i < 0 {
			return n, false
		}
		if n.count == 1 {
			return nil, true
		}
		l := len(n.array)
		if edit.owns(n.edit) {
			n.array[i], n.array[i+1] = n.array[l-2], n.array[l-1]
			n.array[l-2], n.array[l-1] = nil, nil
			n.array = n.array[:l-2]
			n.count--
			return n, true
		}
		a := make([]interface{}, l-2, capFor(l-2, edit))
		copy(a, n.array[:i])
		copy(a[i:], n.array[i+2:])
		return &node{kind: collisionKind, edit: edit, hash: n.hash, count: n.count - 1, array: a}, true
	}
	panic(fmt.Sprintf("unknown node kind %d", n.kind))
}

func (n *node) withoutBitmap(edit *editToken, shift uint, hash uint32, key interface{}) (*node, bool) {
	bit := bitpos(hash, shift)
	if n.bitmap&bit == 0 {
		return n, false
	}
	idx := n.index(bit)
	k, v := n.array[2*idx], n.array[2*idx+1]

	if k == nil {
		child := v.(*node)
		nc, removed := child.without(edit, shift+hashBits, hash, key)
		if !removed {
			return n, false
		}
		if nc == nil {
			return n.removePair(edit, bit, idx), true
		}
		if k1, v1, ok := nc.single(); ok {
			// The subtree shrank to one entry: pull it up into this slot.
			return n.editAndSetPair(edit, 2*idx, k1, v1), true
		}
		// Only a collision node can replace this one: a bitmap or array
		// child indexes the next hash fragment and would be read at the
		// wrong shift here.
		if n.bitmap == bit && nc.kind == collisionKind {
			return nc, true
		}
		if nc == child {
			return n, true
		}
		return n.editAndSet(edit, 2*idx+1, nc), true
	}

	if !lang.Equiv(key, k) {
		return n, false
	}
	return n.removePair(edit, bit, idx), true
}

// removePair drops slot idx. The result is nil if nothing is left, or the lone
// remaining collision node, which doesn't depend on its depth.
func (n *node) removePair(edit *editToken, bit uint32, idx int) *node {
	if n.bitmap == bit {
		return nil
	}
	l := len(n.array)
	var ret *node
	if edit.owns(n.edit) {
		copy(n.array[2*idx:], n.array[2*idx+2:])
		n.array[l-2], n.array[l-1] = nil, nil
		n.array = n.array[:l-2]
		n.bitmap ^= bit
		ret = n
	} else {
		a := make([]interface{}, l-2, capFor(l-2, edit))
		copy(a, n.array[:2*idx])
		copy(a[2*idx:], n.array[2*idx+2:])
		ret = &node{kind: bitmapKind, edit: edit, bitmap: n.bitmap ^ bit, array: a}
	}
	if len(ret.array) == 2 && ret.array[0] == nil {
		if c := ret.array[1].(*node); c.kind == collisionKind {
			return c
		}
	}
	return ret
}

// pack turns an array node back into a bitmap node, leaving out slot idx.
func (n *node) pack(edit *editToken, idx int) *node {
	a := make([]interface{}, 0, capFor(2*(n.count-1), edit))
	var bitmap uint32
	for i, child := range n.nodes {
		if i == idx || child == nil {
			continue
		}
		if k, v, ok := child.single(); ok {
			a = append(a, k, v)
		} else {
			a = append(a, nil, child)
		}
		bitmap |= 1 << uint(i)
	}
	return &node{kind: bitmapKind, edit: edit, bitmap: bitmap, array: a}
}

// kvrange calls f for every entry below n until f returns false.
func (n *node) kvrange(f func(k, v interface{}) bool) bool {
	switch n.kind {
	case bitmapKind, collisionKind:
		for i := 0; i < len(n.array); i += 2 {
			if k := n.array[i]; k != nil {
				if !f(k, n.array[i+1]) {
					return false
				}
			} else if !n.array[i+1].(*node).kvrange(f) {
				return false
			}
		}
	case arrayKind:
		for _, child := range n.nodes {
			if child != nil && !child.kvrange(f) {
				return false
			}
		}
	}
	return true
}

func (n *node) seq() seq.Seq {
	if n.kind == arrayKind {
		return newArrayNodeSeq(n.nodes, 0, nil)
	}
	return newNodeSeq(n.array, 0, nil)
}

// nodeSeq walks the slots of a bitmap or collision node. While s is non-nil
// it is walking the child at slot i-2.
type nodeSeq struct {
	array []interface{}
	i     int
	s     seq.Seq
}

func newNodeSeq(array []interface{}, i int, s seq.Seq) seq.Seq {
	if s != nil {
		return &nodeSeq{array, i, s}
	}
	for j := i; j < len(array); j += 2 {
		if array[j] != nil {
			return &nodeSeq{array, j, nil}
		}
		if cs := array[j+1].(*node).seq(); cs != nil {
			return &nodeSeq{array, j + 2, cs}
		}
	}
	return nil
}

func (s *nodeSeq) First() interface{} {
	if s.s != nil {
		return s.s.First()
	}
	return MapEntry{s.array[s.i], s.array[s.i+1]}
}

func (s *nodeSeq) Next() seq.Seq {
	if s.s != nil {
		return newNodeSeq(s.array, s.i, s.s.Next())
	}
	return newNodeSeq(s.array, s.i+2, nil)
}

func (s *nodeSeq) Cons(x interface{}) seq.Seq {
	return seq.NewCons(x, s)
}

func (s *nodeSeq) String() string {
	return seq.Format(s, "(", ")")
}

type arrayNodeSeq struct {
	nodes []*node
	i     int
	s     seq.Seq
}

func newArrayNodeSeq(nodes []*node, i int, s seq.Seq) seq.Seq {
	if s != nil {
		return &arrayNodeSeq{nodes, i, s}
	}
	for j := i; j < len(nodes); j++ {
		if nodes[j] == nil {
			continue
		}
		if cs := nodes[j].seq(); cs != nil {
			return &arrayNodeSeq{nodes, j + 1, cs}
		}
	}
	return nil
}

func (s *arrayNodeSeq) First() interface{} {
	return s.s.First()
}

func (s *arrayNodeSeq) Next() seq.Seq {
	return newArrayNodeSeq(s.nodes, s.i, s.s.Next())
}

func (s *arrayNodeSeq) Cons(x interface{}) seq.Seq {
	return seq.NewCons(x, s)
}

func (s *arrayNodeSeq) String() string {
	return seq.Format(s, "(", ")")
}

// stringRaw dumps the trie below n, for debugging.
func (n *node) stringRaw(indent string) string {
	var sb strings.Builder
	switch n.kind {
	case bitmapKind:
		fmt.Fprintf(&sb, "%sbitmap %032b\n", indent, n.bitmap)
	case arrayKind:
		fmt.Fprintf(&sb, "%sarray count=%d\n", indent, n.count)
		for i, child := range n.nodes {
			if child != nil {
				fmt.Fprintf(&sb, "%s  [%d]\n", indent, i)
				sb.WriteString(child.stringRaw(indent + "    "))
			}
		}
		return sb.String()
	case collisionKind:
		fmt.Fprintf(&sb, "%scollision hash=%08x\n", indent, n.hash)
	}
	for i := 0; i < len(n.array); i += 2 {
		if n.array[i] == nil {
			sb.WriteString(n.array[i+1].(*node).stringRaw(indent + "  "))
		} else {
			fmt.Fprintf(&sb, "%s  %v => %v\n", indent, n.array[i], n.array[i+1])
		}
	}
	return sb.String()
}
