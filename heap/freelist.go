package heap

// Free-list primitive: a circular doubly linked list with a sentinel
// root. An empty list has root.next == root. All three operations are
// O(1); see spec.md §4.2.
//
// Every node — whether a sentinel root embedded in the control block,
// or a free block/item living in payload space — is a 16-byte pair of
// absolute offsets: next at the node's own offset, prev 8 bytes after
// it.

func (a *Allocator) isEmpty(root uint64) bool {
	return getU64(a.buf, root) == root
}

func (a *Allocator) listHead(root uint64) uint64 {
	return getU64(a.buf, root)
}

// linkHead inserts node at the head of the list rooted at root.
func (a *Allocator) linkHead(root, node uint64) {
	next := getU64(a.buf, root)
	setU64(a.buf, node, next)
	setU64(a.buf, node+8, root)
	setU64(a.buf, next+8, node)
	setU64(a.buf, root, node)
}

// unlink removes node from whatever list it currently sits on.
func (a *Allocator) unlink(node uint64) {
	next := getU64(a.buf, node)
	prev := getU64(a.buf, node+8)
	setU64(a.buf, prev, next)
	setU64(a.buf, next+8, prev)
}

// resetRoot makes root an empty, self-referential sentinel.
func resetRoot(buf []byte, root uint64) {
	setU64(buf, root, root)
	setU64(buf, root+8, root)
}
