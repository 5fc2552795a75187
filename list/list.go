// Package list implements intrusive singly- and doubly-linked list
// primitives, generalising the original library's SL_LINK/DL_ENTRY macro
// family (fast/list.h) into Go generics. Nodes embed a Link (or DLink) and
// participate in a list without the list itself allocating anything; a
// single node may embed more than one link field to belong to several
// independent lists at once.
//
// All operations are O(1) (Foreach/DForeach/DForeachReverse are O(n) traversals, not
// mutations) and none allocate. Lists are not safe for concurrent use.
package list

// Link is an embeddable singly-linked list link. T is the node type itself
// (the usual embed-the-field-then-reference-the-struct intrusive pattern).
type Link[T any] struct {
	next *T
}

// Head is a singly-linked list head.
type Head[T any] struct {
	first *T
}

// linker is implemented by node types that embed a Link[T] and expose it,
// so Head[T] can walk/mutate the chain without knowing the node's other
// fields.
type linker[T any] interface {
	ListLink() *Link[T]
}

// Init resets h to the empty list.
func (h *Head[T]) Init() { h.first = nil }

// Empty reports whether the list has no nodes.
func (h *Head[T]) Empty() bool { return h.first == nil }

// First returns the head node, or nil if the list is empty.
func (h *Head[T]) First() *T { return h.first }

// Next returns the node following n, or nil at the end of the chain.
func Next[T linker[T]](n *T) *T {
	return (*n).ListLink().next
}

// InsertHead inserts n at the front of the list in O(1).
func InsertHead[T linker[T]](h *Head[T], n *T) {
	(*n).ListLink().next = h.first
	h.first = n
}

// InsertAfter inserts n immediately after prev in O(1).
func InsertAfter[T linker[T]](prev, n *T) {
	l := (*n).ListLink()
	pl := (*prev).ListLink()
	l.next = pl.next
	pl.next = n
}

// RemoveHead removes and returns the first node, or nil if the list is
// empty.
func RemoveHead[T linker[T]](h *Head[T]) *T {
	n := h.first
	if n == nil {
		return nil
	}
	h.first = (*n).ListLink().next
	(*n).ListLink().next = nil
	return n
}

// Foreach calls fn once per node from head to tail. fn may not mutate the
// list it is iterating.
func Foreach[T linker[T]](h *Head[T], fn func(*T)) {
	for n := h.first; n != nil; n = (*n).ListLink().next {
		fn(n)
	}
}

// DLink is an embeddable doubly-linked list link.
type DLink[T any] struct {
	next, prev *T
}

// DHead is a doubly-linked list head.
type DHead[T any] struct {
	first, last *T
}

type dlinker[T any] interface {
	ListDLink() *DLink[T]
}

// DInit resets h to the empty list.
func (h *DHead[T]) DInit() { h.first, h.last = nil, nil }

// DEmpty reports whether the list has no nodes.
func (h *DHead[T]) DEmpty() bool { return h.first == nil }

// DFirst returns the head node, or nil if empty.
func (h *DHead[T]) DFirst() *T { return h.first }

// DLast returns the tail node, or nil if empty.
func (h *DHead[T]) DLast() *T { return h.last }

// DNext returns the node following n.
func DNext[T dlinker[T]](n *T) *T { return (*n).ListDLink().next }

// DPrev returns the node preceding n.
func DPrev[T dlinker[T]](n *T) *T { return (*n).ListDLink().prev }

// InsertTail appends n to the end of the list in O(1).
func InsertTail[T dlinker[T]](h *DHead[T], n *T) {
	l := (*n).ListDLink()
	l.next = nil
	l.prev = h.last
	if h.last != nil {
		(*h.last).ListDLink().next = n
	} else {
		h.first = n
	}
	h.last = n
}

// DInsertHead prepends n to the front of the list in O(1).
func DInsertHead[T dlinker[T]](h *DHead[T], n *T) {
	l := (*n).ListDLink()
	l.prev = nil
	l.next = h.first
	if h.first != nil {
		(*h.first).ListDLink().prev = n
	} else {
		h.last = n
	}
	h.first = n
}

// InsertBefore inserts n immediately before at, in O(1).
func InsertBefore[T dlinker[T]](h *DHead[T], at, n *T) {
	al := (*at).ListDLink()
	nl := (*n).ListDLink()
	nl.next = at
	nl.prev = al.prev
	if al.prev != nil {
		(*al.prev).ListDLink().next = n
	} else {
		h.first = n
	}
	al.prev = n
}

// Remove unlinks n from the list in O(1). n must currently be a member of
// h; removing a node that isn't is undefined (matching the intrusive
// contract — there is no containment check).
func Remove[T dlinker[T]](h *DHead[T], n *T) {
	l := (*n).ListDLink()
	if l.prev != nil {
		(*l.prev).ListDLink().next = l.next
	} else {
		h.first = l.next
	}
	if l.next != nil {
		(*l.next).ListDLink().prev = l.prev
	} else {
		h.last = l.prev
	}
	l.next, l.prev = nil, nil
}

// DRemoveHead removes and returns the first node, or nil if empty.
func DRemoveHead[T dlinker[T]](h *DHead[T]) *T {
	n := h.first
	if n == nil {
		return nil
	}
	Remove(h, n)
	return n
}

// DRemoveTail removes and returns the last node, or nil if empty.
func DRemoveTail[T dlinker[T]](h *DHead[T]) *T {
	n := h.last
	if n == nil {
		return nil
	}
	Remove(h, n)
	return n
}

// DForeach calls fn once per node from head to tail.
func DForeach[T dlinker[T]](h *DHead[T], fn func(*T)) {
	for n := h.first; n != nil; n = (*n).ListDLink().next {
		fn(n)
	}
}

// DForeachReverse calls fn once per node from tail to head.
func DForeachReverse[T dlinker[T]](h *DHead[T], fn func(*T)) {
	for n := h.last; n != nil; n = (*n).ListDLink().prev {
		fn(n)
	}
}

// AppendList moves every node of other onto the tail of h, leaving other
// empty. O(1).
func AppendList[T dlinker[T]](h, other *DHead[T]) {
	if other.first == nil {
		return
	}
	if h.last == nil {
		h.first = other.first
		h.last = other.last
	} else {
		(*h.last).ListDLink().next = other.first
		(*other.first).ListDLink().prev = h.last
		h.last = other.last
	}
	other.first, other.last = nil, nil
}

// PrependList moves every node of other onto the head of h, leaving other
// empty. O(1).
func PrependList[T dlinker[T]](h, other *DHead[T]) {
	if other.first == nil {
		return
	}
	if h.first == nil {
		h.first = other.first
		h.last = other.last
	} else {
		(*h.first).ListDLink().prev = other.last
		(*other.last).ListDLink().next = h.first
		h.first = other.first
	}
	other.first, other.last = nil, nil
}

// Link and DLink expose themselves so embedding node types can trivially
// satisfy linker/dlinker via a one-line method. The accessor method must be
// exported (ListLink/ListDLink) even though the interface itself is
// unexported: an unexported interface method can only be satisfied by types
// declared in this same package, which would defeat the point of an
// embeddable link meant for caller-defined node types.
//
//	func (n *Node) ListLink() *list.Link[Node] { return &n.Link }
