// Package index holds the in-memory interval index used to answer
// "which reservations of a resource overlap this interval" in sublinear time.
package index

import (
	"staybook/pkg/model"
)

// Tree is an AVL tree keyed by (start date, id). Every node carries the
// greatest end date of its subtree, which lets queries skip whole branches
// that end before the probed interval begins. Tree is not safe for
// concurrent use.
type Tree struct {
	root   *node
	byID   map[string]model.Interval
	policy model.OverlapPolicy
}

type node struct {
	id       string
	interval model.Interval
	maxEnd   model.Date
	height   int
	left     *node
	right    *node
}

func NewTree(policy model.OverlapPolicy) *Tree {
	return &Tree{byID: make(map[string]model.Interval), policy: policy}
}

func (t *Tree) Len() int {
	return len(t.byID)
}

func (t *Tree) Contains(id string) bool {
	_, ok := t.byID[id]
	return ok
}

// Put inserts id with the given interval, replacing any interval previously stored for id.
func (t *Tree) Put(id string, interval model.Interval) {
	if old, ok := t.byID[id]; ok {
		t.root = remove(t.root, old.Start, id)
	}
	t.byID[id] = interval
	t.root = insert(t.root, &node{id: id, interval: interval, maxEnd: interval.End, height: 1})
}

// Remove deletes id. Removing an absent id is a no-op.
func (t *Tree) Remove(id string) {
	old, ok := t.byID[id]
	if !ok {
		return
	}
	delete(t.byID, id)
	t.root = remove(t.root, old.Start, id)
}

// Overlapping returns the ids whose intervals overlap q under the tree's
// policy, in ascending start order. excludeID is skipped when non-empty.
func (t *Tree) Overlapping(q model.Interval, excludeID string) []string {
	var ids []string
	t.visit(t.root, q, func(n *node) {
		if n.id != excludeID {
			ids = append(ids, n.id)
		}
	})
	return ids
}

func (t *Tree) visit(n *node, q model.Interval, fn func(*node)) {
	if n == nil || !t.reaches(n.maxEnd, q) {
		return
	}
	t.visit(n.left, q, fn)
	if t.startsAfter(n.interval.Start, q) {
		// right subtree starts no earlier than n
		return
	}
	if t.policy.Overlaps(n.interval, q) {
		fn(n)
	}
	t.visit(n.right, q, fn)
}

// reaches reports whether something ending on end can still overlap q.
func (t *Tree) reaches(end model.Date, q model.Interval) bool {
	if t.policy == model.HalfOpen {
		return end.After(q.Start)
	}
	return !end.Before(q.Start)
}

// startsAfter reports whether something starting on start is entirely past q.
func (t *Tree) startsAfter(start model.Date, q model.Interval) bool {
	if t.policy == model.HalfOpen {
		return !start.Before(q.End)
	}
	return start.After(q.End)
}

func less(start model.Date, id string, n *node) bool {
	if c := start.Compare(n.interval.Start); c != 0 {
		return c < 0
	}
	return id < n.id
}

func height(n *node) int {
	if n == nil {
		return 0
	}
	return n.height
}

func update(n *node) {
	n.height = 1 + max(height(n.left), height(n.right))
	n.maxEnd = n.interval.End
	if n.left != nil && n.left.maxEnd.After(n.maxEnd) {
		n.maxEnd = n.left.maxEnd
	}
	if n.right != nil && n.right.maxEnd.After(n.maxEnd) {
		n.maxEnd = n.right.maxEnd
	}
}

func rotateRight(n *node) *node {
	l := n.left
	n.left = l.right
	l.right = n
	update(n)
	update(l)
	return l
}

func rotateLeft(n *node) *node {
	r := n.right
	n.right = r.left
	r.left = n
	update(n)
	update(r)
	return r
}

func rebalance(n *node) *node {
	update(n)
	balance := height(n.left) - height(n.right)
	switch {
	case balance > 1:
		if height(n.left.left) < height(n.left.right) {
			n.left = rotateLeft(n.left)
		}
		return rotateRight(n)
	case balance < -1:
		if height(n.right.right) < height(n.right.left) {
			n.right = rotateRight(n.right)
		}
		return rotateLeft(n)
	}
	return n
}

func insert(n, fresh *node) *node {
	if n == nil {
		return fresh
	}
	if less(fresh.interval.Start, fresh.id, n) {
		n.left = insert(n.left, fresh)
	} else {
		n.right = insert(n.right, fresh)
	}
	return rebalance(n)
}

func remove(n *node, start model.Date, id string) *node {
	if n == nil {
		return nil
	}
	switch {
	case n.id == id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		succ := n.right
		for succ.left != nil {
			succ = succ.left
		}
		n.right = remove(n.right, succ.interval.Start, succ.id)
		n.id = succ.id
		n.interval = succ.interval
	case less(start, id, n):
		n.left = remove(n.left, start, id)
	default:
		n.right = remove(n.right, start, id)
	}
	return rebalance(n)
}
