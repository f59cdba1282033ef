// Package commenttree rebuilds reply threads from flat comment rows.
package commenttree

import "github.com/anonto42/nano-midea/community/internal/models"

// Node is a comment with its direct replies in creation order.
type Node struct {
	models.Comment
	Replies []*Node `json:"replies"`
}

// BuildForest attaches every comment to its parent. A comment whose parent is
// not in the input (deleted, filtered, or never loaded) becomes a root, and so
// does the earliest comment of any parent loop. Input order is kept at every
// level, so rows should arrive in creation order.
func BuildForest(comments []models.Comment) []*Node {
	index := make(map[uint]*Node, len(comments))
	nodes := make([]*Node, len(comments))
	for i := range comments {
		n := &Node{Comment: comments[i], Replies: []*Node{}}
		nodes[i] = n
		if _, dup := index[n.ID]; !dup {
			index[n.ID] = n
		}
	}

	parentOf := func(n *Node) *Node {
		if n.ParentID == nil || *n.ParentID == n.ID {
			return nil
		}
		parent, ok := index[*n.ParentID]
		if !ok || parent == n {
			return nil
		}
		return parent
	}
	cut := loopHeads(nodes, parentOf)

	roots := make([]*Node, 0)
	for _, n := range nodes {
		if parent := parentOf(n); parent != nil && !cut[n] {
			parent.Replies = append(parent.Replies, n)
			continue
		}
		roots = append(roots, n)
	}
	return roots
}

// loopHeads walks every parent chain once and returns, for each loop found,
// its member that comes first in nodes.
func loopHeads(nodes []*Node, parentOf func(*Node) *Node) map[*Node]bool {
	const (
		unseen = iota
		walking
		done
	)
	pos := make(map[*Node]int, len(nodes))
	for i, n := range nodes {
		pos[n] = i
	}
	state := make(map[*Node]int, len(nodes))
	heads := make(map[*Node]bool)

	for _, start := range nodes {
		var path []*Node
		n := start
		for n != nil && state[n] == unseen {
			state[n] = walking
			path = append(path, n)
			n = parentOf(n)
		}
		if n != nil && state[n] == walking {
			head := n
			for i := len(path) - 1; path[i] != n; i-- {
				if pos[path[i]] < pos[head] {
					head = path[i]
				}
			}
			heads[head] = true
		}
		for _, p := range path {
			state[p] = done
		}
	}
	return heads
}

// Count returns the number of nodes in the forest.
func Count(forest []*Node) int {
	total := 0
	stack := append([]*Node(nil), forest...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		total++
		stack = append(stack, n.Replies...)
	}
	return total
}
