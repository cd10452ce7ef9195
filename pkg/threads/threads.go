package threads

import (
	"hoaportal/pkg/logger"
	"hoaportal/pkg/models"
)

// Node is a message with its direct replies, in input order.
type Node struct {
	Message  models.Message `json:"message"`
	Children []*Node        `json:"children,omitempty"`
}

// Build reconstructs the reply forest from a flat message list in two
// passes: index every message by id, then attach each one to its parent.
// Messages whose parent id is set but not present in the input are
// dropped. Roots come out in input order, as do each node's children.
func Build(msgs []models.Message) []*Node {
	nodes := make(map[string]*Node, len(msgs))
	order := make([]*Node, 0, len(msgs))
	for _, m := range msgs {
		if m.ID == "" {
			logger.Warn("thread_message_without_id", "sender", m.SenderID)
			continue
		}
		if _, dup := nodes[m.ID]; dup {
			logger.Warn("thread_duplicate_message", "id", m.ID)
			continue
		}
		n := &Node{Message: m}
		nodes[m.ID] = n
		order = append(order, n)
	}

	var roots []*Node
	for _, n := range order {
		pid := n.Message.ParentID
		if pid == "" {
			roots = append(roots, n)
			continue
		}
		parent, ok := nodes[pid]
		if !ok || parent == n {
			logger.Warn("thread_orphan_dropped", "id", n.Message.ID, "parent", pid)
			continue
		}
		parent.Children = append(parent.Children, n)
	}
	return roots
}

// Walk visits every node depth first, parents before children. The
// visit callback returns false to stop the walk early.
func Walk(roots []*Node, visit func(*Node, int) bool) {
	var rec func(n *Node, depth int) bool
	rec = func(n *Node, depth int) bool {
		if !visit(n, depth) {
			return false
		}
		for _, c := range n.Children {
			if !rec(c, depth+1) {
				return false
			}
		}
		return true
	}
	for _, r := range roots {
		if !rec(r, 0) {
			return
		}
	}
}

// Flatten returns the forest back as a flat list in depth-first order.
func Flatten(roots []*Node) []models.Message {
	var out []models.Message
	Walk(roots, func(n *Node, _ int) bool {
		out = append(out, n.Message)
		return true
	})
	return out
}

// Size counts the messages in a forest.
func Size(roots []*Node) int {
	n := 0
	Walk(roots, func(*Node, int) bool {
		n++
		return true
	})
	return n
}
