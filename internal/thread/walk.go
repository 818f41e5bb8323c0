package thread

// Walk visits the forest depth-first: each root, then its replies
// recursively, in stored order. Returning false from fn stops the walk.
func Walk(forest []*Node, fn func(n *Node, depth int) bool) {
	type frame struct {
		node  *Node
		depth int
	}

	stack := make([]frame, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, frame{forest[i], 0})
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !fn(top.node, top.depth) {
			return
		}

		for i := len(top.node.Replies) - 1; i >= 0; i-- {
			stack = append(stack, frame{top.node.Replies[i], top.depth + 1})
		}
	}
}

// Locate returns the first node with the given id together with its reply
// subtree as already built. The subtree is shared, not copied.
func Locate(forest []*Node, id string) (*Node, bool) {
	var found *Node
	Walk(forest, func(n *Node, _ int) bool {
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found, found != nil
}

// Size counts every node in the forest
func Size(forest []*Node) int {
	count := 0
	Walk(forest, func(*Node, int) bool {
		count++
		return true
	})
	return count
}
