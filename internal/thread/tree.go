// Package thread turns the flat comment records of one article into reply
// trees and answers subtree and pagination queries over them. Everything here
// is pure and works on data already in memory.
package thread

import (
	"slices"

	"github.com/article-threads-api/internal/models"
)

// Node is a comment together with its replies, newest first
type Node struct {
	models.Comment
	Replies []*Node `json:"replies"`
}

const noParent = -1

// Build converts an unordered set of comments into a forest. A comment whose
// parent is missing from the set becomes a root, as does every comment that
// sits on a parent cycle. Siblings at every level are ordered by creation
// time descending; ties keep input order.
func Build(comments []*models.Comment) []*Node {
	if len(comments) == 0 {
		return []*Node{}
	}

	// Arena: every node lives in one slice and is referenced by position.
	nodes := make([]Node, len(comments))
	index := make(map[string]int, len(comments))
	for i, c := range comments {
		nodes[i] = Node{Comment: *c, Replies: []*Node{}}
		index[c.ID] = i
	}

	parent := make([]int, len(nodes))
	for i := range nodes {
		parent[i] = noParent
		if pid := nodes[i].ParentCommentID; pid != nil {
			if j, ok := index[*pid]; ok {
				parent[i] = j
			}
		}
	}
	breakCycles(parent)

	roots := make([]int, 0)
	children := make([][]int, len(nodes))
	for i, p := range parent {
		if p == noParent {
			roots = append(roots, i)
		} else {
			children[p] = append(children[p], i)
		}
	}

	newestFirst := func(a, b int) int {
		return nodes[b].CreatedAt.Compare(nodes[a].CreatedAt)
	}
	slices.SortStableFunc(roots, newestFirst)
	for i := range children {
		slices.SortStableFunc(children[i], newestFirst)
		for _, c := range children[i] {
			nodes[i].Replies = append(nodes[i].Replies, &nodes[c])
		}
	}

	forest := make([]*Node, 0, len(roots))
	for _, r := range roots {
		forest = append(forest, &nodes[r])
	}
	return forest
}

// breakCycles detaches every node that lies on a parent cycle. Nodes that
// merely lead into a cycle keep their parent, so they stay reachable once
// the cycle members are roots.
func breakCycles(parent []int) {
	const (
		unvisited = iota
		onPath
		done
	)

	state := make([]uint8, len(parent))
	path := make([]int, 0)

	for start := range parent {
		if state[start] != unvisited {
			continue
		}

		path = path[:0]
		j := start
		for j != noParent && state[j] == unvisited {
			state[j] = onPath
			path = append(path, j)
			j = parent[j]
		}

		if j != noParent && state[j] == onPath {
			for k := len(path) - 1; k >= 0; k-- {
				member := path[k]
				parent[member] = noParent
				if member == j {
					break
				}
			}
		}

		for _, k := range path {
			state[k] = done
		}
	}
}
