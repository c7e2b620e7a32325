package content

// CommentNode is a comment and the replies to it.
type CommentNode struct {
	Comment  CommentItem
	Children []*CommentNode

	// Depth is 1 for top-level comments.
	Depth int
}

// BuildCommentTree arranges comments into a forest keyed by ParentID,
// keeping their input order among siblings.
//
// No node is deeper than maxDepth: replies that would be nested deeper are
// listed at maxDepth instead, right after the comment they reply to. A
// maxDepth below 1 is treated as 1, which flattens the list. Comments
// replying to a comment that isn't in the list become top-level comments.
func BuildCommentTree(comments []CommentItem, maxDepth int) []*CommentNode {
	if maxDepth < 1 {
		maxDepth = 1
	}
	nodes := make(map[int64]*CommentNode, len(comments))
	for _, comment := range comments {
		nodes[comment.ID] = &CommentNode{Comment: comment}
	}

	var roots []*CommentNode
	for _, comment := range comments {
		node := nodes[comment.ID]
		parent, ok := nodes[comment.ParentID]
		if comment.ParentID == 0 || !ok || createsCycle(nodes, node, parent) {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	var place func(node *CommentNode, depth int, container *[]*CommentNode)
	place = func(node *CommentNode, depth int, container *[]*CommentNode) {
		replies := node.Children
		node.Children = nil
		node.Depth = depth
		*container = append(*container, node)
		for _, reply := range replies {
			if depth < maxDepth {
				place(reply, depth+1, &node.Children)
				continue
			}
			place(reply, depth, container)
		}
	}
	var result []*CommentNode
	for _, root := range roots {
		place(root, 1, &result)
	}
	return result
}

// Walk calls fn for every node in the forest, parents before their
// children.
func Walk(nodes []*CommentNode, fn func(*CommentNode)) {
	for _, node := range nodes {
		fn(node)
		Walk(node.Children, fn)
	}
}

// createsCycle reports whether attaching node under parent would make node
// its own ancestor.
func createsCycle(nodes map[int64]*CommentNode, node, parent *CommentNode) bool {
	seen := map[int64]struct{}{}
	for current := parent; current != nil; {
		if current == node {
			return true
		}
		if _, ok := seen[current.Comment.ID]; ok {
			return true
		}
		seen[current.Comment.ID] = struct{}{}
		if current.Comment.ParentID == 0 {
			return false
		}
		current = nodes[current.Comment.ParentID]
	}
	return false
}
