package rangetracker

// node is an AVL tree node keyed by a boundary address. A node is also an
// entry of the intrusive list of its tag.
type node struct {
	key    uint64
	tag    Tag
	height int
	left   *node
	right  *node

	prevTag *node
	nextTag *node
}

func height(n *node) int {
	if n == nil {
		return 0
	}
	return n.height
}

func (n *node) update() {
	l, r := height(n.left), height(n.right)
	if l > r {
		n.height = l + 1
	} else {
		n.height = r + 1
	}
}

func (n *node) balance() int {
	return height(n.left) - height(n.right)
}

func rotateRight(n *node) *node {
	l := n.left
	n.left = l.right
	l.right = n
	n.update()
	l.update()
	return l
}

func rotateLeft(n *node) *node {
	r := n.right
	n.right = r.left
	r.left = n
	n.update()
	r.update()
	return r
}

func rebalance(n *node) *node {
	n.update()
	switch b := n.balance(); {
	case b > 1:
		if n.left.balance() < 0 {
			n.left = rotateLeft(n.left)
		}
		return rotateRight(n)
	case b < -1:
		if n.right.balance() > 0 {
			n.right = rotateRight(n.right)
		}
		return rotateLeft(n)
	}
	return n
}

// avlInsert adds leaf under root. Keys must be unique.
func avlInsert(root, leaf *node) *node {
	if root == nil {
		leaf.height = 1
		return leaf
	}
	if leaf.key < root.key {
		root.left = avlInsert(root.left, leaf)
	} else {
		root.right = avlInsert(root.right, leaf)
	}
	return rebalance(root)
}

// avlDelete removes key from the tree rooted at root. When the removed
// position holds a node with two children, the in-order successor's content
// is moved into it and moved is called with (successor, node) so the caller
// can fix external links.
func avlDelete(root *node, key uint64, moved func(from, to *node)) *node {
	if root == nil {
		return nil
	}
	switch {
	case key < root.key:
		root.left = avlDelete(root.left, key, moved)
	case key > root.key:
		root.right = avlDelete(root.right, key, moved)
	default:
		if root.left == nil {
			return root.right
		}
		if root.right == nil {
			return root.left
		}
		succ := avlMin(root.right)
		moved(succ, root)
		root.right = avlDelete(root.right, root.key, moved)
	}
	return rebalance(root)
}

func avlMin(n *node) *node {
	for n != nil && n.left != nil {
		n = n.left
	}
	return n
}

// avlFind returns the node with key.
func avlFind(root *node, key uint64) *node {
	for root != nil {
		switch {
		case key < root.key:
			root = root.left
		case key > root.key:
			root = root.right
		default:
			return root
		}
	}
	return nil
}

// avlFloor returns the node with the greatest key <= key.
func avlFloor(root *node, key uint64) *node {
	var best *node
	for root != nil {
		if root.key == key {
			return root
		}
		if root.key < key {
			best = root
			root = root.right
		} else {
			root = root.left
		}
	}
	return best
}

// avlHigher returns the node with the smallest key > key.
func avlHigher(root *node, key uint64) *node {
	var best *node
	for root != nil {
		if root.key > key {
			best = root
			root = root.left
		} else {
			root = root.right
		}
	}
	return best
}

// avlWalk visits nodes in key order.
func avlWalk(n *node, fn func(*node)) {
	if n == nil {
		return
	}
	avlWalk(n.left, fn)
	fn(n)
	avlWalk(n.right, fn)
}
