package proxy

import (
	"fmt"
	"strings"
)

// MethodFunc is a bound method stub. Arguments are positional; a trailing
// callable is the completion callback.
type MethodFunc func(args ...any)

// Node is a namespace container or a method in the proxy tree.
type Node interface {
	node()
}

// NamespaceNode is a plain container of child namespaces and methods.
type NamespaceNode struct {
	Path     string
	children map[string]Node
	order    []string
}

// MethodNode describes one method stub and, once mounted, its bound function.
type MethodNode struct {
	FullName     string
	ParamCount   int
	ExpectReturn bool
	fn           MethodFunc
}

func (*NamespaceNode) node() {}
func (*MethodNode) node()    {}

func newNamespace(path string) *NamespaceNode {
	return &NamespaceNode{Path: path, children: make(map[string]Node)}
}

func (n *NamespaceNode) add(name string, child Node) error {
	if name == "" {
		return fmt.Errorf("%w: empty name under %q", ErrInvalidArgument, n.Path)
	}
	if _, exists := n.children[name]; exists {
		return fmt.Errorf("%w: %q already defined under %q", ErrInvalidArgument, name, n.Path)
	}
	n.children[name] = child
	n.order = append(n.order, name)
	return nil
}

// Child returns the direct child called name.
func (n *NamespaceNode) Child(name string) (Node, bool) {
	if n == nil {
		return nil, false
	}
	c, ok := n.children[name]
	return c, ok
}

// Names lists direct children in insertion order.
func (n *NamespaceNode) Names() []string {
	if n == nil {
		return nil
	}
	return append([]string(nil), n.order...)
}

// Namespace returns the direct child namespace called name, or nil.
func (n *NamespaceNode) Namespace(name string) *NamespaceNode {
	c, _ := n.Child(name)
	ns, _ := c.(*NamespaceNode)
	return ns
}

// Method returns the bound function of the direct child method called name,
// or nil when there is none or the tree is not mounted.
func (n *NamespaceNode) Method(name string) MethodFunc {
	c, _ := n.Child(name)
	if m, ok := c.(*MethodNode); ok {
		return m.fn
	}
	return nil
}

// Tree is the unbound shape of a proxy: namespaces and method stubs.
type Tree struct {
	root *NamespaceNode
}

// NewTree creates an empty tree whose root is the proxy itself.
func NewTree() *Tree {
	return &Tree{root: newNamespace("")}
}

// AddNamespace adds a container. Its parent must already exist, so callers
// add namespaces parent-first.
func (t *Tree) AddNamespace(path string) error {
	parent, name, err := t.parentOf(path)
	if err != nil {
		return err
	}
	return parent.add(name, newNamespace(path))
}

// AddMethod adds a method stub under its namespace, which must already exist.
func (t *Tree) AddMethod(fullName string, paramCount int, expectReturn bool) error {
	parent, name, err := t.parentOf(fullName)
	if err != nil {
		return err
	}
	if paramCount < 0 {
		return fmt.Errorf("%w: negative parameter count for %q", ErrInvalidArgument, fullName)
	}
	return parent.add(name, &MethodNode{FullName: fullName, ParamCount: paramCount, ExpectReturn: expectReturn})
}

// Lookup finds the node at a dotted path.
func (t *Tree) Lookup(path string) (Node, bool) {
	return lookup(t.root, path)
}

func (t *Tree) parentOf(path string) (*NamespaceNode, string, error) {
	if path == "" {
		return nil, "", fmt.Errorf("%w: empty path", ErrInvalidArgument)
	}
	parentPath, name := "", path
	if i := strings.LastIndex(path, "."); i >= 0 {
		parentPath, name = path[:i], path[i+1:]
	}
	if parentPath == "" {
		if name != path {
			return nil, "", fmt.Errorf("%w: empty segment in %q", ErrInvalidArgument, path)
		}
		return t.root, name, nil
	}
	node, ok := lookup(t.root, parentPath)
	if !ok {
		return nil, "", fmt.Errorf("%w: parent namespace %q of %q is not defined", ErrInvalidArgument, parentPath, path)
	}
	parent, ok := node.(*NamespaceNode)
	if !ok {
		return nil, "", fmt.Errorf("%w: %q is a method, not a namespace", ErrInvalidArgument, parentPath)
	}
	return parent, name, nil
}

func lookup(root *NamespaceNode, path string) (Node, bool) {
	if path == "" {
		return root, true
	}
	var cur Node = root
	for _, segment := range strings.Split(path, ".") {
		ns, ok := cur.(*NamespaceNode)
		if !ok {
			return nil, false
		}
		if cur, ok = ns.children[segment]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Mount walks tree once and binds every method to p, so a method taken out
// of any namespace and called on its own still dispatches through p. The
// tree itself is left untouched; p keeps a bound copy.
func (p *Proxy) Mount(tree *Tree) {
	root := p.bind(tree.root)
	p.mu.Lock()
	p.root = root
	p.mu.Unlock()
}

func (p *Proxy) bind(src *NamespaceNode) *NamespaceNode {
	dst := newNamespace(src.Path)
	for _, name := range src.order {
		switch c := src.children[name].(type) {
		case *NamespaceNode:
			_ = dst.add(name, p.bind(c))
		case *MethodNode:
			m := *c
			m.fn = func(args ...any) {
				p.Call(m.FullName, m.ParamCount, m.ExpectReturn, args...)
			}
			_ = dst.add(name, &m)
		}
	}
	return dst
}

// Root returns the mounted tree's root container.
func (p *Proxy) Root() *NamespaceNode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.root
}

// Namespace returns the mounted container at path, or nil.
func (p *Proxy) Namespace(path string) *NamespaceNode {
	node, _ := lookup(p.Root(), path)
	ns, _ := node.(*NamespaceNode)
	return ns
}

// Method returns the bound stub for fullName, or nil.
func (p *Proxy) Method(fullName string) MethodFunc {
	node, _ := lookup(p.Root(), fullName)
	if m, ok := node.(*MethodNode); ok {
		return m.fn
	}
	return nil
}
