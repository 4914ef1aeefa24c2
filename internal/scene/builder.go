package scene

import (
	"errors"
	"fmt"

	"cgf-scene-loader/internal/chunk"
	"cgf-scene-loader/internal/mathutil"
	"cgf-scene-loader/internal/mesh"
)

// RootName names the synthetic root created when a file has several roots.
const RootName = "Scene Root"

// Options controls the build.
type Options struct {
	Mesh mesh.Options
}

// Graph is the built node tree. It is read-only after Build returns.
type Graph struct {
	Root *Node

	// Nodes lists the primary file's nodes in file order.
	Nodes       []*Node
	Diagnostics []Diagnostic
}

// Find returns the first node named name, in file order.
func (g *Graph) Find(name string) (*Node, bool) {
	for _, n := range g.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return nil, false
}

// MeshNodes returns the nodes that carry geometry, in file order.
func (g *Graph) MeshNodes() []*Node {
	var out []*Node
	for _, n := range g.Nodes {
		if !n.Placeholder() {
			out = append(out, n)
		}
	}
	return out
}

type meshKey struct {
	companion bool
	id        chunk.ID
}

type builder struct {
	primary   *chunk.Table
	companion *chunk.Table
	opts      Options
	graph     *Graph
	meshes    map[meshKey]*mesh.Geometry
}

// Build links the primary file's nodes into a tree and binds geometry.
// companion may be nil. With a companion, each node takes the mesh of the
// first companion node with the same name and keeps its own placement;
// nodes without a companion match fall back to their own object reference.
//
// A single root is returned as is; several roots are parented to a
// synthetic root. Parent cycles and out-of-range mesh indices are
// structural errors.
func Build(primary, companion *chunk.Table, opts Options) (*Graph, error) {
	b := &builder{
		primary:   primary,
		companion: companion,
		opts:      opts,
		graph:     &Graph{},
		meshes:    make(map[meshKey]*mesh.Geometry),
	}

	roots, err := b.link()
	if err != nil {
		return nil, err
	}

	g := b.graph
	if len(roots) == 1 {
		g.Root = roots[0]
	} else {
		g.Root = &Node{
			ID:          chunk.NoID,
			Name:        RootName,
			Local:       Transform{Rotation: mathutil.Mat3Identity(), Scale: mathutil.Vec3{1, 1, 1}},
			LocalMatrix: mathutil.Mat4Identity(),
			World:       mathutil.Mat4Identity(),
			Children:    roots,
		}
		for _, r := range roots {
			r.Parent = g.Root
		}
	}

	for _, r := range roots {
		b.transform(r, mathutil.Mat4Identity())
	}

	for _, n := range g.Nodes {
		if err := b.bind(n); err != nil {
			return nil, fmt.Errorf("scene: node %q: %w", n.Name, err)
		}
	}
	return g, nil
}

// link creates a Node per record and attaches children to parents.
func (b *builder) link() ([]*Node, error) {
	records := b.primary.Nodes()
	byID := make(map[chunk.ID]*Node, len(records))
	for _, rec := range records {
		n := &Node{ID: rec.ID, Name: rec.Name, Record: rec}
		byID[rec.ID] = n
		b.graph.Nodes = append(b.graph.Nodes, n)
	}

	var roots []*Node
	for _, n := range b.graph.Nodes {
		pid := n.Record.ParentID
		if !pid.Valid() {
			roots = append(roots, n)
			continue
		}
		p, ok := byID[pid]
		if !ok {
			b.diag(Unresolved, n, (&chunk.UnresolvedReferenceError{ID: pid, Want: chunk.KindNode}).Error()+", treating as root")
			roots = append(roots, n)
			continue
		}
		n.Parent = p
		p.Children = append(p.Children, n)
	}

	// Every node has at most one parent, so a node unreachable from a root
	// sits on a parent cycle.
	seen := make(map[*Node]bool, len(b.graph.Nodes))
	for _, r := range roots {
		_ = r.Walk(func(n *Node, _ int) error {
			seen[n] = true
			return nil
		})
	}
	for _, n := range b.graph.Nodes {
		if !seen[n] {
			return nil, chunk.Structuralf("node %d (%q) is on a parent cycle", n.ID, n.Name)
		}
	}
	return roots, nil
}

func (b *builder) transform(n *Node, parentWorld mathutil.Mat4) {
	n.Local = NodeTransform(n.Record.Transform)
	n.LocalMatrix = n.Local.Matrix()
	n.World = mathutil.Mat4Mul(parentWorld, n.LocalMatrix)
	for _, c := range n.Children {
		b.transform(c, n.World)
	}
}

// bind attaches geometry to n, or leaves it a placeholder. With a
// companion table, geometry comes only from the companion node of the
// same name.
func (b *builder) bind(n *Node) error {
	if b.companion != nil {
		b.bindHelper(n)
		cn, ok := b.companion.NodeByName(n.Name)
		if !ok {
			return nil
		}
		m, err := chunk.Lookup[*chunk.Mesh](b.companion, cn.ObjectID)
		if err != nil || !mesh.HasGeometry(m) {
			return nil
		}
		g, err := b.resolve(n, b.companion, m, true)
		if err != nil {
			return err
		}
		if g != nil {
			n.Geometry = g
			n.FromCompanion = true
		}
		return nil
	}

	obj := n.Record.ObjectID
	if !obj.Valid() {
		return nil
	}
	r, ok := b.primary.Get(obj)
	if !ok {
		b.diag(Unresolved, n, (&chunk.UnresolvedReferenceError{ID: obj, Want: chunk.KindMesh}).Error())
		return nil
	}
	switch rec := r.(type) {
	case *chunk.Mesh:
		if !mesh.HasGeometry(rec) {
			return nil
		}
		g, err := b.resolve(n, b.primary, rec, false)
		if err != nil {
			return err
		}
		n.Geometry = g
	case *chunk.Helper:
		n.Helper = rec
	default:
		b.diag(Unresolved, n, (&chunk.UnresolvedReferenceError{ID: obj, Want: chunk.KindMesh, Got: r.Kind()}).Error())
	}
	return nil
}

// bindHelper records a helper target of the primary record.
func (b *builder) bindHelper(n *Node) {
	if !n.Record.ObjectID.Valid() {
		return
	}
	if h, err := chunk.Lookup[*chunk.Helper](b.primary, n.Record.ObjectID); err == nil {
		n.Helper = h
	}
}

func (b *builder) resolve(n *Node, t *chunk.Table, m *chunk.Mesh, companion bool) (*mesh.Geometry, error) {
	key := meshKey{companion: companion, id: m.ID}
	if g, ok := b.meshes[key]; ok {
		return g, nil
	}
	g, err := mesh.Resolve(t, m, b.opts.Mesh)
	if err != nil {
		if errors.Is(err, chunk.ErrUnresolved) {
			b.diag(Unresolved, n, err.Error())
			b.meshes[key] = nil
			return nil, nil
		}
		return nil, err
	}
	for _, w := range g.Warnings {
		kind := DataQuality
		if w.Unresolved {
			kind = Unresolved
		}
		b.diag(kind, n, w.Message)
	}
	// A mesh whose references all failed contributes nothing.
	if g.VertexCount() == 0 {
		g = nil
	}
	b.meshes[key] = g
	return g, nil
}

func (b *builder) diag(kind DiagnosticKind, n *Node, msg string) {
	b.graph.Diagnostics = append(b.graph.Diagnostics, Diagnostic{Kind: kind, Node: n.Name, Message: msg})
}
