// Package scene builds the node tree of an asset from one or two chunk
// tables, binding each node to resolved mesh geometry.
package scene

import (
	"cgf-scene-loader/internal/chunk"
	"cgf-scene-loader/internal/mathutil"
	"cgf-scene-loader/internal/mesh"
)

// Node is one entry of the merged node tree. The synthetic scene root has
// no Record and an identity transform.
type Node struct {
	ID     chunk.ID
	Name   string
	Record *chunk.Node

	Parent   *Node
	Children []*Node

	Local       Transform
	LocalMatrix mathutil.Mat4
	World       mathutil.Mat4

	// Helper is set when the object reference targets a helper record.
	Helper *chunk.Helper

	// Geometry is nil for placeholders.
	Geometry      *mesh.Geometry
	FromCompanion bool
}

// Synthetic reports whether n is the generated scene root.
func (n *Node) Synthetic() bool {
	return n.Record == nil
}

// Placeholder reports whether n carries no geometry.
func (n *Node) Placeholder() bool {
	return n.Geometry == nil
}

// Walk visits n and its descendants depth first, parents before children.
// Returning an error from fn stops the walk.
func (n *Node) Walk(fn func(n *Node, depth int) error) error {
	return n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) error, depth int) error {
	if err := fn(n, depth); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := c.walk(fn, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// Depth returns the number of levels in the subtree rooted at n.
func (n *Node) Depth() int {
	d := 0
	for _, c := range n.Children {
		d = max(d, c.Depth())
	}
	return d + 1
}

// DiagnosticKind classifies a recoverable problem.
type DiagnosticKind int

const (
	// Unresolved marks a reference that did not resolve; the referencing
	// object was treated as empty.
	Unresolved DiagnosticKind = iota
	// DataQuality marks data that was corrected in place.
	DataQuality
)

func (k DiagnosticKind) String() string {
	if k == DataQuality {
		return "data-quality"
	}
	return "unresolved"
}

// Diagnostic records a recoverable problem found while building.
type Diagnostic struct {
	Kind    DiagnosticKind
	Node    string
	Message string
}

func (d Diagnostic) String() string {
	if d.Node == "" {
		return d.Kind.String() + ": " + d.Message
	}
	return d.Kind.String() + ": " + d.Node + ": " + d.Message
}
