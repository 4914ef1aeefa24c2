// Package skeleton exposes compiled bones as a traversable tree.
package skeleton

import (
	"slices"
	"strings"

	"cgf-scene-loader/internal/chunk"
	"cgf-scene-loader/internal/mathutil"
)

// ArmatureID is the identifier of the root bone.
const ArmatureID = "Armature"

// Hierarchy is a validated bone tree over a compiled bone list. It borrows
// the list and must not outlive changes to it.
type Hierarchy struct {
	bones []chunk.CompiledBone
	index map[*chunk.CompiledBone]int
	roots []int
}

// New validates bones and builds the hierarchy. Indices out of range, a
// child whose parent does not list it (or the reverse), a bone reachable
// twice, or a bone on a cycle are structural errors. An empty list yields
// an empty hierarchy.
func New(bones []chunk.CompiledBone) (*Hierarchy, error) {
	h := &Hierarchy{
		bones: bones,
		index: make(map[*chunk.CompiledBone]int, len(bones)),
	}
	if len(bones) == 0 {
		return h, nil
	}

	for i := range bones {
		b := &bones[i]
		h.index[b] = i
		if b.ParentIndex < 0 {
			h.roots = append(h.roots, i)
		} else if b.ParentIndex >= len(bones) {
			return nil, chunk.Structuralf("bone %d (%q) parent %d out of range", i, b.Name, b.ParentIndex)
		}
		for _, c := range b.ChildIndices {
			if c < 0 || c >= len(bones) {
				return nil, chunk.Structuralf("bone %d (%q) child %d out of range", i, b.Name, c)
			}
			if bones[c].ParentIndex != i {
				return nil, chunk.Structuralf("bone %d (%q) lists child %d whose parent is %d",
					i, b.Name, c, bones[c].ParentIndex)
			}
		}
	}
	for i := range bones {
		if p := bones[i].ParentIndex; p >= 0 && !slices.Contains(bones[p].ChildIndices, i) {
			return nil, chunk.Structuralf("bone %d (%q) is not listed by its parent %d", i, bones[i].Name, p)
		}
	}
	if len(h.roots) == 0 {
		return nil, chunk.Structuralf("no root bone among %d bones", len(bones))
	}

	// Explicit stack so a malformed list cannot recurse without bound.
	seen := make([]bool, len(bones))
	for _, r := range h.roots {
		stack := []int{r}
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if seen[i] {
				return nil, chunk.Structuralf("bone %d (%q) is reached twice", i, bones[i].Name)
			}
			seen[i] = true
			stack = append(stack, bones[i].ChildIndices...)
		}
	}
	for i, ok := range seen {
		if !ok {
			return nil, chunk.Structuralf("bone %d (%q) is on a cycle", i, bones[i].Name)
		}
	}
	return h, nil
}

// Len returns the number of bones.
func (h *Hierarchy) Len() int {
	return len(h.bones)
}

// Bone returns bone i.
func (h *Hierarchy) Bone(i int) *chunk.CompiledBone {
	return &h.bones[i]
}

// Root returns the first parentless bone, or nil when there are no bones.
func (h *Hierarchy) Root() *chunk.CompiledBone {
	if len(h.roots) == 0 {
		return nil
	}
	return &h.bones[h.roots[0]]
}

// Roots returns every parentless bone in list order.
func (h *Hierarchy) Roots() []*chunk.CompiledBone {
	out := make([]*chunk.CompiledBone, 0, len(h.roots))
	for _, r := range h.roots {
		out = append(out, &h.bones[r])
	}
	return out
}

// Children returns the direct children of b in stored order.
func (h *Hierarchy) Children(b *chunk.CompiledBone) []*chunk.CompiledBone {
	out := make([]*chunk.CompiledBone, 0, len(b.ChildIndices))
	for _, c := range b.ChildIndices {
		out = append(out, &h.bones[c])
	}
	return out
}

// Index returns b's position in the bone list, or -1 if b is not one of
// this hierarchy's bones.
func (h *Hierarchy) Index(b *chunk.CompiledBone) int {
	if i, ok := h.index[b]; ok {
		return i
	}
	return -1
}

// BoneID returns the identifier exporters use for b.
func (h *Hierarchy) BoneID(b *chunk.CompiledBone) string {
	if len(h.roots) > 0 && h.Index(b) == h.roots[0] {
		return ArmatureID
	}
	return ArmatureID + "_" + strings.ReplaceAll(b.Name, " ", "_")
}

// Walk visits every bone depth first from each root in turn, parents
// before children. Returning an error from fn stops the walk.
func (h *Hierarchy) Walk(fn func(b *chunk.CompiledBone, depth int) error) error {
	for _, r := range h.roots {
		if err := h.walk(r, 0, fn); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hierarchy) walk(i, depth int, fn func(*chunk.CompiledBone, int) error) error {
	if err := fn(&h.bones[i], depth); err != nil {
		return err
	}
	for _, c := range h.bones[i].ChildIndices {
		if err := h.walk(c, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

// Local returns bone i's transform relative to its parent in bind pose.
func (h *Hierarchy) Local(i int) mathutil.Mat4 {
	b := &h.bones[i]
	if b.ParentIndex < 0 {
		return b.BoneToWorld
	}
	parent := h.bones[b.ParentIndex].BoneToWorld
	return mathutil.Mat4Mul(parent.Inverse(), b.BoneToWorld)
}

// WorldMatrices computes the bind-pose world transform of each bone by
// chaining local transforms from each root. Returns a slice indexed by bone.
func (h *Hierarchy) WorldMatrices() []mathutil.Mat4 {
	worlds := make([]mathutil.Mat4, len(h.bones))
	for i := range worlds {
		worlds[i] = mathutil.Mat4Identity()
	}
	_ = h.Walk(func(b *chunk.CompiledBone, _ int) error {
		i := h.index[b]
		if b.ParentIndex >= 0 {
			worlds[i] = mathutil.Mat4Mul(worlds[b.ParentIndex], h.Local(i))
		} else {
			worlds[i] = h.Local(i)
		}
		return nil
	})
	return worlds
}
