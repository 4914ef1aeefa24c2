// Package filter classifies nodes and subsets that exporters usually skip:
// physics proxies, LOD meshes and no-draw surfaces.
package filter

import (
	"regexp"
	"strconv"
	"strings"

	"cgf-scene-loader/internal/material"
	"cgf-scene-loader/internal/mesh"
	"cgf-scene-loader/internal/scene"
)

// lodRE matches "$lod1", "hull_lod2" and "LOD3".
var lodRE = regexp.MustCompile(`(?i)(?:^\$|_|^)lod(\d+)$`)

var proxyPatterns = []string{
	"proxy", "collision", "physics", "$phys", "mesh_proxy",
}

// LODLevel returns the level of detail a node name encodes. Level 0 means
// the name carries no LOD suffix.
func LODLevel(name string) int {
	m := lodRE.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// IsProxyNode reports whether the node is a physics or collision proxy.
// Exporter helper nodes start with "$" and are proxies unless they only
// name a LOD.
func IsProxyNode(n *scene.Node) bool {
	name := strings.ToLower(n.Name)
	if strings.HasPrefix(name, "$") && LODLevel(name) == 0 {
		return true
	}
	for _, p := range proxyPatterns {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}

// IsNoDrawSubset reports whether the subset is bound to a hidden material.
func IsNoDrawSubset(s *mesh.Subset, materials []material.Material) bool {
	if s.MaterialIndex < 0 || s.MaterialIndex >= len(materials) {
		return false
	}
	return materials[s.MaterialIndex].NoDraw()
}

// Renderable reports whether the node carries visible geometry at full
// detail.
func Renderable(n *scene.Node, materials []material.Material) bool {
	if n.Placeholder() || IsProxyNode(n) || LODLevel(n.Name) > 0 {
		return false
	}
	for i := range n.Geometry.Subsets {
		if !IsNoDrawSubset(&n.Geometry.Subsets[i], materials) {
			return true
		}
	}
	return false
}

// Components counts the connected triangle islands of g, joining
// triangles that share a vertex index.
func Components(g *mesh.Geometry) int {
	nv := g.VertexCount()
	if nv == 0 {
		return 0
	}
	parent := make([]int, nv)
	for i := range parent {
		parent[i] = i
	}
	find := func(v int) int {
		for parent[v] != v {
			parent[v] = parent[parent[v]]
			v = parent[v]
		}
		return v
	}

	used := make([]bool, nv)
	for _, s := range g.Subsets {
		for _, tri := range s.Triangles {
			a := find(tri[0].Vertex)
			used[tri[0].Vertex] = true
			for _, c := range tri[1:] {
				used[c.Vertex] = true
				if b := find(c.Vertex); b != a {
					parent[b] = a
				}
			}
		}
	}

	n := 0
	for v := range parent {
		if used[v] && find(v) == v {
			n++
		}
	}
	return n
}
