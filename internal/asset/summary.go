package asset

import "cgf-scene-loader/internal/filter"

// Summary is a JSON-friendly digest of an Asset.
type Summary struct {
	Path      string `json:"path"`
	Companion string `json:"companion,omitempty"`

	Nodes           int    `json:"nodes"`
	MeshNodes       int    `json:"mesh_nodes"`
	RenderableNodes int    `json:"renderable_nodes"`
	ProxyNodes      int    `json:"proxy_nodes"`
	LODNodes        int    `json:"lod_nodes"`
	Depth           int    `json:"depth"`
	Vertices        int    `json:"vertices"`
	Triangles       int    `json:"triangles"`
	NoDrawTris      int    `json:"nodraw_triangles"`
	Bones           int    `json:"bones"`
	RootBone        string `json:"root_bone,omitempty"`

	Skinned              bool `json:"skinned"`
	HasSkinningInfo      bool `json:"has_skinning_info"`
	HasBoneMapDatastream bool `json:"has_bone_map_datastream"`
	HasIntToExtMapping   bool `json:"has_int_to_ext_mapping"`

	MaterialLibrary string   `json:"material_library,omitempty"`
	Materials       []string `json:"materials"`
	Diagnostics     []string `json:"diagnostics,omitempty"`
}

// Summary digests the asset.
func (a *Asset) Summary() Summary {
	s := Summary{
		Path:                 a.Path,
		Depth:                a.Root.Depth(),
		Bones:                a.Skeleton.Len(),
		Skinned:              a.Skinning.Skinned(),
		HasSkinningInfo:      a.Skinning.HasSkinningInfo,
		HasBoneMapDatastream: a.Skinning.HasBoneMapDatastream,
		HasIntToExtMapping:   a.Skinning.HasIntToExtMapping,
		MaterialLibrary:      a.MaterialLibrary,
	}
	if c := a.Companion(); c != nil {
		s.Companion = c.Path
	}
	if root := a.Skeleton.Root(); root != nil {
		s.RootBone = root.Name
	}

	for _, n := range a.Graph.Nodes {
		s.Nodes++
		if filter.IsProxyNode(n) {
			s.ProxyNodes++
		}
		if filter.LODLevel(n.Name) > 0 {
			s.LODNodes++
		}
		if n.Placeholder() {
			continue
		}
		s.MeshNodes++
		if filter.Renderable(n, a.Materials) {
			s.RenderableNodes++
		}
		s.Vertices += n.Geometry.VertexCount()
		for i := range n.Geometry.Subsets {
			sub := &n.Geometry.Subsets[i]
			s.Triangles += len(sub.Triangles)
			if filter.IsNoDrawSubset(sub, a.Materials) {
				s.NoDrawTris += len(sub.Triangles)
			}
		}
	}

	for _, m := range a.Materials {
		s.Materials = append(s.Materials, m.Name)
	}
	for _, d := range a.Diagnostics {
		s.Diagnostics = append(s.Diagnostics, d.String())
	}
	return s
}
