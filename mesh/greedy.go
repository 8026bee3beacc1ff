// Package mesh turns voxel buffers into triangle meshes.
package mesh

import "github.com/voxelsplace/voxgen/vox"

// Vertex positions are in voxel units, z up.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	Color    vox.Rgba
}

type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// Quads is the number of merged faces.
func (m *Mesh) Quads() int { return len(m.Indices) / 6 }

type dirSpec struct {
	normal [3]float32
	u, v   int
	du, dv [3]int
}

var directions = []dirSpec{
	{[3]float32{1, 0, 0}, 1, 2, [3]int{0, 1, 0}, [3]int{0, 0, 1}},
	{[3]float32{-1, 0, 0}, 1, 2, [3]int{0, 1, 0}, [3]int{0, 0, 1}},
	{[3]float32{0, 1, 0}, 0, 2, [3]int{1, 0, 0}, [3]int{0, 0, 1}},
	{[3]float32{0, -1, 0}, 0, 2, [3]int{1, 0, 0}, [3]int{0, 0, 1}},
	{[3]float32{0, 0, 1}, 0, 1, [3]int{1, 0, 0}, [3]int{0, 1, 0}},
	{[3]float32{0, 0, -1}, 0, 1, [3]int{1, 0, 0}, [3]int{0, 1, 0}},
}

func voxelAt(b *vox.Buffer[vox.Rgba], pos [3]int) vox.Rgba {
	if pos[0] < 0 || pos[1] < 0 || pos[2] < 0 {
		return vox.Rgba{}
	}
	i, ok := b.Index(uint32(pos[0]), uint32(pos[1]), uint32(pos[2]))
	if !ok {
		return vox.Rgba{}
	}
	return b.GetIndex(i)
}

func addQuad(m *Mesh, dir dirSpec, start [3]int, w, h int, color vox.Rgba, perp int) {
	base := [3]float32{}
	base[perp] = float32(start[0])
	if dir.normal[perp] > 0 {
		base[perp] += 1
	}
	base[dir.u] = float32(start[1])
	base[dir.v] = float32(start[2])

	var corners [4][3]float32
	for i := range corners {
		corners[i] = base
	}
	for k := 0; k < 3; k++ {
		corners[1][k] += float32(dir.du[k] * h)
		corners[2][k] += float32(dir.du[k]*h + dir.dv[k]*w)
		corners[3][k] += float32(dir.dv[k] * w)
	}

	// du x dv points along -y for the y faces, so their winding flips
	if swap := (dir.normal[perp] < 0) != (perp == 1); swap {
		corners[1], corners[3] = corners[3], corners[1]
	}

	baseIdx := uint32(len(m.Vertices))
	for _, c := range corners {
		m.Vertices = append(m.Vertices, Vertex{Position: c, Normal: dir.normal, Color: color})
	}
	m.Indices = append(m.Indices, baseIdx, baseIdx+1, baseIdx+2, baseIdx, baseIdx+2, baseIdx+3)
}

// Greedy builds a mesh of the visible faces of b, merging coplanar
// neighbours of identical color into rectangles. Faces between two
// non-empty voxels are dropped, whatever their colors.
func Greedy(b *vox.Buffer[vox.Rgba]) *Mesh {
	m := &Mesh{}
	dims := [3]int{int(b.Width()), int(b.Depth()), int(b.Height())}

	for _, dir := range directions {
		perp := 3 - dir.u - dir.v
		nu, nv := dims[dir.u], dims[dir.v]
		mask := make([]vox.Rgba, nu*nv)
		visited := make([]bool, nu*nv)

		for p := 0; p < dims[perp]; p++ {
			clear(visited)
			for u := 0; u < nu; u++ {
				for v := 0; v < nv; v++ {
					var pos [3]int
					pos[dir.u] = u
					pos[dir.v] = v
					pos[perp] = p

					mask[u*nv+v] = vox.Rgba{}
					voxel := voxelAt(b, pos)
					if voxel.Empty() {
						continue
					}
					adj := pos
					if dir.normal[perp] < 0 {
						adj[perp] = p - 1
					} else {
						adj[perp] = p + 1
					}
					if voxelAt(b, adj).Empty() {
						mask[u*nv+v] = voxel
					}
				}
			}

			for u := 0; u < nu; u++ {
				for v := 0; v < nv; {
					color := mask[u*nv+v]
					if color.Empty() || visited[u*nv+v] {
						v++
						continue
					}
					width := 1
					for w := v + 1; w < nv && mask[u*nv+w] == color && !visited[u*nv+w]; w++ {
						width++
					}
					height := 1
				grow:
					for h := u + 1; h < nu; h++ {
						for w := v; w < v+width; w++ {
							if mask[h*nv+w] != color || visited[h*nv+w] {
								break grow
							}
						}
						height++
					}
					for hu := u; hu < u+height; hu++ {
						for hv := v; hv < v+width; hv++ {
							visited[hu*nv+hv] = true
						}
					}
					addQuad(m, dir, [3]int{p, u, v}, width, height, color, perp)
					v += width
				}
			}
		}
	}
	return m
}
