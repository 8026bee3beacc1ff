package mesh

import (
	"io"
	"math"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/voxelsplace/voxgen/vox"
)

// Document builds a glTF document holding m as a single mesh. Positions and
// normals are rotated from z up to the glTF y up convention. Vertex colors
// are converted from sRGB to linear.
func Document(m *Mesh, name string) *gltf.Document {
	return SceneDocument([]Part{{Name: name, Mesh: m}})
}

// Part is one mesh placed in a scene. Offset is in voxel units, z up.
type Part struct {
	Name   string
	Mesh   *Mesh
	Offset [3]float32
}

// SceneDocument builds a glTF document with one mesh and node per part.
// Parts without faces get no mesh.
func SceneDocument(parts []Part) *gltf.Document {
	doc := gltf.NewDocument()
	doc.Asset.Generator = "voxgen"

	material := &gltf.Material{
		Name: "voxel",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			MetallicFactor:  gltf.Float(0),
			RoughnessFactor: gltf.Float(1),
		},
		AlphaMode: gltf.AlphaOpaque,
	}
	for _, p := range parts {
		if len(p.Mesh.Indices) == 0 {
			continue
		}
		if len(doc.Materials) == 0 {
			doc.Materials = []*gltf.Material{material}
		}
		if writeMesh(doc, p.Mesh, p.Name) {
			material.AlphaMode = gltf.AlphaBlend
		}
		node := &gltf.Node{Name: p.Name, Mesh: gltf.Index(len(doc.Meshes) - 1)}
		if p.Offset != ([3]float32{}) {
			node.Translation = toF64(yUp(p.Offset))
		}
		doc.Nodes = append(doc.Nodes, node)
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
	}
	return doc
}

// writeMesh appends m to doc and reports whether any vertex is translucent.
func writeMesh(doc *gltf.Document, m *Mesh, name string) bool {
	positions := make([][3]float32, len(m.Vertices))
	normals := make([][3]float32, len(m.Vertices))
	colors := make([][4]float32, len(m.Vertices))
	hasAlpha := false
	for i, v := range m.Vertices {
		positions[i] = yUp(v.Position)
		normals[i] = yUp(v.Normal)
		colors[i] = [4]float32{linear(v.Color[0]), linear(v.Color[1]), linear(v.Color[2]), float32(v.Color[3]) / 255}
		if v.Color[3] < 255 {
			hasAlpha = true
		}
	}

	posAccessor := modeler.WritePosition(doc, positions)
	normalAccessor := modeler.WriteNormal(doc, normals)
	colorAccessor := modeler.WriteColor(doc, colors)
	indicesAccessor := modeler.WriteIndices(doc, m.Indices)

	prim := &gltf.Primitive{
		Attributes: map[string]int{
			gltf.POSITION: posAccessor,
			gltf.NORMAL:   normalAccessor,
			gltf.COLOR_0:  colorAccessor,
		},
		Indices:  gltf.Index(indicesAccessor),
		Material: gltf.Index(0),
	}
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: name, Primitives: []*gltf.Primitive{prim}})
	return hasAlpha
}

func toF64(p [3]float32) [3]float64 {
	return [3]float64{float64(p[0]), float64(p[1]), float64(p[2])}
}

func yUp(p [3]float32) [3]float32 {
	return [3]float32{p[0], p[2], -p[1]}
}

func linear(c uint8) float32 {
	s := float64(c) / 255
	if s <= 0.04045 {
		return float32(s / 12.92)
	}
	return float32(math.Pow((s+0.055)/1.055, 2.4))
}

// EncodeGLB meshes b and writes it to w as binary glTF.
func EncodeGLB(w io.Writer, b *vox.Buffer[vox.Rgba], name string) error {
	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	return enc.Encode(Document(Greedy(b), name))
}

// SaveGLB meshes b and writes it to path as binary glTF.
func SaveGLB(b *vox.Buffer[vox.Rgba], path, name string) error {
	return gltf.SaveBinary(Document(Greedy(b), name), path)
}
