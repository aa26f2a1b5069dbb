package mesh

import (
	"io"
	"math"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// Document builds a glTF document with a single primitive and one PBR
// material. Vertex colours carry the palette.
func Document(m *Mesh) (*gltf.Document, error) {
	positions := make([][3]float32, len(m.Vertices))
	colors := make([][4]float32, len(m.Vertices))
	hasAlpha := false
	for i, v := range m.Vertices {
		positions[i] = v.Position
		rgba, err := ParseHexColor(v.Color)
		if err != nil {
			return nil, err
		}
		colors[i] = rgba
		if rgba[3] < 1.0 {
			hasAlpha = true
		}
	}

	indices := make([]uint32, len(m.Indices))
	copy(indices, m.Indices)

	// flat normals per face
	normals := make([][3]float32, len(positions))
	for i := 0; i < len(indices); i += 3 {
		v0, v1, v2 := indices[i], indices[i+1], indices[i+2]
		p0, p1, p2 := positions[v0], positions[v1], positions[v2]
		vec1 := [3]float32{p1[0] - p0[0], p1[1] - p0[1], p1[2] - p0[2]}
		vec2 := [3]float32{p2[0] - p0[0], p2[1] - p0[1], p2[2] - p0[2]}
		cross := [3]float32{
			vec1[1]*vec2[2] - vec1[2]*vec2[1],
			vec1[2]*vec2[0] - vec1[0]*vec2[2],
			vec1[0]*vec2[1] - vec1[1]*vec2[0],
		}
		length := float32(math.Sqrt(float64(cross[0]*cross[0] + cross[1]*cross[1] + cross[2]*cross[2])))
		if length > 0 {
			cross[0] /= length
			cross[1] /= length
			cross[2] /= length
		}
		normals[v0] = cross
		normals[v1] = cross
		normals[v2] = cross
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = "QuadStack -> GLB"

	prim := &gltf.Primitive{
		Indices: gltf.Index(modeler.WriteIndices(doc, indices)),
	}
	setAttributes(&prim.Attributes,
		modeler.WritePosition(doc, positions),
		modeler.WriteNormal(doc, normals),
		modeler.WriteColor(doc, colors),
	)

	pbr := &gltf.PBRMetallicRoughness{
		BaseColorFactor: &[4]float64{1, 1, 1, 1},
		MetallicFactor:  gltf.Float(0),
		RoughnessFactor: gltf.Float(1),
	}
	material := &gltf.Material{PBRMetallicRoughness: pbr, AlphaMode: gltf.AlphaOpaque}
	if hasAlpha {
		material.AlphaMode = gltf.AlphaBlend
	}
	doc.Materials = []*gltf.Material{material}
	prim.Material = gltf.Index(0)

	doc.Meshes = []*gltf.Mesh{{Name: "Terrain", Primitives: []*gltf.Primitive{prim}}}
	doc.Nodes = []*gltf.Node{{Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)
	return doc, nil
}

// setAttributes fills the primitive attributes with the accessor indices
// returned by the modeler.
func setAttributes[A ~map[string]I, I ~int | ~uint32](dst *A, position, normal, color I) {
	*dst = A{
		gltf.POSITION: position,
		gltf.NORMAL:   normal,
		gltf.COLOR_0:  color,
	}
}

// WriteGLB encodes m as binary glTF.
func WriteGLB(w io.Writer, m *Mesh) error {
	doc, err := Document(m)
	if err != nil {
		return err
	}
	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	return enc.Encode(doc)
}

// SaveGLB writes m as binary glTF to path.
func SaveGLB(path string, m *Mesh) error {
	doc, err := Document(m)
	if err != nil {
		return err
	}
	return gltf.SaveBinary(doc, path)
}
