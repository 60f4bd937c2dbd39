package core

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Byte sizes of the GPU records. vec3 columns are padded to 16 bytes, which
// is both the Metal simd and the WGSL uniform layout.
const (
	NodeDataSize        = 512
	WallBlendDataSize   = 272
	WallBlendVertexSize = 32
)

// Field offsets within the records.
const (
	NodeModelOffset            = 0
	NodeInverseModelOffset     = 64
	NodeModelViewOffset        = 128
	NodeInverseModelViewOffset = 192
	NodeNormalOffset           = 256
	NodeMVPOffset              = 320
	NodeInverseMVPOffset       = 384
	NodeBoundingBoxOffset      = 448
	NodeWorldBoundingBoxOffset = 480

	BlendViewToCameraOffset = 0
	BlendSwatchWorldOffset  = 48
	BlendTextureOffset      = 112
	BlendMVPOffset          = 176
	BlendColorOffset        = 240
	BlendHasColorOffset     = 256
	BlendPercentOffset      = 260
	BlendLightenOffset      = 264

	VertexPositionOffset = 0
	VertexTexcoordOffset = 16
)

func putF32(buf []byte, off int, v float32) {
	binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
}

func putMat4(buf []byte, off int, m mgl32.Mat4) {
	for i, v := range m {
		putF32(buf, off+i*4, v)
	}
}

// putMat3 writes three vec3 columns, each padded to 16 bytes.
func putMat3(buf []byte, off int, m mgl32.Mat3) {
	for c := 0; c < 3; c++ {
		for r := 0; r < 3; r++ {
			putF32(buf, off+c*16+r*4, m[c*3+r])
		}
	}
}

// putBox writes a box as a 2x3 matrix: Min column then Max column.
func putBox(buf []byte, off int, b Box) {
	for r := 0; r < 3; r++ {
		putF32(buf, off+r*4, b.Min[r])
		putF32(buf, off+16+r*4, b.Max[r])
	}
}

func (d *NodeData) Size() int {
	return NodeDataSize
}

// Marshal serializes the record into its 512-byte GPU layout.
func (d *NodeData) Marshal() []byte {
	buf := make([]byte, NodeDataSize)
	d.marshalTo(buf)
	return buf
}

func (d *NodeData) marshalTo(buf []byte) {
	putMat4(buf, NodeModelOffset, d.ModelTransform)
	putMat4(buf, NodeInverseModelOffset, d.InverseModelTransform)
	putMat4(buf, NodeModelViewOffset, d.ModelViewTransform)
	putMat4(buf, NodeInverseModelViewOffset, d.InverseModelViewTransform)
	putMat4(buf, NodeNormalOffset, d.NormalTransform)
	putMat4(buf, NodeMVPOffset, d.ModelViewProjectionTransform)
	putMat4(buf, NodeInverseMVPOffset, d.InverseModelViewProjectionTransform)
	putBox(buf, NodeBoundingBoxOffset, d.BoundingBox)
	putBox(buf, NodeWorldBoundingBoxOffset, d.WorldBoundingBox)
}

// MarshalNodeData packs records back to back for a storage buffer.
func MarshalNodeData(nodes []NodeData) []byte {
	buf := make([]byte, len(nodes)*NodeDataSize)
	for i := range nodes {
		nodes[i].marshalTo(buf[i*NodeDataSize : (i+1)*NodeDataSize])
	}
	return buf
}

func (d *WallBlendData) Size() int {
	return WallBlendDataSize
}

// Marshal serializes the record into its 272-byte GPU layout. The tail after
// BlendLighten is padding up to the 16-byte struct alignment.
func (d *WallBlendData) Marshal() []byte {
	buf := make([]byte, WallBlendDataSize)
	putMat3(buf, BlendViewToCameraOffset, d.ViewToCamera)
	putMat4(buf, BlendSwatchWorldOffset, d.SwatchWorldTransform)
	putMat4(buf, BlendTextureOffset, d.TextureTransform)
	putMat4(buf, BlendMVPOffset, d.ModelViewProjectionTransform)
	for i := 0; i < 4; i++ {
		putF32(buf, BlendColorOffset+i*4, d.Color[i])
	}
	binary.LittleEndian.PutUint32(buf[BlendHasColorOffset:], d.HasColor)
	putF32(buf, BlendPercentOffset, d.BlendPercent)
	putF32(buf, BlendLightenOffset, d.BlendLighten)
	return buf
}

func (v *WallBlendVertex) Size() int {
	return WallBlendVertexSize
}

func (v *WallBlendVertex) Marshal() []byte {
	buf := make([]byte, WallBlendVertexSize)
	v.marshalTo(buf)
	return buf
}

func (v *WallBlendVertex) marshalTo(buf []byte) {
	for i := 0; i < 3; i++ {
		putF32(buf, VertexPositionOffset+i*4, v.Position[i])
	}
	putF32(buf, VertexTexcoordOffset, v.Texcoord0[0])
	putF32(buf, VertexTexcoordOffset+4, v.Texcoord0[1])
}

// MarshalVertices packs a vertex buffer with a 32-byte stride.
func MarshalVertices(vertices []WallBlendVertex) []byte {
	buf := make([]byte, len(vertices)*WallBlendVertexSize)
	for i := range vertices {
		vertices[i].marshalTo(buf[i*WallBlendVertexSize : (i+1)*WallBlendVertexSize])
	}
	return buf
}

// MarshalIndices packs uint16 indices, padded to a 4-byte multiple as
// buffer writes require.
func MarshalIndices(indices []uint16) []byte {
	n := len(indices) * 2
	buf := make([]byte, (n+3)&^3)
	for i, idx := range indices {
		binary.LittleEndian.PutUint16(buf[i*2:], idx)
	}
	return buf
}

// MarshalMat3 packs a 3x3 matrix in the padded-column uniform layout.
func MarshalMat3(m mgl32.Mat3) []byte {
	buf := make([]byte, 48)
	putMat3(buf, 0, m)
	return buf
}
