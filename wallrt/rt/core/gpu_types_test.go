package core

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f32At(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
}

func TestNodeData_Layout(t *testing.T) {
	nd := NodeData{
		ModelTransform:                      mgl32.Translate3D(1, 2, 3),
		InverseModelTransform:               mgl32.Translate3D(-1, -2, -3),
		ModelViewProjectionTransform:        mgl32.Scale3D(7, 8, 9),
		InverseModelViewProjectionTransform: mgl32.Ident4(),
		BoundingBox:                         Box{Min: mgl32.Vec3{-1, -2, -3}, Max: mgl32.Vec3{4, 5, 6}},
		WorldBoundingBox:                    Box{Min: mgl32.Vec3{10, 11, 12}, Max: mgl32.Vec3{13, 14, 15}},
	}
	buf := nd.Marshal()
	require.Len(t, buf, nd.Size())
	require.Equal(t, 512, NodeDataSize)

	// Column-major: translation is the fourth column.
	assert.Equal(t, float32(1), f32At(buf, NodeModelOffset+48))
	assert.Equal(t, float32(3), f32At(buf, NodeModelOffset+56))
	assert.Equal(t, float32(-2), f32At(buf, NodeInverseModelOffset+52))
	assert.Equal(t, float32(8), f32At(buf, NodeMVPOffset+20))
	assert.Equal(t, float32(1), f32At(buf, NodeInverseMVPOffset+60))

	// Boxes are two vec3 columns padded to 16 bytes.
	assert.Equal(t, float32(-1), f32At(buf, 448))
	assert.Equal(t, float32(-3), f32At(buf, 456))
	assert.Equal(t, float32(0), f32At(buf, 460))
	assert.Equal(t, float32(4), f32At(buf, 464))
	assert.Equal(t, float32(6), f32At(buf, 472))
	assert.Equal(t, float32(10), f32At(buf, 480))
	assert.Equal(t, float32(15), f32At(buf, 504))
	assert.Equal(t, float32(0), f32At(buf, 508))
}

func TestMarshalNodeData(t *testing.T) {
	nodes := []NodeData{
		{ModelTransform: mgl32.Translate3D(1, 0, 0)},
		{ModelTransform: mgl32.Translate3D(2, 0, 0)},
	}
	buf := MarshalNodeData(nodes)
	require.Len(t, buf, 2*NodeDataSize)
	assert.Equal(t, nodes[0].Marshal(), buf[:NodeDataSize])
	assert.Equal(t, float32(2), f32At(buf, NodeDataSize+48))
}

func TestWallBlendData_Layout(t *testing.T) {
	d := WallBlendData{
		ViewToCamera:                 mgl32.Mat3{1, 2, 3, 4, 5, 6, 7, 8, 9},
		SwatchWorldTransform:         mgl32.Translate3D(5, 6, 7),
		TextureTransform:             mgl32.Scale3D(2, 3, 1),
		ModelViewProjectionTransform: mgl32.Ident4(),
		Color:                        mgl32.Vec4{0.1, 0.2, 0.3, 1},
		HasColor:                     1,
		BlendPercent:                 0.75,
		BlendLighten:                 0.3,
	}
	buf := d.Marshal()
	require.Len(t, buf, 272)
	assert.Equal(t, WallBlendDataSize, d.Size())

	// 3x3 columns are padded to 16 bytes.
	assert.Equal(t, float32(3), f32At(buf, 8))
	assert.Equal(t, float32(0), f32At(buf, 12))
	assert.Equal(t, float32(4), f32At(buf, 16))
	assert.Equal(t, float32(9), f32At(buf, 40))

	assert.Equal(t, float32(5), f32At(buf, BlendSwatchWorldOffset+48))
	assert.Equal(t, float32(3), f32At(buf, BlendTextureOffset+20))
	assert.Equal(t, float32(1), f32At(buf, BlendMVPOffset))
	assert.Equal(t, float32(0.1), f32At(buf, 240))
	assert.Equal(t, float32(1), f32At(buf, 252))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[256:260]))
	assert.Equal(t, float32(0.75), f32At(buf, 260))
	assert.Equal(t, float32(0.3), f32At(buf, 264))
	assert.Equal(t, make([]byte, 4), buf[268:272])
}

func TestWallBlendVertex_Layout(t *testing.T) {
	mesh := QuadMesh(1, 1)
	buf := MarshalVertices(mesh.Vertices)
	require.Len(t, buf, 4*WallBlendVertexSize)

	// Second vertex: (-1, 1, 0), uv (0, 0).
	v := buf[WallBlendVertexSize:]
	assert.Equal(t, float32(-1), f32At(v, 0))
	assert.Equal(t, float32(1), f32At(v, 4))
	assert.Equal(t, float32(0), f32At(v, 12))
	assert.Equal(t, float32(0), f32At(v, 16))
	assert.Equal(t, float32(0), f32At(v, 20))

	first := mesh.Vertices[0]
	assert.Equal(t, first.Marshal(), buf[:WallBlendVertexSize])
	assert.Equal(t, float32(1), f32At(buf, VertexTexcoordOffset+4))
}

func TestMarshalIndices(t *testing.T) {
	buf := MarshalIndices([]uint16{0, 1, 2, 1, 2, 3})
	require.Len(t, buf, 12)
	assert.Equal(t, uint16(3), binary.LittleEndian.Uint16(buf[10:]))

	assert.Len(t, MarshalIndices([]uint16{0, 1, 2}), 8)
}

func TestMarshalMat3(t *testing.T) {
	m := mgl32.Mat3{1, 2, 3, 4, 5, 6, 7, 8, 9}
	buf := MarshalMat3(m)
	require.Len(t, buf, 48)
	assert.Equal(t, float32(3), f32At(buf, 8))
	assert.Equal(t, float32(0), f32At(buf, 12))
	assert.Equal(t, float32(4), f32At(buf, 16))
	assert.Equal(t, float32(9), f32At(buf, 40))
}
