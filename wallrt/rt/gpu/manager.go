package gpu

import (
	"fmt"
	"image"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/primerar/primer/wallrt/rt/core"
	"golang.org/x/image/draw"
)

const (
	HeadroomNodes = 64 * core.NodeDataSize
	HeadroomMesh  = 4 * 1024
)

// GpuBufferManager owns the per-frame buffers: node records, the wall blend
// uniform and the overlay mesh.
type GpuBufferManager struct {
	Device *wgpu.Device

	NodesBuf      *wgpu.Buffer
	WallBlendBuf  *wgpu.Buffer
	BackgroundBuf *wgpu.Buffer
	VertexBuf     *wgpu.Buffer
	IndexBuf      *wgpu.Buffer

	NodeCount  uint32
	IndexCount uint32
	// HasOverlay is false when the last frame had no wall blend record.
	HasOverlay bool

	meshSegX, meshSegY int
}

func NewGpuBufferManager(device *wgpu.Device) *GpuBufferManager {
	return &GpuBufferManager{Device: device}
}

// ensureBuffer grows buf to fit data plus headroom and writes data. It reports
// whether the buffer was recreated, in which case bind groups referencing it
// are stale.
func (m *GpuBufferManager) ensureBuffer(name string, buf **wgpu.Buffer, data []byte, usage wgpu.BufferUsage, headroom int) bool {
	neededSize := uint64(len(data) + headroom)
	if neededSize%4 != 0 {
		neededSize += 4 - (neededSize % 4)
	}
	if neededSize == 0 {
		neededSize = 4
	}

	current := *buf
	if current == nil || current.GetSize() < neededSize {
		if current != nil {
			current.Release()
		}

		newBuf, err := m.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            name,
			Size:             neededSize,
			Usage:            usage | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			panic(err)
		}
		*buf = newBuf

		if len(data) > 0 {
			m.Device.GetQueue().WriteBuffer(*buf, 0, data)
		}
		return true
	}

	if len(data) > 0 {
		m.Device.GetQueue().WriteBuffer(current, 0, data)
	}
	return false
}

// UpdateNodes uploads the frame's node records into the storage buffer.
func (m *GpuBufferManager) UpdateNodes(nodes []core.NodeData) bool {
	m.NodeCount = uint32(len(nodes))
	return m.ensureBuffer("NodeData", &m.NodesBuf, core.MarshalNodeData(nodes), wgpu.BufferUsageStorage, HeadroomNodes)
}

// UpdateWallBlend uploads the overlay record and, when the subdivision
// changed, its mesh. A nil blend hides the overlay and keeps the old buffers.
func (m *GpuBufferManager) UpdateWallBlend(blend *core.WallBlend) bool {
	if blend == nil {
		m.HasOverlay = false
		return false
	}
	m.HasOverlay = true
	recreated := m.ensureBuffer("WallBlendData", &m.WallBlendBuf, blend.Data.Marshal(), wgpu.BufferUsageUniform, 0)

	mesh := blend.Mesh
	if m.VertexBuf == nil || mesh.SegmentsX != m.meshSegX || mesh.SegmentsY != m.meshSegY {
		m.UpdateMesh(mesh)
	}
	return recreated
}

func (m *GpuBufferManager) UpdateMesh(mesh core.Mesh) {
	m.ensureBuffer("WallBlendVertices", &m.VertexBuf, core.MarshalVertices(mesh.Vertices), wgpu.BufferUsageVertex, HeadroomMesh)
	m.ensureBuffer("WallBlendIndices", &m.IndexBuf, core.MarshalIndices(mesh.Indices), wgpu.BufferUsageIndex, HeadroomMesh)
	m.IndexCount = uint32(len(mesh.Indices))
	m.meshSegX, m.meshSegY = mesh.SegmentsX, mesh.SegmentsY
}

// UpdateBackground uploads the display mapping used by the camera pass.
func (m *GpuBufferManager) UpdateBackground(viewToCamera mgl32.Mat3) bool {
	return m.ensureBuffer("BackgroundParams", &m.BackgroundBuf, core.MarshalMat3(viewToCamera), wgpu.BufferUsageUniform, 0)
}

// Texture is an uploaded image.
type Texture struct {
	Texture *wgpu.Texture
	View    *wgpu.TextureView
	Width   uint32
	Height  uint32
}

func (t *Texture) Release() {
	if t == nil {
		return
	}
	if t.View != nil {
		t.View.Release()
	}
	if t.Texture != nil {
		t.Texture.Release()
	}
}

// UploadImage creates an RGBA8 texture holding img. When tex already has the
// same size it is rewritten in place.
func (m *GpuBufferManager) UploadImage(label string, img image.Image, tex *Texture) (*Texture, error) {
	pixels := RGBAPixels(img)
	w, h := uint32(pixels.Rect.Dx()), uint32(pixels.Rect.Dy())
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%s: empty image", label)
	}
	extent := wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}

	if tex == nil || tex.Width != w || tex.Height != h {
		tex.Release()
		t, err := m.Device.CreateTexture(&wgpu.TextureDescriptor{
			Label:         label,
			Size:          extent,
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     wgpu.TextureDimension2D,
			Format:        wgpu.TextureFormatRGBA8Unorm,
			Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		})
		if err != nil {
			return nil, err
		}
		view, err := t.CreateView(nil)
		if err != nil {
			t.Release()
			return nil, err
		}
		tex = &Texture{Texture: t, View: view, Width: w, Height: h}
	}

	err := m.Device.GetQueue().WriteTexture(tex.Texture.AsImageCopy(), pixels.Pix, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(pixels.Stride),
		RowsPerImage: h,
	}, &extent)
	if err != nil {
		return nil, err
	}
	return tex, nil
}

// RGBAPixels returns img as a tightly packed, zero-origin RGBA image.
func RGBAPixels(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == 4*b.Dx() {
		return rgba
	}
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Rect, img, b.Min, draw.Src)
	return out
}

func (m *GpuBufferManager) Release() {
	for _, buf := range []*wgpu.Buffer{m.NodesBuf, m.WallBlendBuf, m.BackgroundBuf, m.VertexBuf, m.IndexBuf} {
		if buf != nil {
			buf.Release()
		}
	}
}
