package gpu

import (
	"encoding/binary"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/primerar/primer/wallrt/rt/shaders"
)

// CubeEdges is a unit wire cube over [0,1]^3 as a line list.
var CubeEdges = func() [][3]float32 {
	var out [][3]float32
	for a := 0; a < 3; a++ {
		b, c := (a+1)%3, (a+2)%3
		for i := 0; i < 4; i++ {
			var p0, p1 [3]float32
			p0[b], p0[c] = float32(i&1), float32(i>>1)
			p1 = p0
			p1[a] = 1
			out = append(out, p0, p1)
		}
	}
	return out
}()

// NodeBoundsRenderPass draws every resolved node's bounding box, reading
// the transforms straight from the NodeData storage buffer.
type NodeBoundsRenderPass struct {
	Device       *wgpu.Device
	Pipeline     *wgpu.RenderPipeline
	BindGroup    *wgpu.BindGroup
	VertexBuffer *wgpu.Buffer
	VertexCount  uint32
}

func NewNodeBoundsRenderPass(device *wgpu.Device, format wgpu.TextureFormat) (*NodeBoundsRenderPass, error) {
	shaderModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "NodeBoundsShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.NodeBoundsWGSL},
	})
	if err != nil {
		return nil, err
	}

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "NodeBoundsPipeline",
		Vertex: wgpu.VertexState{
			Module:     shaderModule,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: 12,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{
							Format:         wgpu.VertexFormatFloat32x3,
							Offset:         0,
							ShaderLocation: 0,
						},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shaderModule,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyLineList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, err
	}

	data := make([]byte, len(CubeEdges)*12)
	for i, v := range CubeEdges {
		for j := 0; j < 3; j++ {
			binary.LittleEndian.PutUint32(data[i*12+j*4:], math.Float32bits(v[j]))
		}
	}
	vb, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "NodeBoundsVertexBuffer",
		Contents: data,
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return nil, err
	}

	return &NodeBoundsRenderPass{
		Device:       device,
		Pipeline:     pipeline,
		VertexBuffer: vb,
		VertexCount:  uint32(len(CubeEdges)),
	}, nil
}

// CreateBindGroup binds the node storage buffer. Call it again whenever
// UpdateNodes reports the buffer was recreated.
func (p *NodeBoundsRenderPass) CreateBindGroup(m *GpuBufferManager) error {
	bg, err := p.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "NodeBoundsBG",
		Layout: p.Pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: m.NodesBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return err
	}
	p.BindGroup = bg
	return nil
}

func (p *NodeBoundsRenderPass) Draw(pass *wgpu.RenderPassEncoder, m *GpuBufferManager) {
	if p.BindGroup == nil || m.NodeCount == 0 {
		return
	}
	pass.SetPipeline(p.Pipeline)
	pass.SetBindGroup(0, p.BindGroup, nil)
	pass.SetVertexBuffer(0, p.VertexBuffer, 0, wgpu.WholeSize)
	pass.Draw(p.VertexCount, m.NodeCount, 0, 0)
}
