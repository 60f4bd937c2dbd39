package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/primerar/primer/wallrt/rt/core"
	"github.com/primerar/primer/wallrt/rt/shaders"
)

// WallBlendRenderPass draws the camera frame and the swatch overlay on top
// of it.
type WallBlendRenderPass struct {
	Device *wgpu.Device

	BackgroundPipeline *wgpu.RenderPipeline
	OverlayPipeline    *wgpu.RenderPipeline
	BackgroundBG       *wgpu.BindGroup
	OverlayBG          *wgpu.BindGroup

	CameraSampler *wgpu.Sampler
	SwatchSampler *wgpu.Sampler
}

func NewWallBlendRenderPass(device *wgpu.Device, format wgpu.TextureFormat) (*WallBlendRenderPass, error) {
	bgModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "CameraBackgroundShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.CameraBackgroundWGSL},
	})
	if err != nil {
		return nil, err
	}
	blendModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "WallBlendShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.WallBlendWGSL},
	})
	if err != nil {
		return nil, err
	}

	background, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "CameraBackgroundPipeline",
		Vertex: wgpu.VertexState{
			Module:     bgModule,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     bgModule,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, err
	}

	overlay, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "WallBlendPipeline",
		Vertex: wgpu.VertexState{
			Module:     blendModule,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: core.WallBlendVertexSize,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{
							Format:         wgpu.VertexFormatFloat32x3,
							Offset:         core.VertexPositionOffset,
							ShaderLocation: 0,
						},
						{
							Format:         wgpu.VertexFormatFloat32x2,
							Offset:         core.VertexTexcoordOffset,
							ShaderLocation: 1,
						},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     blendModule,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    format,
					WriteMask: wgpu.ColorWriteMaskAll,
					Blend: &wgpu.BlendState{
						Color: wgpu.BlendComponent{
							Operation: wgpu.BlendOperationAdd,
							SrcFactor: wgpu.BlendFactorSrcAlpha,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						},
						Alpha: wgpu.BlendComponent{
							Operation: wgpu.BlendOperationAdd,
							SrcFactor: wgpu.BlendFactorOne,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						},
					},
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
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

	cameraSampler, err := device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, err
	}
	// Swatch textures tile across the overlay.
	swatchSampler, err := device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, err
	}

	return &WallBlendRenderPass{
		Device:             device,
		BackgroundPipeline: background,
		OverlayPipeline:    overlay,
		CameraSampler:      cameraSampler,
		SwatchSampler:      swatchSampler,
	}, nil
}

// CreateBindGroups rebuilds both bind groups. Call it after any of the
// buffers or textures they reference was recreated.
func (p *WallBlendRenderPass) CreateBindGroups(m *GpuBufferManager, camera, swatch *Texture) error {
	var err error
	p.BackgroundBG, err = p.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "CameraBackgroundBG",
		Layout: p.BackgroundPipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: m.BackgroundBuf, Size: wgpu.WholeSize},
			{Binding: 1, TextureView: camera.View},
			{Binding: 2, Sampler: p.CameraSampler},
		},
	})
	if err != nil {
		return err
	}
	if m.WallBlendBuf == nil {
		p.OverlayBG = nil
		return nil
	}

	p.OverlayBG, err = p.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "WallBlendBG",
		Layout: p.OverlayPipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: m.WallBlendBuf, Size: core.WallBlendDataSize},
			{Binding: 1, TextureView: camera.View},
			{Binding: 2, TextureView: swatch.View},
			{Binding: 3, Sampler: p.CameraSampler},
			{Binding: 4, Sampler: p.SwatchSampler},
		},
	})
	return err
}

// Draw records the background and, when the frame has one, the overlay.
func (p *WallBlendRenderPass) Draw(pass *wgpu.RenderPassEncoder, m *GpuBufferManager) {
	if p.BackgroundBG != nil {
		pass.SetPipeline(p.BackgroundPipeline)
		pass.SetBindGroup(0, p.BackgroundBG, nil)
		pass.Draw(3, 1, 0, 0)
	}

	if !m.HasOverlay || p.OverlayBG == nil || m.IndexCount == 0 {
		return
	}
	pass.SetPipeline(p.OverlayPipeline)
	pass.SetBindGroup(0, p.OverlayBG, nil)
	pass.SetVertexBuffer(0, m.VertexBuf, 0, wgpu.WholeSize)
	pass.SetIndexBuffer(m.IndexBuf, wgpu.IndexFormatUint16, 0, wgpu.WholeSize)
	pass.DrawIndexed(m.IndexCount, 1, 0, 0, 0)
}
