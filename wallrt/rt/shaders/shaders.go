package shaders

import (
	_ "embed"
)

//go:embed camera_background.wgsl
var CameraBackgroundWGSL string

//go:embed wall_blend.wgsl
var WallBlendWGSL string

//go:embed node_bounds.wgsl
var NodeBoundsWGSL string
