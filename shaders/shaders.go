// Package shaders embeds the WGSL sources of the demo's render and
// particle pipelines. The particle animation shader expects the
// scalar_field snippet prepended by the host (group 1).
package shaders

import (
	_ "embed"
)

//go:embed surface.wgsl
var SurfaceWGSL string

//go:embed emit.wgsl
var EmitWGSL string

//go:embed animate.wgsl
var AnimateWGSL string

//go:embed billboard.wgsl
var BillboardWGSL string

//go:embed text.wgsl
var TextWGSL string
