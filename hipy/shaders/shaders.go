// Package shaders embeds the WGSL sources for the histogram-pyramid
// passes. The classify and extract templates expect the host to prepend
// a scalar_field / field_gradient definition bound at group 1.
package shaders

import (
	_ "embed"
)

//go:embed base.wgsl
var BaseWGSL string

//go:embed reduce.wgsl
var ReduceWGSL string

//go:embed extract.wgsl
var ExtractWGSL string
