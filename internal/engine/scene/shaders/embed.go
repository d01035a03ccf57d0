// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// ObjectVertexShader transforms material group vertices to clip space.
//
//go:embed object.vert
var ObjectVertexShader string

// ObjectFragmentShader shades material groups with one directional light.
//
//go:embed object.frag
var ObjectFragmentShader string
