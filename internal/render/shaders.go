package render

import (
	"embed"

	"voxelshade/internal/gpu"
)

//go:embed shaders
var shaderFS embed.FS

func mustShader(name string) string {
	b, err := shaderFS.ReadFile("shaders/" + name)
	if err != nil {
		panic("render: missing embedded shader " + name)
	}
	return string(b)
}

// Program sources of the four passes.
var (
	DepthProgram = gpu.ProgramSource{
		Name:     "depth",
		Vertex:   mustShader("block.vert"),
		Fragment: mustShader("depth.frag"),
	}
	FaceVisibilityProgram = gpu.ProgramSource{
		Name:     "facevis",
		Vertex:   mustShader("block.vert"),
		Fragment: mustShader("facevis.frag"),
	}
	LightingProgram = gpu.ProgramSource{
		Name:    "raytrace",
		Compute: mustShader("raytrace.comp"),
	}
	ColorProgram = gpu.ProgramSource{
		Name:     "color",
		Vertex:   mustShader("block.vert"),
		Fragment: mustShader("color.frag"),
	}
)
