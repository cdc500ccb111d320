package glgpu

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"voxelshade/internal/gpu"
)

type program struct {
	id        uint32
	name      string
	compute   bool
	locations map[string]int32
}

func (p *program) Release() {
	if p.id != 0 {
		gl.DeleteProgram(p.id)
		p.id = 0
	}
}

func (p *program) location(name string) int32 {
	if loc, ok := p.locations[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(p.id, gl.Str(name+"\x00"))
	p.locations[name] = loc
	return loc
}

func (d *Device) CreateProgram(src gpu.ProgramSource) (gpu.Program, error) {
	var stages []uint32
	defer func() {
		for _, s := range stages {
			gl.DeleteShader(s)
		}
	}()

	add := func(source string, kind uint32) error {
		s, err := compileShader(source, kind)
		if err != nil {
			return fmt.Errorf("%w: program %q: %v", gpu.ErrResource, src.Name, err)
		}
		stages = append(stages, s)
		return nil
	}
	if src.Compute != "" {
		if err := add(src.Compute, gl.COMPUTE_SHADER); err != nil {
			return nil, err
		}
	} else {
		if err := add(src.Vertex, gl.VERTEX_SHADER); err != nil {
			return nil, err
		}
		if err := add(src.Fragment, gl.FRAGMENT_SHADER); err != nil {
			return nil, err
		}
	}

	id, err := linkProgram(stages)
	if err != nil {
		return nil, fmt.Errorf("%w: program %q: %v", gpu.ErrResource, src.Name, err)
	}
	return &program{
		id:        id,
		name:      src.Name,
		compute:   src.Compute != "",
		locations: make(map[string]int32),
	}, d.check("create program " + src.Name)
}

func linkProgram(stages []uint32) (uint32, error) {
	prog := gl.CreateProgram()
	for _, s := range stages {
		gl.AttachShader(prog, s)
	}
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(prog, logLength, nil, gl.Str(log))
		gl.DeleteProgram(prog)

		return 0, fmt.Errorf("failed to link program: %v", strings.TrimRight(log, "\x00"))
	}
	for _, s := range stages {
		gl.DetachShader(prog, s)
	}
	return prog, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)

		return 0, fmt.Errorf("failed to compile shader: %v", strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

// setUniforms uploads values to the bound program. Names the linker
// optimized away are skipped.
func (p *program) setUniforms(u gpu.Uniforms) error {
	for name, v := range u {
		loc := p.location(name)
		if loc < 0 {
			continue
		}
		switch v := v.(type) {
		case float32:
			gl.Uniform1f(loc, v)
		case int32:
			gl.Uniform1i(loc, v)
		case uint32:
			gl.Uniform1ui(loc, v)
		case mgl32.Vec2:
			gl.Uniform2fv(loc, 1, &v[0])
		case mgl32.Vec3:
			gl.Uniform3fv(loc, 1, &v[0])
		case mgl32.Vec4:
			gl.Uniform4fv(loc, 1, &v[0])
		case [3]int32:
			gl.Uniform3iv(loc, 1, &v[0])
		case mgl32.Mat4:
			gl.UniformMatrix4fv(loc, 1, false, &v[0])
		default:
			return fmt.Errorf("program %q: uniform %q has unsupported type %T", p.name, name, v)
		}
	}
	return nil
}
