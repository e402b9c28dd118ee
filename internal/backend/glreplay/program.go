package glreplay

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Program is a linked GL program. It satisfies gpu.Shader so shading
// groups can resolve uniform locations against it.
type Program struct {
	ID    uint32
	label string

	locations map[string]int32
	blocks    map[string]int32
}

// NewProgram compiles and links a program from GLSL sources. Uniform
// blocks are given consecutive binding points in declaration order.
func NewProgram(label, vertexSrc, fragmentSrc string) (*Program, error) {
	id, err := compileProgram(vertexSrc, fragmentSrc)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", label, err)
	}
	p := &Program{
		ID:        id,
		label:     label,
		locations: make(map[string]int32),
		blocks:    make(map[string]int32),
	}
	p.assignBlockBindings()
	return p, nil
}

// LoadProgram reads the vertex and fragment sources from disk.
func LoadProgram(label, vertexPath, fragmentPath string) (*Program, error) {
	vertexSource, err := os.ReadFile(vertexPath)
	if err != nil {
		return nil, fmt.Errorf("could not read vertex shader file: %w", err)
	}
	fragmentSource, err := os.ReadFile(fragmentPath)
	if err != nil {
		return nil, fmt.Errorf("could not read fragment shader file: %w", err)
	}
	return NewProgram(label, string(vertexSource), string(fragmentSource))
}

func (p *Program) Label() string { return p.label }

// UniformLocation queries the location once and caches it, misses included.
func (p *Program) UniformLocation(name string) int32 {
	if loc, ok := p.locations[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(p.ID, gl.Str(name+"\x00"))
	p.locations[name] = loc
	return loc
}

func (p *Program) UniformBlockBinding(name string) int32 {
	if b, ok := p.blocks[name]; ok {
		return b
	}
	return -1
}

// Delete releases the GL program.
func (p *Program) Delete() {
	gl.DeleteProgram(p.ID)
	p.ID = 0
}

func (p *Program) assignBlockBindings() {
	var count, maxLen int32
	gl.GetProgramiv(p.ID, gl.ACTIVE_UNIFORM_BLOCKS, &count)
	gl.GetProgramiv(p.ID, gl.ACTIVE_UNIFORM_BLOCK_MAX_NAME_LENGTH, &maxLen)
	for i := uint32(0); i < uint32(count); i++ {
		var n int32
		buf := strings.Repeat("\x00", int(maxLen+1))
		gl.GetActiveUniformBlockName(p.ID, i, maxLen, &n, gl.Str(buf))
		name := buf[:n]
		gl.UniformBlockBinding(p.ID, i, i)
		p.blocks[name] = int32(i)
	}
}

func compileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vertexShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fragmentShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vertexShader)
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)
	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)

		return 0, fmt.Errorf("failed to link program: %v", log)
	}
	return program, nil
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

		return 0, fmt.Errorf("failed to compile shader: %v", log)
	}
	return shader, nil
}
