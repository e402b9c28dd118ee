package gpu

// Shader is a linked program. The draw layer only asks it where things are.
type Shader interface {
	Label() string
	// UniformLocation returns the location of a uniform, or -1 when the
	// program does not use it.
	UniformLocation(name string) int32
	// UniformBlockBinding returns the binding point of a uniform block, or
	// -1 when the program does not declare it.
	UniformBlockBinding(name string) int32
}

// Program is a Shader described by tables. Headless backends and tests use
// it in place of a compiled program.
type Program struct {
	Name     string
	Uniforms map[string]int32
	Blocks   map[string]int32
}

// NewProgram creates a program exposing the given uniforms at consecutive
// locations starting from 0.
func NewProgram(name string, uniforms ...string) *Program {
	p := &Program{
		Name:     name,
		Uniforms: make(map[string]int32, len(uniforms)),
		Blocks:   make(map[string]int32),
	}
	for i, u := range uniforms {
		p.Uniforms[u] = int32(i)
	}
	return p
}

// WithBlock declares a uniform block at the next free binding point.
func (p *Program) WithBlock(name string) *Program {
	if _, ok := p.Blocks[name]; !ok {
		p.Blocks[name] = int32(len(p.Blocks))
	}
	return p
}

func (p *Program) Label() string { return p.Name }

func (p *Program) UniformLocation(name string) int32 {
	if loc, ok := p.Uniforms[name]; ok {
		return loc
	}
	return -1
}

func (p *Program) UniformBlockBinding(name string) int32 {
	if b, ok := p.Blocks[name]; ok {
		return b
	}
	return -1
}
