// Package scenefile loads JSON scene descriptions for the draw tools.
//
// A scene may name a parent scene. Missing parts are taken from the
// parent: the camera, the objects and the layers when the child has none,
// and every material or alias the child does not define itself.
package scenefile

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
)

// maxAliasDepth bounds alias chains so a cycle cannot loop forever.
const maxAliasDepth = 10

type Loader struct {
	root    string
	cache   map[string]*Scene
	loading map[string]bool
}

func NewLoader(root string) *Loader {
	return &Loader{
		root:    root,
		cache:   make(map[string]*Scene),
		loading: make(map[string]bool),
	}
}

// Load reads a scene file by path, resolving parents next to it.
func Load(path string) (*Scene, error) {
	l := NewLoader(filepath.Dir(path))
	return l.LoadScene(strings.TrimSuffix(filepath.Base(path), ".json"))
}

// LoadScene loads root/name.json. Scenes are cached by name and must not
// be modified by callers.
func (l *Loader) LoadScene(name string) (*Scene, error) {
	name = strings.TrimSuffix(name, ".json")
	if s, ok := l.cache[name]; ok {
		return s, nil
	}
	if l.loading[name] {
		return nil, fmt.Errorf("scene %q inherits from itself", name)
	}
	l.loading[name] = true
	defer delete(l.loading, name)

	path := filepath.Join(l.root, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read scene file: %w", err)
	}

	var scene Scene
	if err := json.Unmarshal(data, &scene); err != nil {
		return nil, fmt.Errorf("could not unmarshal scene %q: %w", name, err)
	}

	if scene.Parent != "" {
		parent, err := l.LoadScene(scene.Parent)
		if err != nil {
			return nil, fmt.Errorf("could not load parent scene '%s': %w", scene.Parent, err)
		}
		inherit(&scene, parent)
	}

	if err := scene.validate(); err != nil {
		return nil, fmt.Errorf("scene %q: %w", name, err)
	}
	l.cache[name] = &scene
	return &scene, nil
}

// inherit fills s from parent without sharing mutable state with it.
func inherit(s, parent *Scene) {
	if s.Camera == nil && parent.Camera != nil {
		c := *parent.Camera
		s.Camera = &c
	}
	if len(s.Objects) == 0 {
		s.Objects = append([]Object(nil), parent.Objects...)
	}
	if len(s.Layers) == 0 {
		s.Layers = append([]Layer(nil), parent.Layers...)
	}

	materials := maps.Clone(parent.Materials)
	if materials == nil {
		materials = make(map[string]*Material)
	}
	maps.Copy(materials, s.Materials)
	s.Materials = materials

	aliases := maps.Clone(parent.Aliases)
	if aliases == nil {
		aliases = make(map[string]string)
	}
	maps.Copy(aliases, s.Aliases)
	s.Aliases = aliases
}

func (s *Scene) validate() error {
	for i := range s.Objects {
		o := &s.Objects[i]
		if _, err := s.ResolveMaterial(o.Material); err != nil {
			return fmt.Errorf("object %q: %w", o.Name, err)
		}
		if _, err := ParseColor(o.Color); err != nil {
			return fmt.Errorf("object %q: %w", o.Name, err)
		}
	}
	for name, m := range s.Materials {
		if _, err := m.RGBA(); err != nil {
			return fmt.Errorf("material %q: %w", name, err)
		}
	}
	return nil
}

// ResolveName follows # alias references. Unresolved references are
// returned as they are.
func (s *Scene) ResolveName(name string) string {
	for i := 0; i < maxAliasDepth && strings.HasPrefix(name, "#"); i++ {
		key := strings.TrimPrefix(name, "#")
		resolved, ok := s.Aliases[key]
		if !ok {
			break
		}
		name = resolved
	}
	return name
}

// ResolveMaterial returns the material an object names, following
// aliases.
func (s *Scene) ResolveMaterial(name string) (*Material, error) {
	resolved := s.ResolveName(name)
	if m, ok := s.Materials[resolved]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("unknown material %q", name)
}

// Layer returns the layer named name.
func (s *Scene) Layer(name string) (Layer, bool) {
	for _, l := range s.Layers {
		if l.Name == name {
			return l, true
		}
	}
	return Layer{}, false
}
