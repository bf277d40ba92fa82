package shader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNoEntryPoint is returned when a source has no entry point for the requested stage.
var ErrNoEntryPoint = errors.New("no entry point for shader stage")

// Stage identifies the pipeline stage a shader runs in.
type Stage int

const (
	// StageCompute indicates a shader containing a @compute entry point.
	StageCompute Stage = iota

	// StageVertex is the vertex stage of the graphics pipeline.
	StageVertex

	// StageFragment is the fragment stage of the graphics pipeline.
	StageFragment
)

func (s Stage) String() string {
	switch s {
	case StageCompute:
		return "compute"
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// suffix is the file name suffix LoadSet uses for the stage.
func (s Stage) suffix() string {
	switch s {
	case StageVertex:
		return "_vert.wgsl"
	case StageFragment:
		return "_frag.wgsl"
	default:
		return "_comp.wgsl"
	}
}

// Visibility returns the wgpu stage flag for s.
func (s Stage) Visibility() wgpu.ShaderStage {
	switch s {
	case StageVertex:
		return wgpu.ShaderStageVertex
	case StageFragment:
		return wgpu.ShaderStageFragment
	case StageCompute:
		return wgpu.ShaderStageCompute
	default:
		return 0
	}
}

// shader is the implementation of the Shader interface.
type shader struct {
	key           string
	source        string
	stage         Stage
	entryPoint    string
	workGroupSize [3]uint32
	declarations  []Declaration
	module        *wgpu.ShaderModuleDescriptor
}

// Shader is a parsed WGSL stage: one entry point plus the resource declarations it binds.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used as the module label.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// Stage returns the pipeline stage of the shader.
	Stage() Stage

	// EntryPoint returns the entry point name for this shader.
	//
	// Returns:
	//   - string: the entry point name (e.g. "main")
	EntryPoint() string

	// WorkgroupSize returns the workgroup size dimensions for compute shaders.
	// Returns [0, 0, 0] for other stages and [1, 1, 1] as the default when
	// @workgroup_size is not specified.
	//
	// Returns:
	//   - [3]uint32: the workgroup size as [x, y, z]
	WorkgroupSize() [3]uint32

	// Declarations returns every @group/@binding resource declared by the source, ordered by
	// group then binding.
	Declarations() []Declaration

	// Module returns the descriptor used to create the device shader module.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the shader module descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// Parse builds a Shader from WGSL source.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - stage: the stage whose entry point is used
//   - source: the WGSL source
//
// Returns:
//   - Shader: the parsed shader
//   - error: ErrNoEntryPoint when the stage has no entry point, or a declaration parse error
func Parse(key string, stage Stage, source string) (Shader, error) {
	s := &shader{
		key:    key,
		source: source,
		stage:  stage,
		module: &wgpu.ShaderModuleDescriptor{
			Label: key,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
				Code: source,
			},
		},
	}

	s.entryPoint = parseEntryPoint(source, stage)
	if s.entryPoint == "" {
		return nil, fmt.Errorf("shader %s: %w %s", key, ErrNoEntryPoint, stage)
	}
	if stage == StageCompute {
		s.workGroupSize = parseWorkgroupSize(source)
	}

	var err error
	s.declarations, err = parseDeclarations(source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	return s, nil
}

// Load reads and parses a WGSL file.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - stage: the stage whose entry point is used
//   - path: the file path to read WGSL source from
//
// Returns:
//   - Shader: the parsed shader
//   - error: an error if the file cannot be read or parsed
func Load(key string, stage Stage, path string) (Shader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s shader %q: %w", stage, path, err)
	}
	return Parse(key, stage, string(data))
}

// Set holds the three stages used by the renderer.
type Set struct {
	Vertex   Shader
	Fragment Shader
	Compute  Shader
}

// LoadSet loads <dir>/<name>_vert.wgsl, <dir>/<name>_frag.wgsl and <dir>/<name>_comp.wgsl.
//
// Parameters:
//   - dir: the shader directory
//   - name: the shared file name prefix
//
// Returns:
//   - *Set: the loaded stages
//   - error: the first stage that failed to load
func LoadSet(dir, name string) (*Set, error) {
	set := &Set{}
	targets := []struct {
		stage Stage
		dst   *Shader
	}{
		{StageVertex, &set.Vertex},
		{StageFragment, &set.Fragment},
		{StageCompute, &set.Compute},
	}
	for _, t := range targets {
		s, err := Load(name+"."+t.stage.String(), t.stage, filepath.Join(dir, name+t.stage.suffix()))
		if err != nil {
			return nil, err
		}
		*t.dst = s
	}
	return set, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) Stage() Stage {
	return s.stage
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.workGroupSize
}

func (s *shader) Declarations() []Declaration {
	return s.declarations
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}
