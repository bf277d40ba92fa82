package shader

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Declaration is a single `@group(g) @binding(b) var<space, access> name: type;` resource.
type Declaration struct {
	Group   int
	Binding int
	// AddressSpace is "uniform", "storage", or empty for handle types such as textures.
	AddressSpace string
	// Access is "read" or "read_write" for buffers. Storage defaults to "read" as in WGSL.
	Access string
	Name   string
	Type   string
}

// Writable reports whether the declaration is a read_write storage buffer.
func (d Declaration) Writable() bool {
	return d.AddressSpace == "storage" && d.Access == "read_write"
}

func (d Declaration) String() string {
	space := d.AddressSpace
	if d.Access != "" && d.AddressSpace == "storage" {
		space += ", " + d.Access
	}
	return fmt.Sprintf("@group(%d) @binding(%d) var<%s> %s: %s", d.Group, d.Binding, space, d.Name, d.Type)
}

var (
	// vertexEntryRegex matches @vertex functions and captures the entry point name
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)

	// fragmentEntryRegex matches @fragment functions and captures the entry point name
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// computeEntryRegex matches @compute functions and captures the entry point name
	computeEntryRegex = regexp.MustCompile(`(?s)@compute\b.*?\bfn\s+(\w+)`)

	// workgroupSizeRegex captures 1-3 integer dimensions from @workgroup_size(x[, y[, z]])
	workgroupSizeRegex = regexp.MustCompile(`@workgroup_size\(\s*(\d+)\s*(?:,\s*(\d+)\s*(?:,\s*(\d+)\s*)?)?\)`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(0) @binding(0) var<uniform> transform: Transform;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseEntryPoint extracts the entry point function name for the given stage.
// Returns an empty string if no matching entry point annotation is found.
func parseEntryPoint(source string, stage Stage) string {
	cleaned := stripComments(source)

	var re *regexp.Regexp
	switch stage {
	case StageVertex:
		re = vertexEntryRegex
	case StageFragment:
		re = fragmentEntryRegex
	case StageCompute:
		re = computeEntryRegex
	default:
		return ""
	}

	if match := re.FindStringSubmatch(cleaned); match != nil {
		return match[1]
	}
	return ""
}

// parseWorkgroupSize extracts the @workgroup_size(x, y, z) dimensions from WGSL source.
// Omitted dimensions default to 1 as in WGSL.
// Returns [1, 1, 1] if no @workgroup_size annotation is found.
func parseWorkgroupSize(source string) [3]uint32 {
	result := [3]uint32{1, 1, 1}
	match := workgroupSizeRegex.FindStringSubmatch(stripComments(source))
	if match == nil {
		return result
	}
	for i := 0; i < 3; i++ {
		if match[i+1] == "" {
			continue
		}
		if v, err := strconv.ParseUint(match[i+1], 10, 32); err == nil {
			result[i] = uint32(v)
		}
	}
	return result
}

// parseDeclarations extracts every @group/@binding declaration, sorted by group then binding.
// A group/binding pair declared twice is an error.
func parseDeclarations(source string) ([]Declaration, error) {
	matches := bindGroupDeclRegex.FindAllStringSubmatch(stripComments(source), -1)
	decls := make([]Declaration, 0, len(matches))
	seen := make(map[[2]int]string, len(matches))

	for _, match := range matches {
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		d := Declaration{
			Group:   group,
			Binding: binding,
			Name:    strings.TrimSpace(match[4]),
			Type:    strings.TrimSpace(match[5]),
		}

		if space := strings.TrimSpace(match[3]); space != "" {
			parts := strings.Split(space, ",")
			d.AddressSpace = strings.TrimSpace(parts[0])
			if len(parts) > 1 {
				d.Access = strings.TrimSpace(parts[1])
			}
		}
		if d.Access == "" && (d.AddressSpace == "storage" || d.AddressSpace == "uniform") {
			d.Access = "read"
		}

		key := [2]int{group, binding}
		if prev, dup := seen[key]; dup {
			return nil, fmt.Errorf("@group(%d) @binding(%d) declared twice (%s and %s)", group, binding, prev, d.Name)
		}
		seen[key] = d.Name
		decls = append(decls, d)
	}

	sort.Slice(decls, func(i, j int) bool {
		if decls[i].Group != decls[j].Group {
			return decls[i].Group < decls[j].Group
		}
		return decls[i].Binding < decls[j].Binding
	})
	return decls, nil
}

// stripComments removes both // and /* */ comments from WGSL source.
func stripComments(source string) string {
	return stripLineComments(stripBlockComments(source))
}

// stripLineComments removes single-line // comments from WGSL source.
func stripLineComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	for line := range strings.SplitSeq(source, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// stripBlockComments removes block comments, which nest in WGSL.
func stripBlockComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		if i+1 < len(source) {
			switch {
			case source[i] == '/' && source[i+1] == '*':
				depth++
				i++
				continue
			case source[i] == '*' && source[i+1] == '/' && depth > 0:
				depth--
				i++
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		} else if source[i] == '\n' {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
