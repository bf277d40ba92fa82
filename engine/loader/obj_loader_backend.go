package loader

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-amp/common"
	"github.com/go-gl/mathgl/mgl32"
)

// facesPerTask is the number of faces assembled by one worker task.
const facesPerTask = 8192

type objLoaderBackend struct {
	flipY   bool
	workers int
}

var _ loaderBackend = &objLoaderBackend{}

func newOBJLoaderBackend(flipY bool, workers int) loaderBackend {
	return &objLoaderBackend{flipY: flipY, workers: workers}
}

// objFace is a parsed face with its indices already resolved to slice offsets.
type objFace struct {
	corners []objCorner
}

type objCorner struct {
	v, n int // n is -1 when the corner has no normal
}

type objParseState struct {
	name      string
	positions []mgl32.Vec3
	normals   []mgl32.Vec3
	faces     []objFace
}

func (b *objLoaderBackend) Extensions() []string {
	return []string{".obj"}
}

func (b *objLoaderBackend) Load(name string, r io.Reader) ([]common.Triangle, error) {
	st := &objParseState{name: name}
	if err := b.parse(st, r); err != nil {
		return nil, err
	}
	return b.assemble(st), nil
}

func (b *objLoaderBackend) parse(st *objParseState, r io.Reader) error {
	lineNum := 0
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return emitError(st.name, lineNum, err)
			}
			if b.flipY {
				v[1] = -v[1]
			}
			st.positions = append(st.positions, v)
		case "vn":
			n, err := parseVec3(lineTokens)
			if err != nil {
				return emitError(st.name, lineNum, err)
			}
			st.normals = append(st.normals, n)
		case "f":
			face, err := parseFace(lineTokens, len(st.positions), len(st.normals))
			if err != nil {
				return emitError(st.name, lineNum, err)
			}
			st.faces = append(st.faces, face)
		default:
			// texture coordinates, groups, smoothing and materials carry nothing the renderer uses
		}
	}
	return scanner.Err()
}

// assemble fans every face into triangles. Faces are split into contiguous chunks that are
// assembled on a worker pool and concatenated in chunk order.
func (b *objLoaderBackend) assemble(st *objParseState) []common.Triangle {
	n := (len(st.faces) + facesPerTask - 1) / facesPerTask
	chunks := make([][]common.Triangle, n)

	if b.workers > 1 && n > 1 {
		pool := worker.NewDynamicWorkerPool(b.workers, n, time.Second)
		defer pool.Stop()

		var wg sync.WaitGroup
		for i := range chunks {
			lo, hi := i*facesPerTask, min((i+1)*facesPerTask, len(st.faces))
			id := i
			wg.Add(1)
			pool.SubmitTask(worker.Task{
				ID: id,
				Do: func() (any, error) {
					defer wg.Done()
					chunks[id] = st.triangulate(st.faces[lo:hi])
					return nil, nil
				},
			})
		}
		wg.Wait()
	} else {
		for i := range chunks {
			chunks[i] = st.triangulate(st.faces[i*facesPerTask : min((i+1)*facesPerTask, len(st.faces))])
		}
	}

	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	out := make([]common.Triangle, 0, total)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

func (st *objParseState) triangulate(faces []objFace) []common.Triangle {
	out := make([]common.Triangle, 0, len(faces))
	for _, f := range faces {
		for i := 1; i+1 < len(f.corners); i++ {
			out = append(out, st.triangle(f.corners[0], f.corners[i], f.corners[i+1]))
		}
	}
	return out
}

func (st *objParseState) triangle(a, b, c objCorner) common.Triangle {
	pa, pb, pc := st.positions[a.v], st.positions[b.v], st.positions[c.v]
	if a.n >= 0 && b.n >= 0 && c.n >= 0 {
		return common.Triangle{
			common.NewVertex(pa, st.normals[a.n]),
			common.NewVertex(pb, st.normals[b.n]),
			common.NewVertex(pc, st.normals[c.n]),
		}
	}

	flat := pb.Sub(pa).Cross(pc.Sub(pa))
	if flat.Len() > 0 {
		flat = flat.Normalize()
	}
	return common.Triangle{
		common.NewVertex(pa, flat),
		common.NewVertex(pb, flat),
		common.NewVertex(pc, flat),
	}
}

// parseFace resolves the corner indices of an "f" record. Corners may be written as v, v/t,
// v//n or v/t/n; every corner of a face must use the same form.
func parseFace(lineTokens []string, positions, normals int) (objFace, error) {
	if len(lineTokens) < 4 {
		return objFace{}, fmt.Errorf("unsupported syntax for 'f'; expected at least 3 arguments; got %d", len(lineTokens)-1)
	}

	face := objFace{corners: make([]objCorner, 0, len(lineTokens)-1)}
	expIndices := 0
	for arg, token := range lineTokens[1:] {
		vTokens := strings.Split(token, "/")
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return objFace{}, fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}
		if len(vTokens) > 3 {
			return objFace{}, fmt.Errorf("face argument %d has %d indices", arg, len(vTokens))
		}
		if vTokens[0] == "" {
			return objFace{}, fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		corner := objCorner{n: -1}
		var err error
		corner.v, err = selectFaceCoordIndex(vTokens[0], positions)
		if err != nil {
			return objFace{}, fmt.Errorf("could not parse vertex coord for face argument %d: %w", arg, err)
		}
		if len(vTokens) == 3 && vTokens[2] != "" {
			corner.n, err = selectFaceCoordIndex(vTokens[2], normals)
			if err != nil {
				return objFace{}, fmt.Errorf("could not parse normal coord for face argument %d: %w", arg, err)
			}
		}
		face.corners = append(face.corners, corner)
	}
	return face, nil
}

// selectFaceCoordIndex converts a 1-based or negative relative OBJ index into a slice offset.
func selectFaceCoordIndex(indexToken string, coordListLen int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	offset := int(index - 1)
	if index < 0 {
		offset = coordListLen + int(index)
	}
	if index == 0 || offset < 0 || offset >= coordListLen {
		return -1, fmt.Errorf("index %d out of bounds for %d coordinates", index, coordListLen)
	}
	return offset, nil
}

func parseVec3(lineTokens []string) (mgl32.Vec3, error) {
	if len(lineTokens) < 4 {
		return mgl32.Vec3{}, fmt.Errorf("unsupported syntax for '%s'; expected 3 arguments; got %d", lineTokens[0], len(lineTokens)-1)
	}

	var v mgl32.Vec3
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}

func emitError(name string, line int, err error) error {
	return fmt.Errorf("%s:%d: %w", name, line, err)
}
