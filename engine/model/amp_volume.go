package model

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-amp/common"
	"github.com/chewxy/math32"
)

// ErrEmptyVolume is returned when an extent is too small to hold a single amplitude cell.
var ErrEmptyVolume = errors.New("amplitude volume has no cells")

// DefaultCellSize is the edge length of one amplitude cell in model units.
const DefaultCellSize float32 = 10

// AmpHeaderSize is the byte length of the header that precedes the cell values on the GPU.
const AmpHeaderSize = 32

// AmpHeader describes the grid to the shaders. It is laid out as vec4<u32> followed by vec4<f32>.
type AmpHeader struct {
	// Dims is the cell count per axis followed by the total cell count.
	Dims [4]uint32
	// Origin is the model-space corner of cell (0,0,0); the w lane holds the cell size.
	Origin [4]float32
}

// AmpVolume is the host copy of the amplitude field. Cells are stored x-fastest, so cell
// (i, j, k) lives at i + j*dx + k*dx*dy.
type AmpVolume struct {
	Dims     [3]int
	CellSize float32
	Origin   [3]float32
	Values   []float32
}

// NewAmpVolume sizes a volume to floor(extent/cellSize) cells per axis and fills every cell
// with initial.
//
// Parameters:
//   - extent: the mesh bounding box
//   - cellSize: the cell edge length, DefaultCellSize when zero
//   - initial: the starting value of every cell
//
// Returns:
//   - *AmpVolume: the allocated volume
//   - error: ErrEmptyVolume if any axis holds fewer than one cell
func NewAmpVolume(extent common.ModelExtent, cellSize, initial float32) (*AmpVolume, error) {
	cellSize = common.Coalesce(cellSize, DefaultCellSize)
	if cellSize < 0 {
		return nil, fmt.Errorf("amplitude cell size must be positive, got %v", cellSize)
	}

	v := &AmpVolume{CellSize: cellSize, Origin: extent.Min}
	size := extent.Size()
	for axis := 0; axis < 3; axis++ {
		v.Dims[axis] = int(math32.Floor(size[axis] / cellSize))
		if v.Dims[axis] < 1 {
			return nil, fmt.Errorf("%w: axis %d spans %v with cell size %v", ErrEmptyVolume, axis, size[axis], cellSize)
		}
	}

	v.Values = make([]float32, v.Len())
	for i := range v.Values {
		v.Values[i] = initial
	}
	return v, nil
}

// Len returns the number of cells.
func (v *AmpVolume) Len() int {
	return v.Dims[0] * v.Dims[1] * v.Dims[2]
}

// Index flattens cell coordinates.
func (v *AmpVolume) Index(i, j, k int) int {
	return i + j*v.Dims[0] + k*v.Dims[0]*v.Dims[1]
}

// At returns the value of cell (i, j, k).
func (v *AmpVolume) At(i, j, k int) float32 {
	return v.Values[v.Index(i, j, k)]
}

// CellCenter returns the model-space center of cell (i, j, k).
func (v *AmpVolume) CellCenter(i, j, k int) [3]float32 {
	return [3]float32{
		v.Origin[0] + (float32(i)+0.5)*v.CellSize,
		v.Origin[1] + (float32(j)+0.5)*v.CellSize,
		v.Origin[2] + (float32(k)+0.5)*v.CellSize,
	}
}

// Header returns the grid description uploaded ahead of the cell values.
func (v *AmpVolume) Header() AmpHeader {
	return AmpHeader{
		Dims:   [4]uint32{uint32(v.Dims[0]), uint32(v.Dims[1]), uint32(v.Dims[2]), uint32(v.Len())},
		Origin: [4]float32{v.Origin[0], v.Origin[1], v.Origin[2], v.CellSize},
	}
}

// Bytes serializes the header and cell values into the GPU buffer layout.
func (v *AmpVolume) Bytes() []byte {
	h := v.Header()
	out := make([]byte, 0, AmpHeaderSize+4*len(v.Values))
	out = append(out, common.StructToBytes(&h)...)
	return append(out, common.SliceToBytes(v.Values)...)
}

// DecodeAmpValues extracts the cell values from a buffer laid out by Bytes.
//
// Parameters:
//   - data: the raw buffer contents
//
// Returns:
//   - AmpHeader: the decoded header
//   - []float32: the cell values
//   - error: an error if the buffer is shorter than the header
func DecodeAmpValues(data []byte) (AmpHeader, []float32, error) {
	if len(data) < AmpHeaderSize {
		return AmpHeader{}, nil, fmt.Errorf("amplitude buffer is %d bytes, shorter than its %d byte header", len(data), AmpHeaderSize)
	}
	headers := common.BytesToSlice[AmpHeader](data[:AmpHeaderSize])
	return headers[0], common.BytesToSlice[float32](data[AmpHeaderSize:]), nil
}

// AmpReport summarizes a comparison between the host volume and a device readback.
type AmpReport struct {
	Cells          int
	Mismatches     int
	FirstMismatch  int
	HeaderMismatch bool
	Min            float32
	Max            float32
	// Irregular counts values outside [0, 1], which includes cells that were never computed.
	Irregular int
}

// OK reports whether the readback matched the host copy exactly.
func (r AmpReport) OK() bool {
	return r.Mismatches == 0 && !r.HeaderMismatch
}

// Compare checks a device readback against the host copy with exact equality.
//
// Parameters:
//   - header: the header read back from the device
//   - device: the cell values read back from the device
//
// Returns:
//   - AmpReport: the comparison summary
func (v *AmpVolume) Compare(header AmpHeader, device []float32) AmpReport {
	r := AmpReport{
		Cells:          v.Len(),
		FirstMismatch:  -1,
		HeaderMismatch: header != v.Header(),
		Min:            math32.Inf(1),
		Max:            math32.Inf(-1),
	}
	if len(device) != len(v.Values) {
		r.Mismatches = abs(len(device) - len(v.Values))
	}
	for i, got := range device {
		r.Min = min(r.Min, got)
		r.Max = max(r.Max, got)
		if got < 0 || got > 1 {
			r.Irregular++
		}
		if i < len(v.Values) && got != v.Values[i] {
			r.Mismatches++
			if r.FirstMismatch < 0 {
				r.FirstMismatch = i
			}
		}
	}
	return r
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
