package buffer_manager

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-amp/common"
	"github.com/Carmen-Shannon/oxy-amp/engine/model"
	"github.com/Carmen-Shannon/oxy-amp/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-amp/engine/spatial"
	"github.com/Carmen-Shannon/oxy-amp/log"
)

var logger = log.New("buffers")

var (
	// ErrSizeMismatch is returned when data does not match the size of the buffer it targets.
	ErrSizeMismatch = errors.New("buffer size mismatch")

	// ErrEmptyDataset is returned when a dataset has no bytes to upload.
	ErrEmptyDataset = errors.New("dataset is empty")
)

// Dataset names one of the structured buffers the renderer keeps on the device.
type Dataset int

const (
	DatasetVertices Dataset = iota
	DatasetTriangles
	DatasetMidpoints
	DatasetSizes
	DatasetAmplitude
)

func (d Dataset) String() string {
	switch d {
	case DatasetVertices:
		return "vertices"
	case DatasetTriangles:
		return "triangles"
	case DatasetMidpoints:
		return "midpoints"
	case DatasetSizes:
		return "sizes"
	case DatasetAmplitude:
		return "amplitude"
	default:
		return fmt.Sprintf("dataset(%d)", int(d))
	}
}

// Device is the subset of a GPU device the buffer manager needs.
type Device interface {
	// CreateBuffer allocates a buffer, filling it from desc.Contents when set.
	CreateBuffer(desc resource.BufferDescriptor) (resource.Buffer, error)

	// CopyBuffer records a one-shot copy of size bytes from src to dst, submits it and
	// blocks until the device is idle.
	CopyBuffer(src, dst resource.Buffer, size uint64) error

	// WriteBuffer queues a write of data into dst at offset.
	WriteBuffer(dst resource.Buffer, offset uint64, data []byte) error

	// ReadBuffer maps a MapRead buffer, copies out size bytes and unmaps it.
	ReadBuffer(src resource.Buffer, size uint64) ([]byte, error)
}

// Binding is a buffer range bound at binding 0 of a set.
type Binding struct {
	Buffer resource.Buffer
	Offset uint64
	Size   uint64
}

// SceneData is everything uploaded once at startup.
type SceneData struct {
	Mesh  *model.Mesh
	Index *spatial.Index
	Amp   *model.AmpVolume
}

// BufferManager owns every device buffer the renderer binds.
type BufferManager interface {
	// Upload places the vertex stream, the spatial index and the amplitude volume on the device
	// and allocates one transform buffer per frame-in-flight slot.
	//
	// Parameters:
	//   - data: the host datasets
	//
	// Returns:
	//   - error: the first allocation or transfer failure, wrapped with the dataset name
	Upload(data SceneData) error

	// UploadStatic copies data into a new device-local buffer through a transient staging buffer.
	//
	// Parameters:
	//   - ds: the dataset the buffer holds
	//   - data: the bytes to upload, the buffer is sized to exactly len(data)
	//   - usage: the usage flags of the device-local buffer; CopyDst is always added
	//
	// Returns:
	//   - Binding: the binding covering the whole buffer
	//   - error: an error if allocation or the copy fails
	UploadStatic(ds Dataset, data []byte, usage resource.Usage) (Binding, error)

	// Binding returns the binding for an uploaded dataset.
	Binding(ds Dataset) (Binding, bool)

	// TransformBinding returns the transform uniform for a frame slot.
	TransformBinding(slot int) Binding

	// WriteTransform overwrites the transform uniform of a slot. The caller must have waited
	// on the slot's fence.
	WriteTransform(slot int, t *common.Transform) error

	// ValidateAmplitude reads the amplitude buffer back and compares it with the host volume.
	//
	// Parameters:
	//   - host: the authoritative host copy
	//
	// Returns:
	//   - model.AmpReport: the comparison summary
	//   - error: an error if the readback fails or returns the wrong size
	ValidateAmplitude(host *model.AmpVolume) (model.AmpReport, error)

	// FramesInFlight returns the number of transform slots.
	FramesInFlight() int

	// Release frees every buffer in reverse creation order.
	Release()
}

type bufferManager struct {
	device         Device
	arena          *resource.Arena
	framesInFlight int

	bindings   map[Dataset]Binding
	transforms []Binding
}

var _ BufferManager = &bufferManager{}

// NewBufferManager creates a manager that allocates on device.
//
// Parameters:
//   - device: the device to allocate on
//   - framesInFlight: the number of transform slots, at least 1
//
// Returns:
//   - BufferManager: the manager
func NewBufferManager(device Device, framesInFlight int) BufferManager {
	return &bufferManager{
		device:         device,
		arena:          resource.NewArena("buffers"),
		framesInFlight: max(framesInFlight, 1),
		bindings:       make(map[Dataset]Binding),
	}
}

func (m *bufferManager) Upload(data SceneData) error {
	if data.Mesh == nil || data.Index == nil || data.Amp == nil {
		return errors.New("upload scene: mesh, index and amplitude volume are required")
	}

	if _, err := m.createWritable(DatasetVertices, data.Mesh.VertexBytes(), resource.UsageVertex); err != nil {
		return err
	}
	if _, err := m.UploadStatic(DatasetTriangles, common.SliceToBytes(data.Index.Triangles), resource.UsageStorage); err != nil {
		return err
	}
	if _, err := m.UploadStatic(DatasetMidpoints, common.SliceToBytes(data.Index.Midpoints.Flatten()), resource.UsageStorage); err != nil {
		return err
	}
	if _, err := m.UploadStatic(DatasetSizes, common.SliceToBytes(data.Index.Sizes[:]), resource.UsageStorage); err != nil {
		return err
	}
	if _, err := m.UploadStatic(DatasetAmplitude, data.Amp.Bytes(), resource.UsageStorage|resource.UsageCopySrc); err != nil {
		return err
	}

	m.transforms = make([]Binding, m.framesInFlight)
	for slot := range m.transforms {
		buf, err := m.device.CreateBuffer(resource.BufferDescriptor{
			Label: fmt.Sprintf("transform[%d]", slot),
			Size:  common.TransformSize,
			Usage: resource.UsageUniform | resource.UsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("create transform buffer %d: %w", slot, err)
		}
		m.arena.Track(buf)
		m.transforms[slot] = Binding{Buffer: buf, Size: common.TransformSize}
	}

	logger.Infof("uploaded %d buffers for %s", m.arena.Len(), data.Mesh.Name())
	return nil
}

func (m *bufferManager) UploadStatic(ds Dataset, data []byte, usage resource.Usage) (Binding, error) {
	if len(data) == 0 {
		return Binding{}, fmt.Errorf("upload %s: %w", ds, ErrEmptyDataset)
	}
	size := uint64(len(data))

	staging, err := m.device.CreateBuffer(resource.BufferDescriptor{
		Label:    ds.String() + " staging",
		Size:     size,
		Usage:    resource.UsageCopySrc,
		Contents: data,
	})
	if err != nil {
		return Binding{}, fmt.Errorf("create %s staging buffer: %w", ds, err)
	}
	defer staging.Release()

	dst, err := m.device.CreateBuffer(resource.BufferDescriptor{
		Label: ds.String(),
		Size:  size,
		Usage: usage | resource.UsageCopyDst,
	})
	if err != nil {
		return Binding{}, fmt.Errorf("create %s buffer: %w", ds, err)
	}
	m.arena.Track(dst)

	if err := m.device.CopyBuffer(staging, dst, size); err != nil {
		return Binding{}, fmt.Errorf("copy %s to device: %w", ds, err)
	}

	b := Binding{Buffer: dst, Size: size}
	m.bindings[ds] = b
	logger.Debugf("uploaded %s: %d bytes", ds, size)
	return b, nil
}

// createWritable allocates a buffer that stays writable through the queue and fills it.
func (m *bufferManager) createWritable(ds Dataset, data []byte, usage resource.Usage) (Binding, error) {
	if len(data) == 0 {
		return Binding{}, fmt.Errorf("upload %s: %w", ds, ErrEmptyDataset)
	}
	size := uint64(len(data))
	buf, err := m.device.CreateBuffer(resource.BufferDescriptor{
		Label: ds.String(),
		Size:  size,
		Usage: usage | resource.UsageCopyDst,
	})
	if err != nil {
		return Binding{}, fmt.Errorf("create %s buffer: %w", ds, err)
	}
	m.arena.Track(buf)

	if err := m.device.WriteBuffer(buf, 0, data); err != nil {
		return Binding{}, fmt.Errorf("write %s: %w", ds, err)
	}
	b := Binding{Buffer: buf, Size: size}
	m.bindings[ds] = b
	return b, nil
}

func (m *bufferManager) Binding(ds Dataset) (Binding, bool) {
	b, ok := m.bindings[ds]
	return b, ok
}

func (m *bufferManager) TransformBinding(slot int) Binding {
	return m.transforms[slot]
}

func (m *bufferManager) WriteTransform(slot int, t *common.Transform) error {
	if slot < 0 || slot >= len(m.transforms) {
		return fmt.Errorf("write transform: slot %d out of range [0,%d)", slot, len(m.transforms))
	}
	data := common.StructToBytes(t)
	if uint64(len(data)) != m.transforms[slot].Size {
		return fmt.Errorf("write transform: %w: %d bytes into %d", ErrSizeMismatch, len(data), m.transforms[slot].Size)
	}
	return m.device.WriteBuffer(m.transforms[slot].Buffer, 0, data)
}

func (m *bufferManager) ValidateAmplitude(host *model.AmpVolume) (model.AmpReport, error) {
	amp, ok := m.bindings[DatasetAmplitude]
	if !ok {
		return model.AmpReport{}, errors.New("validate amplitude: amplitude buffer not uploaded")
	}

	readback, err := m.device.CreateBuffer(resource.BufferDescriptor{
		Label: "amplitude readback",
		Size:  amp.Size,
		Usage: resource.UsageMapRead | resource.UsageCopyDst,
	})
	if err != nil {
		return model.AmpReport{}, fmt.Errorf("create amplitude readback buffer: %w", err)
	}
	defer readback.Release()

	if err := m.device.CopyBuffer(amp.Buffer, readback, amp.Size); err != nil {
		return model.AmpReport{}, fmt.Errorf("copy amplitude to readback: %w", err)
	}
	data, err := m.device.ReadBuffer(readback, amp.Size)
	if err != nil {
		return model.AmpReport{}, fmt.Errorf("read amplitude: %w", err)
	}
	if uint64(len(data)) != amp.Size {
		return model.AmpReport{}, fmt.Errorf("read amplitude: %w: got %d bytes, want %d", ErrSizeMismatch, len(data), amp.Size)
	}

	header, values, err := model.DecodeAmpValues(data)
	if err != nil {
		return model.AmpReport{}, err
	}
	report := host.Compare(header, values)
	if report.OK() {
		logger.Infof("amplitude readback matches host copy (%d cells)", report.Cells)
	} else {
		logger.Warningf("amplitude readback differs from host copy: %d mismatches, first at %d", report.Mismatches, report.FirstMismatch)
	}
	return report, nil
}

func (m *bufferManager) FramesInFlight() int {
	return m.framesInFlight
}

func (m *bufferManager) Release() {
	m.arena.Release()
	m.bindings = make(map[Dataset]Binding)
	m.transforms = nil
}
