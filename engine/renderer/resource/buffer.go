package resource

// Usage is a bit set describing how a device buffer may be used.
type Usage uint32

const (
	UsageMapRead Usage = 1 << iota
	UsageCopySrc
	UsageCopyDst
	UsageVertex
	UsageUniform
	UsageStorage
)

// Has reports whether every flag in other is set.
func (u Usage) Has(other Usage) bool {
	return u&other == other
}

// Buffer is an owning wrapper around a device buffer. Implementations release the native
// buffer exactly once.
type Buffer interface {
	Releaser

	Label() string
	Size() uint64
	Usage() Usage
}

// BufferDescriptor describes a buffer to create. When Contents is set the buffer is created
// mapped, filled with Contents and unmapped before it is returned.
type BufferDescriptor struct {
	Label    string
	Size     uint64
	Usage    Usage
	Contents []byte
}
