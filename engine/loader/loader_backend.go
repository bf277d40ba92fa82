package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-amp/common"
)

// loaderBackend turns a format-specific stream into a flat triangle list.
type loaderBackend interface {
	// Load parses a mesh stream.
	//
	// Parameters:
	//   - name: the source name used in error messages
	//   - r: the reader providing mesh data
	//
	// Returns:
	//   - []common.Triangle: the triangles in file order
	//   - error: error if the stream cannot be parsed
	Load(name string, r io.Reader) ([]common.Triangle, error)

	// Extensions lists the lower-case file extensions this backend accepts, including the dot.
	Extensions() []string
}
