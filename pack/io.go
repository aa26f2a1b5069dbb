package pack

import (
	"os"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/voxelsplace/quadstack/stack"
)

// Save writes m to filename.
func Save[M stack.Material](filename string, m *Model[M], comp Compression) error {
	data, err := Marshal(m, comp)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return err
	}
	logs.WithTag("path", filename).
		WithTag("model", m.ID.String()).
		WithTag("compression", Compression(data[len(magic)+1]).String()).
		WithTag("bytes", len(data)).
		Debug("pack saved")
	return nil
}

// Load reads a pack from filename.
func Load[M stack.Material](filename string) (*Model[M], error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	m, _, err := Unmarshal[M](data)
	return m, err
}
