package quadstack

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/voxelsplace/quadstack/stack"
)

// ErrTypeLayout is the type of errors returned for inconsistent exported
// layouts.
const ErrTypeLayout = "quadstack_invalid_layout"

func outOfRange(x, y, cols, rows int) error {
	return errors.New("cell out of range").
		WithType(stack.ErrTypeOutOfRange).
		WithTag("x", x).
		WithTag("y", y).
		WithTag("cols", cols).
		WithTag("rows", rows)
}
