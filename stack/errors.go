package stack

// Error types reported by this package. Test them with errors.IsType from
// github.com/aukilabs/go-tooling/pkg/errors.
const (
	ErrTypeOutOfRange = "stack_out_of_range"
	ErrTypeMalformed  = "stack_malformed_input"
)
