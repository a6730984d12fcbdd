package fieldpath

import (
	"errors"
	"fmt"
)

// ErrSyntax is matched by every *SyntaxError through errors.Is.
var ErrSyntax = errors.New("fieldpath: syntax error")

// SyntaxError reports a malformed path.
type SyntaxError struct {
	Path   string
	Offset int // byte offset of the offending character
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("fieldpath: syntax error in %q at offset %d: %s", e.Path, e.Offset, e.Reason)
}

// Is reports whether target is ErrSyntax.
func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }
