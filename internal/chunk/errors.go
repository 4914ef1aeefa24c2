package chunk

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat marks fatal format errors: bad extension, bad header,
	// duplicate chunk IDs.
	ErrFormat = errors.New("format error")

	// ErrUnresolved marks references that do not resolve to a record of
	// the expected kind. Callers usually recover by treating the
	// referencing object as empty.
	ErrUnresolved = errors.New("unresolved reference")

	// ErrStructural marks fatal structural errors: bone cycles, index
	// ranges outside the index buffer.
	ErrStructural = errors.New("structural error")
)

// FormatError reports a file that cannot be read as a chunk file.
type FormatError struct {
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Path == "" {
		return "chunk: " + e.Reason
	}
	return fmt.Sprintf("chunk: %s: %s", e.Path, e.Reason)
}

func (e *FormatError) Unwrap() error { return ErrFormat }

// DuplicateIDError reports two records sharing an ID within one file.
type DuplicateIDError struct {
	ID          ID
	First, Then Kind
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("chunk: duplicate id %d (%s, %s)", e.ID, e.First, e.Then)
}

func (e *DuplicateIDError) Unwrap() error { return ErrFormat }

// UnresolvedReferenceError reports an ID that is missing from the table or
// resolves to a different kind. Got is KindUnknown when the ID is missing.
type UnresolvedReferenceError struct {
	ID     ID
	Want   Kind
	Got    Kind
	Detail string
}

func (e *UnresolvedReferenceError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("chunk: id %d: %s", e.ID, e.Detail)
	}
	if e.Got == KindUnknown {
		return fmt.Sprintf("chunk: id %d not found (want %s)", e.ID, e.Want)
	}
	return fmt.Sprintf("chunk: id %d is %s, want %s", e.ID, e.Got, e.Want)
}

func (e *UnresolvedReferenceError) Unwrap() error { return ErrUnresolved }

// StructuralError reports data that violates a structural invariant.
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string {
	return "chunk: structural error: " + e.Reason
}

func (e *StructuralError) Unwrap() error { return ErrStructural }

// Structuralf builds a StructuralError.
func Structuralf(format string, args ...any) error {
	return &StructuralError{Reason: fmt.Sprintf(format, args...)}
}
