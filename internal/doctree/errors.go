package doctree

import (
	"errors"
	"fmt"
)

// ErrPathNotFound indicates that a path does not resolve in the tree.
var ErrPathNotFound = errors.New("path not found")

// SchemaError reports an attribute or content-model violation on one node.
type SchemaError struct {
	Kind   Kind
	Attr   string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Attr != "" {
		return fmt.Sprintf("schema: %s.%s: %s", e.Kind, e.Attr, e.Reason)
	}
	return fmt.Sprintf("schema: %s: %s", e.Kind, e.Reason)
}

// InvalidEditError reports a transaction step that could not be applied.
// The whole transaction is rejected and the input tree is left as it was.
type InvalidEditError struct {
	Step int
	Op   Op
	Path Path
	Err  error
}

func (e *InvalidEditError) Error() string {
	return fmt.Sprintf("invalid edit: step %d (%s at %s): %v", e.Step, e.Op, e.Path, e.Err)
}

func (e *InvalidEditError) Unwrap() error { return e.Err }

// ParseError describes markup that could not be mapped to a kind and was
// degraded to its text content.
type ParseError struct {
	Tag    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse: <%s>: %s", e.Tag, e.Reason)
}

// RegistryConflictError reports two kinds that share a tag and cannot be
// told apart by their distinguishing attribute.
type RegistryConflictError struct {
	Tag   string
	Attr  string
	Value string
	Kinds [2]Kind
}

func (e *RegistryConflictError) Error() string {
	if e.Attr == "" {
		return fmt.Sprintf("registry conflict: %s and %s both claim <%s>", e.Kinds[0], e.Kinds[1], e.Tag)
	}
	return fmt.Sprintf("registry conflict: %s and %s both claim <%s %s=%q>",
		e.Kinds[0], e.Kinds[1], e.Tag, e.Attr, e.Value)
}
