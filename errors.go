package kurubind

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrQueryOnly marks an attempt to write or count a projection type.
	ErrQueryOnly = errors.New("kurubind: type is query-only")

	// ErrMissingID marks an ID-based operation on a type with no ID field.
	ErrMissingID = errors.New("kurubind: type has no id field")
)

// ItemError locates one failed item inside a batch.
type ItemError struct {
	Index int
	Err   error
}

// BatchError aggregates the failures of a batch operation. It is returned
// only when at least one item fails, and no statement has been executed.
type BatchError struct {
	Items []ItemError
}

func (e *BatchError) add(index int, err error) {
	e.Items = append(e.Items, ItemError{Index: index, Err: err})
}

func (e *BatchError) hasErrors() bool {
	return len(e.Items) > 0
}

func (e *BatchError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "kurubind: batch failed for %d item(s):", len(e.Items))
	for _, item := range e.Items {
		fmt.Fprintf(&sb, "\n  item %d: %s", item.Index, item.Err)
	}
	return sb.String()
}
