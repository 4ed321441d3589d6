package repo

import "fmt"

// StorageError reports a failure reading or writing the persisted stream config.
type StorageError struct {
	Op   string // "read" | "decode" | "encode" | "write"
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("stream config %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
