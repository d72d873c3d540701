package sync

import "fmt"

// ConfigError aborts a run before any API call is made.
type ConfigError struct {
	Field string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing configuration: %s", e.Field)
}

// ItemSyncError wraps any failure while mapping, upserting or categorizing a
// single item. It is recorded on the run result and never aborts the loop.
type ItemSyncError struct {
	Number string
	Err    error
}

func (e *ItemSyncError) Error() string {
	return fmt.Sprintf("item %s: %v", e.Number, e.Err)
}

func (e *ItemSyncError) Unwrap() error {
	return e.Err
}
