package algorand

import (
	"fmt"
	"strconv"
)

// SourceFetchError is returned when the indexer answers with a non-success
// status. It aborts the whole aggregation run.
type SourceFetchError struct {
	Status  int
	Account string
	Body    string // truncated response body
}

func (e *SourceFetchError) Error() string {
	if e.Account != "" {
		return fmt.Sprintf("indexer error %d for %s: %s", e.Status, e.Account, e.Body)
	}
	return fmt.Sprintf("indexer error %d: %s", e.Status, e.Body)
}

// StatusLabel returns the status as a metric label.
func (e *SourceFetchError) StatusLabel() string {
	return strconv.Itoa(e.Status)
}
