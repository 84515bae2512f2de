package reconcile

import (
	"fmt"
	"time"
)

// Result summarizes one reconciliation pass for one process.
//
// Total counts only the non-documentation candidates considered in the
// pass; on a successful pass Imported+Updated == Total. Err is non-nil and
// every count is zero when the snapshot fetch failed.
type Result struct {
	ProcessID     string
	ProcessName   string
	Imported      int
	Updated       int
	Removed       int
	Total         int
	WriteFailures int
	LastSyncedAt  time.Time
	Err           error
}

func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: sync failed: %v", r.ProcessName, r.Err)
	}
	s := fmt.Sprintf("%s: %d imported, %d updated, %d removed (%d total)",
		r.ProcessName, r.Imported, r.Updated, r.Removed, r.Total)
	if r.WriteFailures > 0 {
		s += fmt.Sprintf(", %d write failures", r.WriteFailures)
	}
	return s
}
