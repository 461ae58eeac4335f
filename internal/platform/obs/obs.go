package obs

import (
	"context"
	"log"
	"time"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// Time logs the duration and outcome of an operation when the returned
// function runs, typically via defer with a named error return.
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	reqID, _ := ctx.Value(RequestIDKey).(string)

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			log.Printf("req_id=%s op=%s dur=%dms err=%v", reqID, name, dur.Milliseconds(), *errp)
			return
		}
		log.Printf("req_id=%s op=%s dur=%dms", reqID, name, dur.Milliseconds())
	}
}

// Operational event kinds emitted by the delivery-cost core. Each kind marks
// a condition operators care about but which is not an error for the caller.
const (
	EventRateFetchFailed    = "rate_fetch_failed"
	EventRateDegraded       = "rate_degraded"
	EventAssignmentConflict = "assignment_conflict"
	EventBackfillSkipped    = "backfill_skipped"
)

// Event emits a categorized operational log line in key=value form.
func Event(kind string, format string, args ...any) {
	log.Printf("event=%s "+format, append([]any{kind}, args...)...)
}
