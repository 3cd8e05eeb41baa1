package scheduler

import (
	"conflux/pkg/handler"
)

// countRecords returns the contribution of a stage output to the pipeline records count.
// New output kinds get their own case, anything unknown counts as a single record.
func countRecords(output interface{}) int64 {
	switch v := output.(type) {
	case []interface{}:
		return int64(len(v))
	case []map[string]interface{}:
		return int64(len(v))
	case []handler.Record:
		return int64(len(v))
	case handler.LoadOutcome:
		return v.ProcessedCount
	case handler.ValidationOutcome:
		return v.ProcessedCount
	}
	return 1
}
