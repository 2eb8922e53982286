package batch

import "time"

// Status is the terminal disposition of one work item.
type Status string

const (
	StatusProcessed Status = "processed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Stage names the pipeline stage a failure occurred in. Two pseudo-stages
// cover faults outside the pipeline proper: "unexpected" for recovered
// worker panics and "interrupted" for items cut short by cancellation.
type Stage string

const (
	StageUnpack       Stage = "unpack"
	StageExtractAudio Stage = "extract-audio"
	StageSeparate     Stage = "separate"
	StageRepack       Stage = "repack"
	StageUnexpected   Stage = "unexpected"
	StageInterrupted  Stage = "interrupted"
)

// Outcome is the terminal result for one work item. Exactly one outcome is
// recorded per discovered item; it is owned by the worker that produced it
// until handed to the report.
type Outcome struct {
	Item     Item
	Status   Status
	Stage    Stage
	Reason   string
	Err      error
	Duration time.Duration
}

// Processed marks an item as fully transformed.
func Processed(item Item, duration time.Duration) Outcome {
	return Outcome{Item: item, Status: StatusProcessed, Duration: duration}
}

// Skipped marks an item as not needing work.
func Skipped(item Item, reason string) Outcome {
	return Outcome{Item: item, Status: StatusSkipped, Reason: reason}
}

// Failed marks an item as failed at the given stage.
func Failed(item Item, stage Stage, err error) Outcome {
	return Outcome{Item: item, Status: StatusFailed, Stage: stage, Err: err}
}
