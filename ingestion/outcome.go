package ingestion

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/docket/chunker"
)

// Stage is a step of a chunk's processing.
type Stage int

const (
	StagePending Stage = iota
	StageExtracting
	StageEmbedding
	StagePersisting
	StageLabeling
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StagePending:
		return "pending"
	case StageExtracting:
		return "extracting"
	case StageEmbedding:
		return "embedding"
	case StagePersisting:
		return "persisting"
	case StageLabeling:
		return "labeling"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

func (s Stage) sentinel() error {
	switch s {
	case StageExtracting:
		return ErrExtraction
	case StageEmbedding:
		return ErrEmbedding
	case StagePersisting:
		return ErrPersistence
	case StageLabeling:
		return ErrLabelAssociation
	default:
		return errSkipped
	}
}

var errSkipped = errors.New("chunk skipped")

// Status is the terminal state of a chunk.
type Status int

const (
	StatusDone Status = iota
	StatusSkipped
)

func (s Status) String() string {
	if s == StatusDone {
		return "done"
	}
	return "skipped"
}

// Outcome is the result of processing one chunk.
//
// A skipped chunk's Stage is the stage that failed and Err is a
// *StageError. Stages completed before the failure are not rolled back, so a
// chunk skipped while labeling has already been persisted.
type Outcome struct {
	Ordinal int
	Stage   Stage
	Status  Status
	Err     error

	// Labels is the number of labels attached to the chunk.
	Labels int

	// LabelWarnings is the number of label names that failed to associate.
	// Label failures are best effort and do not skip the chunk.
	LabelWarnings int
}

// Report summarizes one ingestion run.
type Report struct {
	RunID     uuid.UUID
	Document  string
	Strategy  chunker.Strategy
	Outcomes  []Outcome // ordinal order
	StartedAt time.Time
	Duration  time.Duration
}

// Chunks returns the number of chunks the document was cut into.
func (r *Report) Chunks() int {
	return len(r.Outcomes)
}

// Succeeded returns the number of chunks that reached StageDone.
func (r *Report) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == StatusDone {
			n++
		}
	}
	return n
}

// Skipped returns the outcomes of chunks that were skipped.
func (r *Report) Skipped() []Outcome {
	var skipped []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusSkipped {
			skipped = append(skipped, o)
		}
	}
	return skipped
}
