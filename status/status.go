// Package status defines the messages that flow from the scanner and the
// workers to the single goroutine that renders output and keeps totals.
package status

import (
	"fmt"
	"time"
)

// Event is either a Progress or an *Error. The set is closed.
type Event interface {
	event()
}

// Outcome is the measured result of one successful compaction.
type Outcome struct {
	Path       string
	SizeBefore int64
	SizeAfter  int64
	// Delta is SizeBefore - SizeAfter. Negative when the file grew.
	Delta    int64
	Duration time.Duration
}

// NewOutcome builds an Outcome and computes its delta.
func NewOutcome(path string, before, after int64, took time.Duration) Outcome {
	return Outcome{
		Path:       path,
		SizeBefore: before,
		SizeAfter:  after,
		Delta:      before - after,
		Duration:   took,
	}
}

type Progress struct {
	Message string
	Outcome Outcome
}

func (Progress) event() {}

func (p Progress) Delta() int64 {
	return p.Outcome.Delta
}

type Kind int

const (
	RootAccess Kind = iota
	ScanEntry
	Classify
	EngineOpen
	EngineExecute
	// Internal is a recovered panic, never an expected runtime condition.
	Internal
)

var kindNames = [...]string{
	RootAccess:    "root-access",
	ScanEntry:     "scan-entry",
	Classify:      "classify",
	EngineOpen:    "engine-open",
	EngineExecute: "engine-execute",
	Internal:      "internal",
}

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Stage is the pipeline step an error belongs to.
type Stage string

const (
	StageScan     Stage = "scan"
	StageClassify Stage = "classify"
	StageOpen     Stage = "open"
	StageCompact  Stage = "compact"
	StageInternal Stage = "internal"
)

func (k Kind) Stage() Stage {
	switch k {
	case RootAccess, ScanEntry:
		return StageScan
	case Classify:
		return StageClassify
	case EngineOpen:
		return StageOpen
	case EngineExecute:
		return StageCompact
	default:
		return StageInternal
	}
}

// Error is a failure local to one root, one candidate or one target.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (*Error) event() {}

func NewError(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

func (e *Error) Stage() Stage {
	return e.Kind.Stage()
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Stage(), e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Stage(), e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Totals is accumulated by the single goroutine consuming events. Workers
// never see it.
type Totals struct {
	Delta     int64
	Compacted int
	Errors    int
}
