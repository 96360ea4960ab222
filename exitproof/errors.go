package exitproof

import (
	"errors"
	"fmt"

	posexitcommon "github.com/0xPolygon/posexit/common"
)

// Stage is the step of the proof pipeline where a failure happened
type Stage string

const (
	StageReceiptLookup      Stage = "receipt lookup"
	StageLogResolution      Stage = "log resolution"
	StageCheckpointLocation Stage = "checkpoint location"
	StageReceiptProof       Stage = "receipt proof"
	StageBlockProof         Stage = "block proof"
	StageEncoding           Stage = "encoding"
)

var (
	// ErrTransactionNotFound the burn transaction or its receipt is unknown to the child chain
	ErrTransactionNotFound = fmt.Errorf("transaction %w", posexitcommon.ErrNotFound)
	// ErrLogNotFound the receipt has no matching burn log for the requested occurrence
	ErrLogNotFound = fmt.Errorf("log %w", posexitcommon.ErrNotFound)
	// ErrMissingField the payload lacks a required field
	ErrMissingField = errors.New("missing payload field")
)

// StageError tags an error with the stage that produced it
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// FailedStage returns the stage of err, if any
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
