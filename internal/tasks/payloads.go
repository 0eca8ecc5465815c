package tasks

import (
	"encoding/json"
	"fmt"

	"pncp/internal/pkg/pncp"

	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeTaskSyncBatch  = "task:sync_batch"
	TypeTaskSyncTarget = "task:sync_target"
)

// SyncBatchPayload overrides the target cap of one queued batch run.
// RequestID ties the worker's logs to the API request that queued it.
type SyncBatchPayload struct {
	MaxTargets *int   `json:"max_targets"`
	RequestID  string `json:"request_id,omitempty"`
}

func NewSyncBatchTask(maxTargets *int, requestID string) (*asynq.Task, error) {
	payload := SyncBatchPayload{
		MaxTargets: maxTargets,
		RequestID:  requestID,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TypeTaskSyncBatch, payloadBytes, asynq.MaxRetry(0)), nil
}

// SyncTargetPayload is one queued sync cycle: a report, its filters and the
// call-log marker.
type SyncTargetPayload struct {
	Report    string          `json:"report"`
	Params    json.RawMessage `json:"params"`
	Marker    string          `json:"marker,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewSyncTargetTask queues one cycle for params. A failed cycle is not
// retried; the next schedule or request is the retry.
func NewSyncTargetTask(params pncp.Params, marker, requestID string) (*asynq.Task, error) {
	rawParams, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}

	payloadBytes, err := json.Marshal(SyncTargetPayload{
		Report:    params.Report().String(),
		Params:    rawParams,
		Marker:    marker,
		RequestID: requestID,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TypeTaskSyncTarget, payloadBytes, asynq.MaxRetry(0)), nil
}

// DecodeParams rebuilds the typed filter set of a target payload.
func (p SyncTargetPayload) DecodeParams() (pncp.Params, error) {
	rt, err := pncp.ParseReportType(p.Report)
	if err != nil {
		return nil, err
	}

	params, err := pncp.NewParams(rt)
	if err != nil {
		return nil, err
	}

	if len(p.Params) > 0 {
		if err := json.Unmarshal(p.Params, params); err != nil {
			return nil, fmt.Errorf("decode %s params: %w", p.Report, err)
		}
	}

	return params, nil
}
