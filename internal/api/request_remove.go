package api

import (
	"context"

	"tunely/internal/queue"
)

// RequestRemoveStore captures the store operations needed to remove requests.
type RequestRemoveStore interface {
	Get(ctx context.Context, id string) (*queue.Request, error)
	Remove(ctx context.Context, id string) (bool, error)
}

type RemoveOutcome string

const (
	RemoveRemoved  RemoveOutcome = "removed"
	RemoveNotFound RemoveOutcome = "not_found"
	RemoveActive   RemoveOutcome = "active"
)

type RemoveResult struct {
	ID      string        `json:"id"`
	Outcome RemoveOutcome `json:"outcome"`
}

type RemoveRequestsResult struct {
	RemovedCount int            `json:"removed_count"`
	Requests     []RemoveResult `json:"requests"`
}

// RemoveRequestsByID removes finished requests one by one so each ID can
// report removed, not_found or active. Requests still queued or processing
// are left alone. Files on disk are kept.
func RemoveRequestsByID(ctx context.Context, store RequestRemoveStore, ids []string) (RemoveRequestsResult, error) {
	result := RemoveRequestsResult{Requests: make([]RemoveResult, 0, len(ids))}
	for _, id := range ids {
		req, err := store.Get(ctx, id)
		if err != nil {
			return RemoveRequestsResult{}, err
		}
		if req == nil {
			result.Requests = append(result.Requests, RemoveResult{ID: id, Outcome: RemoveNotFound})
			continue
		}
		if !req.Status.IsTerminal() {
			result.Requests = append(result.Requests, RemoveResult{ID: id, Outcome: RemoveActive})
			continue
		}
		removed, err := store.Remove(ctx, id)
		if err != nil {
			return RemoveRequestsResult{}, err
		}
		if !removed {
			result.Requests = append(result.Requests, RemoveResult{ID: id, Outcome: RemoveNotFound})
			continue
		}
		result.RemovedCount++
		result.Requests = append(result.Requests, RemoveResult{ID: id, Outcome: RemoveRemoved})
	}
	return result, nil
}
