package api

import (
	"context"

	"tunely/internal/queue"
)

// RequestReader abstracts request persistence needed for API queries.
type RequestReader interface {
	List(ctx context.Context, statuses ...queue.Status) ([]*queue.Request, error)
	Stats(ctx context.Context) (map[queue.Status]int, error)
	Get(ctx context.Context, id string) (*queue.Request, error)
}

// RequestService exposes read-only request operations returning API DTOs.
type RequestService struct {
	store RequestReader
}

// NewRequestService constructs a RequestService around the provided reader.
func NewRequestService(store RequestReader) *RequestService {
	if store == nil {
		return nil
	}
	return &RequestService{store: store}
}

// List returns requests filtered by status, newest first.
func (s *RequestService) List(ctx context.Context, statuses ...queue.Status) ([]Request, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	reqs, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return SortRequestsNewestFirst(FromRequests(reqs)), nil
}

// Stats returns request counts keyed by status string.
func (s *RequestService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeQueueStats(stats), nil
}

// Describe fetches a single request, or nil when it does not exist.
func (s *RequestService) Describe(ctx context.Context, id string) (*Request, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	req, err := s.store.Get(ctx, id)
	if err != nil || req == nil {
		return nil, err
	}
	dto := FromRequest(req)
	return &dto, nil
}
