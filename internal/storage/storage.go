package storage

import (
	"context"

	"github.com/hashicorp/go-multierror"

	"pendingScope/internal/model"
)

// Sink receives matched pending extrinsics.
type Sink interface {
	PutPending(ctx context.Context, records []model.PendingRecord) error
	Close() error
}

// Fanout forwards every batch to all of its sinks. A failing sink does not
// stop delivery to the others; their errors are combined.
type Fanout struct {
	sinks []Sink
}

func NewFanout(sinks ...Sink) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

// Len returns the number of attached sinks.
func (f *Fanout) Len() int {
	return len(f.sinks)
}

func (f *Fanout) PutPending(ctx context.Context, records []model.PendingRecord) error {
	if len(records) == 0 {
		return nil
	}
	var result *multierror.Error
	for _, s := range f.sinks {
		if err := s.PutPending(ctx, records); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func (f *Fanout) Close() error {
	var result *multierror.Error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
