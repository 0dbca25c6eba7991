package bus

import "context"

// disabled stands in for Redis when none is configured.
type disabled struct{}

func (disabled) PublishSummary(context.Context, SummaryMessage) error   { return nil }
func (disabled) PublishPageLoad(context.Context, PageLoadMessage) error { return nil }

func (disabled) ReadSummaries(context.Context, string, string, SummaryHandler) error {
	return ErrDisabled
}

func (disabled) Stats(context.Context) (Stats, error) { return Stats{Backend: "disabled"}, nil }
func (disabled) Ping(context.Context) error           { return nil }
func (disabled) Close() error                         { return nil }
