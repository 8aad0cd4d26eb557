package notify

import "context"

// NoOpPublisher is a publisher that does nothing, for tests and local runs
// without a queue configured.
type NoOpPublisher struct{}

// PublishSettlement does nothing.
func (p *NoOpPublisher) PublishSettlement(ctx context.Context, event *SettlementEvent) error {
	return nil
}
