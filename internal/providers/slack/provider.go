package slack

import "context"

// Provider posts engine-failure alerts. NoOpProvider stands in when no
// webhook is configured.
type Provider interface {
	PostMessage(ctx context.Context, channel string, message string) error
}

type NoOpProvider struct{}

func (p *NoOpProvider) PostMessage(ctx context.Context, channel string, message string) error {
	return nil
}
