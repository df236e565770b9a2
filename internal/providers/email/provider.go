package email

import "context"

// Provider delivers analysis-completion mail. NoOpProvider stands in when
// SMTP is not configured so completions never fail on delivery.
type Provider interface {
	Send(ctx context.Context, to []string, subject string, htmlBody string) error
}

type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	return nil
}
