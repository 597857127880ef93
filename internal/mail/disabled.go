package mail

import (
	"context"
	"fmt"
)

// Disabled stands in when SMTP is not configured: selection still runs,
// every delivery fails per-item instead of crashing the host.
type Disabled struct{}

func (Disabled) Send(ctx context.Context, to, subject, htmlBody string) error {
	return fmt.Errorf("mail sender not configured, dropping message to %s", to)
}
