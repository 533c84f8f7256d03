package mail

import "context"

// Mailer delivers a single HTML email. Implementations report transport
// errors to the caller; they never retry.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
