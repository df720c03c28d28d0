// Package completion wraps the external text-completion service behind a
// narrow interface so the summary pipeline can be tested without network
// access.
package completion

import "context"

// Client is an opaque text-completion service: prompt in, text out.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
