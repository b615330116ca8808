package emergency

import "context"

// Refusal is the synthetic authentication answer. It never asserts a
// positive result.
type Refusal struct {
	Authenticated bool   `json:"authenticated"`
	Reason        string `json:"reason"`
	Source        string `json:"source"`
}

// RefusalHandler returns an explicit non-authenticated answer. Use it for
// authentication categories, where fabricating a success would grant access
// nobody verified.
func RefusalHandler(reason string) Handler {
	return func(ctx context.Context, data map[string]any) (any, error) {
		return Refusal{
			Authenticated: false,
			Reason:        reason,
			Source:        "emergency",
		}, nil
	}
}

// StaticHandler always returns the given value.
func StaticHandler(value any) Handler {
	return func(ctx context.Context, data map[string]any) (any, error) {
		return value, nil
	}
}
