package clients

import "fmt"

// AuthError is fatal: without a token no request can be made.
type AuthError struct {
	Status int
	Err    error
}

func (e *AuthError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("[RedditClient] authentication failed (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("[RedditClient] authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// FetchError is scoped to a single source or search term. Status is 0 when
// no response was received.
type FetchError struct {
	Target string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("[RedditClient] fetch %q failed (status %d): %v", e.Target, e.Status, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
