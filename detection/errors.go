package detection

import "fmt"

// InputError reports a URL that failed validation. It is terminal: no
// network call is made for an input that cannot be normalized.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return "invalid url: " + e.Reason }

// UpstreamError reports a failed call to one of the external signal
// sources. Only the classifier's UpstreamError aborts a request; the
// blocklist and registration sources degrade to unknown signals instead.
type UpstreamError struct {
	Source string
	Detail string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s upstream failed: %s: %v", e.Source, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s upstream failed: %s", e.Source, e.Detail)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
