package analyses

import "strings"

// Request is a validated analysis submission. It is never mutated.
type Request struct {
	URL string `json:"url"`
}

// Validate turns raw user input into a Request. Only the scheme prefix is
// checked; the trimmed input is kept as is.
func Validate(raw string) (Request, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Request{}, ErrEmptyInput
	}
	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return Request{}, ErrInvalidURL
	}
	return Request{URL: trimmed}, nil
}
