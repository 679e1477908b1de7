package sonar

import "fmt"

// URLError reports an endpoint that cannot be appended to the base URL.
type URLError struct {
	Endpoint string
}

func (e *URLError) Error() string {
	return fmt.Sprintf("url %q invalid: endpoint must start with /", e.Endpoint)
}

// APIError reports a non-success response from the Sonar API.
type APIError struct {
	Action string
	URL    string
	Code   int
	Body   string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("requesting %s on %s resulted in the response %d", e.Action, e.URL, e.Code)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}
