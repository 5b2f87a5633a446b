package wellapi

import "net/http"

type entryReq struct {
	Type string `json:"type"`
	Body string `json:"body"`
}

// PostResult is the outcome of a completed HTTP exchange with the Well API.
// The body is relayed to the user as-is, whatever the status.
type PostResult struct {
	StatusCode int
	Body       string
}

// OK reports whether the Well API accepted the entry.
func (r PostResult) OK() bool {
	return r.StatusCode == http.StatusOK || r.StatusCode == http.StatusCreated
}
