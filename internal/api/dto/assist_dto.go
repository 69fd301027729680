package dto

// AssistQueryRequest is the unauthenticated self-serve query payload.
type AssistQueryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// AssistQueryResponse is the self-serve answer.
type AssistQueryResponse struct {
	Answer    string `json:"answer"`
	Source    string `json:"source"`
	SessionID string `json:"session_id,omitempty"`
}
