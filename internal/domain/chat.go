package domain

// ConversationRequest is one conversation turn submitted by a client.
type ConversationRequest struct {
	Prompt   string `json:"prompt" binding:"required"`
	ThreadID string `json:"thread_id" binding:"required"`
}

// ConversationResponse is the answer to one conversation turn. DocumentSources
// lists the distinct file names the answer was grounded on, in first-seen
// order; it is empty when the turn bypassed retrieval.
type ConversationResponse struct {
	Answer          string   `json:"answer"`
	DocumentSources []string `json:"document_sources"`
}
