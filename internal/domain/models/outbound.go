package models

// OutboundMessageRequest represents a message pushed to an operator over WhatsApp.
type OutboundMessageRequest struct {
	To         string `json:"to" binding:"required"`
	Message    string `json:"message" binding:"required"`
	PreviewURL bool   `json:"preview_url"`
}
