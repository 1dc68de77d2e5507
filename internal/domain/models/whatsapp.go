package models

import "iter"

// WebhookPayload is the subset of Meta's WhatsApp Cloud API webhook body the
// command channel reads. Status receipts and media are ignored.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

// WebhookEntry is one business account entry.
type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

// WebhookChange wraps one notification.
type WebhookChange struct {
	Value WebhookValue `json:"value"`
	Field string       `json:"field"`
}

// WebhookValue carries the inbound messages of a notification.
type WebhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Contacts         []Contact        `json:"contacts"`
	Messages         []InboundMessage `json:"messages"`
}

// Contact is the WhatsApp user who wrote in.
type Contact struct {
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
	WaID string `json:"wa_id"`
}

// InboundMessage is a text or interactive reply from an operator.
type InboundMessage struct {
	From        string              `json:"from"`
	ID          string              `json:"id"`
	Timestamp   string              `json:"timestamp"`
	Type        string              `json:"type"`
	Text        *TextContent        `json:"text,omitempty"`
	Interactive *InteractiveContent `json:"interactive,omitempty"`
}

// TextContent is a plain text body.
type TextContent struct {
	Body string `json:"body"`
}

// InteractiveContent is a button or list reply; the reply ID carries the command.
type InteractiveContent struct {
	Type        string      `json:"type"`
	ButtonReply *ReplyToken `json:"button_reply,omitempty"`
	ListReply   *ReplyToken `json:"list_reply,omitempty"`
}

// ReplyToken identifies the chosen button or list row.
type ReplyToken struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// InboundMessages yields every message of the payload in delivery order.
func (p WebhookPayload) InboundMessages() iter.Seq[InboundMessage] {
	return func(yield func(InboundMessage) bool) {
		for _, entry := range p.Entry {
			for _, change := range entry.Changes {
				for _, msg := range change.Value.Messages {
					if !yield(msg) {
						return
					}
				}
			}
		}
	}
}
