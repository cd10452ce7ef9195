package models

type Message struct {
	ID         string `json:"id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Subject    string `json:"subject,omitempty"`
	Body       string `json:"body"`
	// Optional parent message ID; absent means this message roots a thread
	ParentID string `json:"parent_id,omitempty"`
	TS       int64  `json:"ts"`
}
