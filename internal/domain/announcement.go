package domain

import (
	"time"
)

type Announcement struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	SentBy         int64     `json:"sentBy"`
	RecipientCount int32     `json:"recipientCount"`
	SentAt         time.Time `json:"sentAt"`

	Sender *UserSummary `json:"sender,omitempty"`
}
