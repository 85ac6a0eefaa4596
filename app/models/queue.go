package models

import "time"

type QueueMessageKind string

const (
	QueueWelcomeEmail         QueueMessageKind = "welcome_email"
	QueuePointsReconciliation QueueMessageKind = "points_reconciliation"
)

// QueueMessage is the body of a job handed to out-of-process consumers.
type QueueMessage struct {
	Kind      QueueMessageKind `json:"kind"`
	UserID    string           `json:"user_id"`
	Email     string           `json:"email,omitempty"`
	Name      string           `json:"name,omitempty"`
	ContentID string           `json:"content_id,omitempty"` // unpaid generation, for reconciliation
	Points    int              `json:"points,omitempty"`
	Reason    string           `json:"reason,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
