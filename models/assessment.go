package models

import "time"

type QARating string

const (
	RatingGood QARating = "good"
	RatingOkay QARating = "okay"
	RatingBad  QARating = "bad"
)

func (r QARating) Valid() bool {
	switch r {
	case RatingGood, RatingOkay, RatingBad:
		return true
	}
	return false
}

// QAAssessment is the reviewer verdict attached to one conversation.
type QAAssessment struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	ReviewerID     string    `json:"reviewerId"`
	Rating         QARating  `json:"rating"`
	Tags           []string  `json:"tags"`
	Notes          *string   `json:"notes"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
