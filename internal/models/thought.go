package models

import (
	"time"

	"gorm.io/gorm"
)

// Length bounds enforced at write time.
const (
	MaxThoughtTextLength  = 280
	MaxReactionBodyLength = 280
)

// Thought is a short post. Username is a copy of the author's name at
// creation time; UserID records the owning user explicitly.
type Thought struct {
	ID          string     `gorm:"primaryKey;type:varchar(24)" json:"id" bson:"_id"`
	ThoughtText string     `gorm:"type:varchar(280);not null" json:"thoughtText" bson:"thoughtText"`
	Username    string     `gorm:"not null;index" json:"username" bson:"username"`
	UserID      string     `gorm:"type:varchar(24);index" json:"userId,omitempty" bson:"userId,omitempty"`
	Reactions   []Reaction `gorm:"type:text;serializer:json" json:"reactions" bson:"reactions"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// Reaction is embedded in its parent Thought and never referenced on its own.
type Reaction struct {
	ReactionID   string    `json:"reactionId" bson:"reactionId"`
	ReactionBody string    `json:"reactionBody" bson:"reactionBody"`
	Username     string    `json:"username" bson:"username"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// TableName specifies the table name for GORM
func (Thought) TableName() string {
	return "thoughts"
}

// BeforeCreate assigns an id and normalizes the reaction list.
func (t *Thought) BeforeCreate(_ *gorm.DB) error {
	if t.ID == "" {
		t.ID = NewID()
	}
	if t.Reactions == nil {
		t.Reactions = []Reaction{}
	}
	return nil
}

// ReactionCount is derived from the reaction list and never stored.
func (t *Thought) ReactionCount() int {
	return len(t.Reactions)
}

// NewReaction builds a reaction stamped with a fresh id and the given time.
func NewReaction(body, username string, at time.Time) Reaction {
	return Reaction{
		ReactionID:   NewID(),
		ReactionBody: body,
		Username:     username,
		CreatedAt:    at,
	}
}

// WithoutReaction returns the reactions minus any matching reactionID.
func (t *Thought) WithoutReaction(reactionID string) []Reaction {
	kept := make([]Reaction, 0, len(t.Reactions))
	for _, r := range t.Reactions {
		if r.ReactionID != reactionID {
			kept = append(kept, r)
		}
	}
	return kept
}
