package models

import (
	"slices"
	"time"

	"gorm.io/gorm"
)

// User represents a member of the network. Thoughts and Friends hold ids in
// insertion order and are only mutated through the relationship services.
type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(24)" json:"id" bson:"_id"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username" bson:"username"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email" bson:"email"`
	Thoughts  []string  `gorm:"type:text;serializer:json" json:"thoughts" bson:"thoughts"`
	Friends   []string  `gorm:"type:text;serializer:json" json:"friends" bson:"friends"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns an id and normalizes empty reference lists.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID()
	}
	u.Normalize()
	return nil
}

// Normalize replaces nil reference lists with empty ones.
func (u *User) Normalize() {
	if u.Thoughts == nil {
		u.Thoughts = []string{}
	}
	if u.Friends == nil {
		u.Friends = []string{}
	}
}

// FriendCount is derived from the friends list and never stored.
func (u *User) FriendCount() int {
	return len(u.Friends)
}

// HasFriend reports whether friendID is already in the friends list.
func (u *User) HasFriend(friendID string) bool {
	return slices.Contains(u.Friends, friendID)
}

// HasThought reports whether thoughtID is referenced by the user.
func (u *User) HasThought(thoughtID string) bool {
	return slices.Contains(u.Thoughts, thoughtID)
}
