// Package presenter turns stored entities into their client-facing views.
// Derived fields (reactionCount, friendCount) and human-readable timestamps
// are computed here at read time and never persisted.
package presenter

import (
	"strconv"
	"time"

	"thoughtnet/internal/models"
)

// ReactionView is the presentation form of an embedded reaction.
type ReactionView struct {
	ReactionID   string  `json:"reactionId"`
	ReactionBody string  `json:"reactionBody"`
	Username     string  `json:"username"`
	CreatedAt    *string `json:"createdAt"`
}

// ThoughtView is the presentation form of a thought.
type ThoughtView struct {
	ID            string         `json:"id"`
	ThoughtText   string         `json:"thoughtText"`
	Username      string         `json:"username"`
	UserID        string         `json:"userId,omitempty"`
	CreatedAt     *string        `json:"createdAt"`
	Reactions     []ReactionView `json:"reactions"`
	ReactionCount int            `json:"reactionCount"`
}

// FriendView is a user reduced to its identifying fields.
type FriendView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UserView is the populated user detail view.
type UserView struct {
	ID          string        `json:"id"`
	Username    string        `json:"username"`
	Email       string        `json:"email"`
	Thoughts    []ThoughtView `json:"thoughts"`
	Friends     []FriendView  `json:"friends"`
	FriendCount int           `json:"friendCount"`
}

// UserSummary is the unpopulated user view used by list, create and update.
type UserSummary struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Thoughts    []string `json:"thoughts"`
	Friends     []string `json:"friends"`
	FriendCount int      `json:"friendCount"`
}

// Formatter renders views with timestamps in a fixed location.
type Formatter struct {
	loc *time.Location
}

// NewFormatter returns a Formatter rendering times in loc (UTC when nil).
func NewFormatter(loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{loc: loc}
}

// Timestamp renders t as "Jan 2nd, 2006 at 03:04 PM". A zero time yields nil.
func (f *Formatter) Timestamp(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	local := t.In(f.loc)
	s := local.Format("Jan") + " " + ordinal(local.Day()) + ", " + local.Format("2006") + " at " + local.Format("03:04 PM")
	return &s
}

func ordinal(day int) string {
	suffix := "th"
	switch day % 100 {
	case 11, 12, 13:
	default:
		switch day % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(day) + suffix
}

// Thought renders a thought and its reactions.
func (f *Formatter) Thought(t *models.Thought) ThoughtView {
	reactions := make([]ReactionView, 0, len(t.Reactions))
	for _, r := range t.Reactions {
		reactions = append(reactions, ReactionView{
			ReactionID:   r.ReactionID,
			ReactionBody: r.ReactionBody,
			Username:     r.Username,
			CreatedAt:    f.Timestamp(r.CreatedAt),
		})
	}

	return ThoughtView{
		ID:            t.ID,
		ThoughtText:   t.ThoughtText,
		Username:      t.Username,
		UserID:        t.UserID,
		CreatedAt:     f.Timestamp(t.CreatedAt),
		Reactions:     reactions,
		ReactionCount: t.ReactionCount(),
	}
}

// Thoughts renders a list of thoughts.
func (f *Formatter) Thoughts(thoughts []models.Thought) []ThoughtView {
	views := make([]ThoughtView, 0, len(thoughts))
	for i := range thoughts {
		views = append(views, f.Thought(&thoughts[i]))
	}
	return views
}

// User renders the populated detail view. thoughts and friends are the
// documents resolved from the user's reference lists; they are emitted in
// reference order and references with no resolved document are skipped.
func (f *Formatter) User(u *models.User, thoughts []models.Thought, friends []models.User) UserView {
	thoughtsByID := make(map[string]*models.Thought, len(thoughts))
	for i := range thoughts {
		thoughtsByID[thoughts[i].ID] = &thoughts[i]
	}
	friendsByID := make(map[string]*models.User, len(friends))
	for i := range friends {
		friendsByID[friends[i].ID] = &friends[i]
	}

	thoughtViews := make([]ThoughtView, 0, len(u.Thoughts))
	for _, id := range u.Thoughts {
		if t, ok := thoughtsByID[id]; ok {
			thoughtViews = append(thoughtViews, f.Thought(t))
		}
	}

	friendViews := make([]FriendView, 0, len(u.Friends))
	for _, id := range u.Friends {
		if fr, ok := friendsByID[id]; ok {
			friendViews = append(friendViews, FriendView{ID: fr.ID, Username: fr.Username, Email: fr.Email})
		}
	}

	return UserView{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Thoughts:    thoughtViews,
		Friends:     friendViews,
		FriendCount: len(friendViews),
	}
}

// Summary renders a user without populating references.
func Summary(u *models.User) UserSummary {
	thoughts := u.Thoughts
	if thoughts == nil {
		thoughts = []string{}
	}
	friends := u.Friends
	if friends == nil {
		friends = []string{}
	}
	return UserSummary{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Thoughts:    thoughts,
		Friends:     friends,
		FriendCount: u.FriendCount(),
	}
}

// Summaries renders a list of users without populating references.
func Summaries(users []models.User) []UserSummary {
	out := make([]UserSummary, 0, len(users))
	for i := range users {
		out = append(out, Summary(&users[i]))
	}
	return out
}
