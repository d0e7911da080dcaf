package cache

import (
	"fmt"
	"time"
)

const (
	UserKeyPrefix    = "user:%s"
	ThoughtKeyPrefix = "thought:%s"
)

// TTLs for cached documents.
const (
	UserTTL    = 5 * time.Minute
	ThoughtTTL = 5 * time.Minute
)

func UserKey(userID string) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func ThoughtKey(thoughtID string) string {
	return fmt.Sprintf(ThoughtKeyPrefix, thoughtID)
}

// UserKeys maps ids to their cache keys.
func UserKeys(ids ...string) []string {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, UserKey(id))
	}
	return keys
}

// ThoughtKeys maps ids to their cache keys.
func ThoughtKeys(ids ...string) []string {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, ThoughtKey(id))
	}
	return keys
}
