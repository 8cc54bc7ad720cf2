package redis

import (
	"fmt"

	"github.com/mcoot/tictacgo/internal/model"
)

// Key prefix for all stored data
const keyPrefix = "ttt"

// userKey returns the Redis key for a User
func userKey(id model.UserID) string {
	return fmt.Sprintf("%s:user:%s", keyPrefix, id)
}

// usernameIndexKey returns the Redis key for the username -> user_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// emailIndexKey returns the Redis key for the email -> user_id index
func emailIndexKey(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", keyPrefix, email)
}

// gameKey returns the Redis key for a Game
func gameKey(id model.GameID) string {
	return fmt.Sprintf("%s:game:%s", keyPrefix, id)
}

// gamesByCreatedKey returns the Redis key for the ZSET of games scored by
// creation time
func gamesByCreatedKey() string {
	return fmt.Sprintf("%s:idx:games_by_created", keyPrefix)
}

// historyKey returns the Redis key for a game's HistoryRecord
func historyKey(gameID model.GameID) string {
	return fmt.Sprintf("%s:history:%s", keyPrefix, gameID)
}

// historyForUserKey returns the Redis key for the ZSET of a user's history,
// scored by finish time
func historyForUserKey(userID model.UserID) string {
	return fmt.Sprintf("%s:idx:history_for_user:%s", keyPrefix, userID)
}
