package common

// Keys of the persisted state layout.
const (
	UsersStorageKey       = "app_users"
	CurrentUserStorageKey = "current_user"

	eventsKeyPrefix = "events_"
)

// EventsStorageKey returns the key holding the calendar of the given user.
func EventsStorageKey(userID string) string {
	return eventsKeyPrefix + userID
}
