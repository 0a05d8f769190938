package config

import "time"

// Party roles known to the chat creation policy.
const (
	RoleInstructor = "instructor"
	RoleStudent    = "student"
)

// Only this asymmetric pairing may open a new chat: the creator must be
// the instructor and the counterpart the student. Anything else is
// rejected without persisting anything.
const (
	ChatCreatorRole     = RoleInstructor
	ChatCounterpartRole = RoleStudent
)

// Role lookups are cached in Redis, one key per party.
const (
	RoleCacheKeyPrefix = "role:"
	RoleCacheTTL       = time.Hour
)

// DeliveryChannel is the Redis Pub/Sub channel shared by all service
// instances for cross-instance message pushes.
const DeliveryChannel = "chat:deliver"
