package cache

import (
	"fmt"
)

// GenerateKey creates a cache key with prefix and ID.
func GenerateKey(prefix string, id string) string {
	return fmt.Sprintf("%s:%s", prefix, id)
}

// LockKey derives the lock key guarding key.
func LockKey(key string) string {
	return GenerateKey("lock", key)
}
