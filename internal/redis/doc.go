// Package redis provides the Redis client and the store for the deprecated
// legacy encryption secret whose presence marks pending token migration.
package redis
