// Package redis publishes machine lifecycle events to a Redis pub/sub channel.
package redis
