// Package redis provides the Redis client and the per-reviewer vote rate
// limiter. The rate limiter runs as a Lua script so the refill-and-consume
// sequence is atomic on the server.
package redis
