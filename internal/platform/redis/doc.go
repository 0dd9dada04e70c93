// Package redis holds the optional Redis integrations: a single-holder lock
// that keeps concurrent replicas from running the expiry sweep at once, and a
// publisher that fans subscription transitions out on a pub/sub channel.
//
// Redis is not a source of truth. Losing it only means duplicate sweep runs,
// which are idempotent, and missed notifications, which the audit log covers.
package redis
