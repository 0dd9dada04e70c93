// Package task runs background work on a bounded in-memory queue drained by a
// fixed pool of workers. It is used to deliver events to slow consumers, such
// as an external broker, without holding up the request that produced them.
// Work queued here is best effort and does not survive a restart.
package task
