// Package events decouples state changes from the components that react to
// them.
//
// Services emit events without knowing who consumes them. The in-memory
// emitter fans each event out to registered handlers, which may log it,
// publish it to an external channel, or hand it to the background worker pool.
//
// The primary components are:
// - Event: an envelope with a type and a JSON payload
// - SubscriptionTransition: the payload emitted when a subscription changes state
// - EventHandler and EventEmitter: the consumer and producer interfaces
package events
