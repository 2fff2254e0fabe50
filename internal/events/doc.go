// Package events carries domain events from the quiz engine to subscribers
// outside it, such as reward and badge accounting.
//
// The quiz service emits events only after the unit of work that produced
// them has committed. Subscribers implement EventHandler and are registered
// on an EventEmitter; a failing handler never affects the answer that
// produced the event.
//
// The primary components are:
// - Event: an immutable envelope with a typed JSON payload
// - EventHandler: interface for components that react to events
// - EventEmitter: interface for components that publish events
package events
