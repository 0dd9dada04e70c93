// Package api translates HTTP requests into calls on the study and billing
// services. Handlers decode and validate input, read the caller from the
// context set by the middleware package, and map service errors to status
// codes with sanitized messages.
package api
