// Package service contains the application-specific use cases of the study core.
// Each subpackage owns one area: review scheduling, assessment sessions,
// question progress, billing, and token authentication. They orchestrate
// domain objects and the repositories defined in internal/store, applying
// transactional boundaries when an operation spans several records.
//
// Services depend on domain entities and store interfaces, never on a specific
// infrastructure implementation. Every operation takes the resolved internal
// user id explicitly.
//
// This package holds the sentinel errors and the ServiceError wrapper shared
// by all subpackages.
package service
