// Package testdb provides utilities for tests that run against a real
// PostgreSQL database. Tests using it skip themselves unless a database URL
// is present in the environment, and each test runs inside a transaction that
// is rolled back when it finishes.
package testdb
