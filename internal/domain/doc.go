// Package domain contains the core entities of the study core: review cards,
// questions and per-user progress, assessment sessions, and the subscription
// records and webhook receipts that gate premium access. Entities validate
// themselves and carry no persistence or transport concerns.
package domain
