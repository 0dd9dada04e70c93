// Package store declares the persistence interfaces the services use. Every
// store offers WithTx so a service can compose several stores inside one
// Transactor call. GetForUpdate and the Lock* methods take row locks for
// read-modify-write sequences.
package store
