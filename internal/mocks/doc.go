// Package mocks provides centralized mock implementations for testing.
//
// Store mocks embed testify's mock.Mock and return themselves from WithTx, so a
// service test can set expectations once and have them apply inside and
// outside transactions. Transactor runs the transaction callback directly with
// a nil *sqlx.Tx.
//
// Usage:
//
//	import "github.com/musaabMD/expoiosweb/internal/mocks"
//
//	func TestSomething(t *testing.T) {
//	    cards := &mocks.ReviewCardStore{}
//	    cards.On("GetForUpdate", mock.Anything, userID, questionID).Return(card, nil)
//
//	    svc, err := review.NewService(&mocks.Transactor{}, cards, questions, scheduler, logger)
//	    // ...
//	}
//
// When adding a new mock to this package:
//  1. Create a new file named after the interface being mocked
//  2. Assert the interface with a var _ line so signature drift fails to compile
//  3. Return the mock itself from WithTx
package mocks
