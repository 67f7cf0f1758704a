// Package services orchestrates registration, authentication, the catalog,
// and the purchase pipeline. Every business rule is applied here, before any
// persistence call; the store below applies none.
//
// Services recover their own errors: a rejected operation is logged with its
// reason and reported to the caller as false (or nil), never as a propagated
// error.
package services

import (
	"errors"
	"log"
)

var (
	// ErrValidation marks malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrUnderage marks an age-gate failure.
	ErrUnderage = errors.New("age requirement not met")
	// ErrAlreadyExists marks a uniqueness conflict.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotFound marks an operation on a record that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials marks an authentication mismatch.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInsufficientFunds marks a wallet shortfall during purchase.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrNegativeBalance guards the wallet invariant: balance never drops
	// below zero.
	ErrNegativeBalance = errors.New("wallet balance cannot be negative")
)

// report logs a rejected operation. This is the single side effect of a
// failed precondition; callers see only the boolean/nil result.
func report(op string, err error) {
	log.Printf("[%s] %v", op, err)
}
