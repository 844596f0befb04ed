// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txauthor

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil"
)

var (
	// ErrAddressNetworkMismatch is returned when an output address does
	// not belong to the network the builder was created for.
	ErrAddressNetworkMismatch = errors.New("address is not for the " +
		"active network")

	// ErrSignatureCount is returned when the number of signatures handed
	// to FinalizeTransaction differs from the number of inputs.
	ErrSignatureCount = errors.New("signature count does not match " +
		"input count")

	// ErrNoFunding is returned when the richest address of an empty
	// funding set is requested.
	ErrNoFunding = errors.New("no funding outputs")
)

// InputSourceError describes the failure to provide enough input value from
// unspent transaction outputs to meet a target amount.  A typed error is used
// so other selection policies can provide their own implementations
// describing the reason for the error.
type InputSourceError interface {
	error
	InputSourceError()
}

// InsufficientFundsError is returned when the spendable outputs can not pay
// for the desired outputs plus the miner fee.
type InsufficientFundsError struct {
	Sending btcutil.Amount
	Fee     btcutil.Amount
}

// InputSourceError marks InsufficientFundsError as an InputSourceError.
func (*InsufficientFundsError) InputSourceError() {}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds to send %v with fee %v",
		e.Sending, e.Fee)
}

// OutputTooSmallError is returned when an output below the dust limit is
// added.
type OutputTooSmallError struct {
	Value btcutil.Amount
}

func (e *OutputTooSmallError) Error() string {
	return fmt.Sprintf("an output was added with a value of %v, which is "+
		"smaller than the minimum accepted by the network", e.Value)
}

// UnableToBuildTransactionError is returned when an assembled transaction
// fails a sanity check or an internal invariant does not hold.
type UnableToBuildTransactionError struct {
	Reason string
}

func (e *UnableToBuildTransactionError) Error() string {
	return "unable to build transaction: " + e.Reason
}

func unableToBuild(format string, a ...interface{}) error {
	return &UnableToBuildTransactionError{Reason: fmt.Sprintf(format, a...)}
}
