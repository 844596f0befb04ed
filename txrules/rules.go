// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txrules provides the policy limits that transaction outputs and
// fees are checked against.
package txrules

import (
	"errors"

	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcutil"
)

const (
	// DustLimit is the smallest output value accepted by the network.
	DustLimit btcutil.Amount = 546

	// MaxMinerFeePerKb is the highest fee rate, in satoshi per 1000
	// bytes, an assembled transaction may pay. Anything above it points
	// at a broken fee estimate rather than a user choice.
	MaxMinerFeePerKb btcutil.Amount = 4000000
)

// Transaction rule violations
var (
	ErrAmountNegative   = errors.New("transaction output amount is negative")
	ErrAmountExceedsMax = errors.New("transaction output amount exceeds maximum value")
	ErrOutputIsDust     = errors.New("transaction output is dust")
)

// IsDustAmount reports whether amount is below the dust limit.
func IsDustAmount(amount btcutil.Amount) bool {
	return amount < DustLimit
}

// CheckOutput performs simple consensus and policy tests on a transaction
// output.
func CheckOutput(output *wire.TxOut) error {
	if output.Value < 0 {
		return ErrAmountNegative
	}
	if output.Value > btcutil.MaxSatoshi {
		return ErrAmountExceedsMax
	}
	if IsDustAmount(btcutil.Amount(output.Value)) {
		return ErrOutputIsDust
	}
	return nil
}

// FeePerKb returns the fee rate, in satoshi per 1000 bytes, that fee pays
// for a transaction of size bytes.
func FeePerKb(fee btcutil.Amount, size int) btcutil.Amount {
	if size <= 0 {
		return 0
	}
	return fee * 1000 / btcutil.Amount(size)
}

// IsFeeSane reports whether fee for a transaction of size bytes stays at or
// below MaxMinerFeePerKb.
func IsFeeSane(fee btcutil.Amount, size int) bool {
	return FeePerKb(fee, size) <= MaxMinerFeePerKb
}
