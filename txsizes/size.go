// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txsizes estimates the serialized and virtual size of transactions
// and the miner fee they require. It is the only place byte sizes of inputs
// and outputs are known; callers never compute sizes themselves.
package txsizes

import (
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcutil"
)

// Worst case input and output size estimates.
const (
	// MaxInputSize is the worst case serialize size of an input redeeming
	// a compressed P2PKH output. It is calculated as:
	//
	//   - 32 bytes previous tx
	//   - 4 bytes output index
	//   - 1 byte compact int encoding value 107
	//   - 107 bytes signature script
	//   - 4 bytes sequence
	MaxInputSize = 32 + 4 + 1 + 107 + 4

	// MaxSegwitInputSize is the non-witness part of an input redeeming a
	// witness output. The unlocking data lives in the witness area. It
	// is calculated as:
	//
	//   - 32 bytes previous tx
	//   - 4 bytes output index
	//   - 4 bytes sequence
	MaxSegwitInputSize = 32 + 4 + 4

	// OutputSize is the serialize size of an output. Every output is
	// costed as P2PKH:
	//
	//   - 8 bytes output value
	//   - 1 byte compact int encoding value 25
	//   - 25 bytes P2PKH output script
	OutputSize = 8 + 1 + 25

	// versionSize and lockTimeSize are the fixed transaction fields.
	versionSize  = 4
	lockTimeSize = 4
)

// EstimateSize returns the estimated virtual size of a signed transaction
// spending inputs inputs, of which segwitInputs are witness inputs, and
// creating outputs outputs.
//
// Two estimates are made. The first assumes every input carries a full
// signature script. The second moves the unlocking data of the witness
// inputs into the witness area. The virtual size weighs them 3:1.
func EstimateSize(inputs, outputs, segwitInputs int) int {
	exceptInputs := versionSize +
		wire.VarIntSerializeSize(uint64(inputs)) +
		wire.VarIntSerializeSize(uint64(outputs)) +
		OutputSize*outputs +
		lockTimeSize

	withSignatures := exceptInputs + MaxInputSize*inputs
	withoutWitness := exceptInputs + MaxSegwitInputSize*segwitInputs +
		MaxInputSize*(inputs-segwitInputs)

	return (withoutWitness*3 + withSignatures) / 4
}

// EstimateFee returns the fee for a transaction of the estimated size at
// feeRatePerKb satoshi per 1000 bytes. Fractions of a satoshi are dropped.
func EstimateFee(inputs, outputs, segwitInputs int,
	feeRatePerKb btcutil.Amount) btcutil.Amount {

	size := EstimateSize(inputs, outputs, segwitInputs)
	return feeRatePerKb * btcutil.Amount(size) / 1000
}
