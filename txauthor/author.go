// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txauthor provides transaction creation code for wallets.
//
// A Builder collects the outputs to pay, selects funding outputs oldest
// first, settles the miner fee together with an optional change output and
// returns an UnsignedTransaction with one SigningRequest per input.  The
// signatures produced for those requests are turned into a final
// transaction by FinalizeTransaction.
package txauthor

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcutil"
	"github.com/btcutils/txbuilder/model"
	"github.com/btcutils/txbuilder/txrules"
	"github.com/btcutils/txbuilder/txsizes"
)

// NoSequence is the sequence number given to every input.  It marks the
// inputs as final.
const NoSequence = wire.MaxTxInSequenceNum

// txVersion is the version of the transactions produced.
const txVersion = 1

// UnsignedTransaction is a fully specified transaction lacking only the
// input signatures.  SigningRequests holds one request per funding output,
// in the same order.
type UnsignedTransaction struct {
	Outputs         []*wire.TxOut
	Funding         []*model.SpendableOutput
	SigningRequests []*SigningRequest
	LockTime        uint32
	DefaultSequence uint32
	ChangeIndex     int // negative if no change
}

// TotalInput returns the value of all funding outputs.
func (tx *UnsignedTransaction) TotalInput() btcutil.Amount {
	return model.SumValues(tx.Funding)
}

// TotalOutput returns the value of all outputs, change included.
func (tx *UnsignedTransaction) TotalOutput() btcutil.Amount {
	return SumOutputValues(tx.Outputs)
}

// Fee returns the miner fee the transaction pays.
func (tx *UnsignedTransaction) Fee() btcutil.Amount {
	return tx.TotalInput() - tx.TotalOutput()
}

// PrevScripts returns the scripts of the funding outputs in input order.
func (tx *UnsignedTransaction) PrevScripts() [][]byte {
	scripts := make([][]byte, len(tx.Funding))
	for i, output := range tx.Funding {
		scripts[i] = output.PkScript
	}
	return scripts
}

// PrevInputValues returns the values of the funding outputs in input order.
func (tx *UnsignedTransaction) PrevInputValues() []btcutil.Amount {
	values := make([]btcutil.Amount, len(tx.Funding))
	for i, output := range tx.Funding {
		values[i] = output.Value
	}
	return values
}

// MsgTx returns the transaction with empty signature scripts and witnesses.
// This is the transaction the signing requests commit to.  The returned
// transaction has its own output slice.
func (tx *UnsignedTransaction) MsgTx() *wire.MsgTx {
	msgTx := &wire.MsgTx{
		Version:  txVersion,
		TxIn:     make([]*wire.TxIn, 0, len(tx.Funding)),
		TxOut:    append([]*wire.TxOut(nil), tx.Outputs...),
		LockTime: tx.LockTime,
	}
	for _, output := range tx.Funding {
		prevOut := output.OutPoint
		txIn := wire.NewTxIn(&prevOut, nil, nil)
		txIn.Sequence = tx.DefaultSequence
		msgTx.TxIn = append(msgTx.TxIn, txIn)
	}
	return msgTx
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithRand sets the randomness used to place the change output and to order
// the inputs.
func WithRand(rng Rand) BuilderOption {
	return func(b *Builder) {
		b.rand = rng
	}
}

// Builder assembles unsigned transactions for one network.  A Builder must
// not be used concurrently.
type Builder struct {
	params  *chaincfg.Params
	outputs []*wire.TxOut
	rand    Rand
}

// NewBuilder returns a Builder without outputs for the network params.
func NewBuilder(params *chaincfg.Params, opts ...BuilderOption) *Builder {
	b := &Builder{
		params: params,
		rand:   cprng,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// CreateUnsignedTransaction creates an unsigned transaction paying all added
// outputs from inventory and computes the miner fee at feeRatePerKb satoshi
// per 1000 bytes.
//
// Change below the dust limit is left to the miner.  Otherwise a change
// output is inserted at a random position.  If changeAddr is nil, the change
// goes to the address contributing the most value to the funding.  keyRing
// must know the public key of every funding output.
//
// The inventory is never modified.  An InsufficientFundsError is returned if
// it can not pay for the outputs and the fee, an
// UnableToBuildTransactionError if the result fails a sanity check.
func (b *Builder) CreateUnsignedTransaction(inventory []*model.SpendableOutput,
	changeAddr btcutil.Address, keyRing PublicKeyRing,
	feeRatePerKb btcutil.Amount) (*UnsignedTransaction, error) {

	if len(b.outputs) == 0 {
		return nil, unableToBuild("no outputs to pay")
	}
	if feeRatePerKb < 0 {
		return nil, unableToBuild("negative fee rate %v", feeRatePerKb)
	}

	selector := NewFifoCoinSelector(b.outputs, feeRatePerKb)
	selection, err := selector.Select(inventory)
	if err != nil {
		return nil, err
	}

	outputSum := selection.OutputSum
	funding := PruneRedundantOutputs(
		selection.Funding, selection.Fee+outputSum, b.rand,
	)

	// The number of inputs might have changed, settle the fee again.
	estimate := settleFee(funding, len(b.outputs), outputSum, feeRatePerKb)
	found := model.SumValues(funding)
	toSend := estimate.fee + outputSum
	if found < toSend {
		return nil, &InsufficientFundsError{
			Sending: outputSum,
			Fee:     estimate.fee,
		}
	}

	outputs := make([]*wire.TxOut, len(b.outputs), len(b.outputs)+1)
	copy(outputs, b.outputs)

	// Without a change output the remainder, dust or not, goes to the
	// miner.
	changeIndex := -1
	if change := found - toSend; estimate.change {
		if changeAddr == nil {
			changeAddr, err = RichestAddress(funding, b.params)
			if err != nil {
				return nil, err
			}
		}
		changeOutput, err := CreateOutput(changeAddr, change, b.params)
		if err != nil {
			return nil, err
		}

		// Select a random position for our change so it is harder to
		// analyze our addresses in the block chain.
		changeIndex = b.rand.Intn(len(outputs) + 1)
		outputs = append(outputs, nil)
		copy(outputs[changeIndex+1:], outputs[changeIndex:])
		outputs[changeIndex] = changeOutput
	}

	unsignedTx := &UnsignedTransaction{
		Outputs:         outputs,
		Funding:         funding,
		LockTime:        0,
		DefaultSequence: NoSequence,
		ChangeIndex:     changeIndex,
	}
	unsignedTx.SigningRequests, err = newSigningRequests(
		unsignedTx, keyRing, b.params,
	)
	if err != nil {
		return nil, err
	}

	// Check for a reasonable fee.  Anything above the ceiling is very
	// likely a bug in the fee estimation or transaction composition.
	size := txsizes.EstimateSize(len(funding), len(outputs),
		SegwitInputCount(funding))
	fee := unsignedTx.Fee()
	if !txrules.IsFeeSane(fee, size) {
		return nil, unableToBuild("unreasonable high transaction fee "+
			"of %v/kB on a %d byte transaction: fee %v, requested "+
			"rate %v/kB", txrules.FeePerKb(fee, size), size, fee,
			feeRatePerKb)
	}

	log.Debugf("Created transaction spending %d %s, %d %s, fee %v, "+
		"change index %d", len(funding), pickNoun(len(funding),
		"input", "inputs"), len(outputs), pickNoun(len(outputs),
		"output", "outputs"), fee, changeIndex)

	return unsignedTx, nil
}

// RichestAddress returns the address that contributes the most value to
// funding.  Ties go to the address that sorts first.
func RichestAddress(funding []*model.SpendableOutput,
	params *chaincfg.Params) (btcutil.Address, error) {

	if len(funding) == 0 {
		return nil, ErrNoFunding
	}

	var (
		sums      = make(map[string]btcutil.Amount)
		addresses = make(map[string]btcutil.Address)
	)
	for _, output := range funding {
		addr, err := scriptAddress(output.PkScript, params)
		if err != nil {
			return nil, err
		}
		encoded := addr.EncodeAddress()
		sums[encoded] += output.Value
		addresses[encoded] = addr
	}

	var (
		richest string
		maxSum  btcutil.Amount = -1
	)
	for encoded, sum := range sums {
		if sum > maxSum || (sum == maxSum && encoded < richest) {
			richest = encoded
			maxSum = sum
		}
	}
	return addresses[richest], nil
}

// scriptAddress recovers the address paid by pkScript.
func scriptAddress(pkScript []byte, params *chaincfg.Params) (btcutil.Address,
	error) {

	_, addrs, _, err := txscript.ExtractPkScriptAddrs(pkScript, params)
	if err != nil {
		return nil, err
	}
	if len(addrs) != 1 {
		return nil, unableToBuild("no single address for script %x",
			pkScript)
	}
	return addrs[0], nil
}
