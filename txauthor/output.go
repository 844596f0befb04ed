// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txauthor

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcutil"
	"github.com/btcutils/txbuilder/txrules"
)

// CreateOutput creates an output paying value to addr.  Script hash
// addresses of the network get a P2SH script and pubkey addresses a P2PKH
// script.  Witness addresses are paid with their native witness program.
func CreateOutput(addr btcutil.Address, value btcutil.Amount,
	params *chaincfg.Params) (*wire.TxOut, error) {

	if !addr.IsForNet(params) {
		return nil, fmt.Errorf("%w: %s", ErrAddressNetworkMismatch,
			addr.EncodeAddress())
	}

	var (
		pkScript []byte
		err      error
	)
	switch a := addr.(type) {
	case *btcutil.AddressScriptHash:
		pkScript, err = txscript.PayToAddrScript(a)

	case *btcutil.AddressPubKey:
		pkScript, err = txscript.PayToAddrScript(a.AddressPubKeyHash())

	case *btcutil.AddressPubKeyHash, *btcutil.AddressWitnessPubKeyHash,
		*btcutil.AddressWitnessScriptHash:

		pkScript, err = txscript.PayToAddrScript(a)

	default:
		return nil, fmt.Errorf("unsupported address type %T", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot create txout script: %v", err)
	}

	return wire.NewTxOut(int64(value), pkScript), nil
}

// AddOutput adds an output paying value to addr.  An OutputTooSmallError is
// returned when value is below the dust limit.
func (b *Builder) AddOutput(addr btcutil.Address, value btcutil.Amount) error {
	if txrules.IsDustAmount(value) {
		return &OutputTooSmallError{Value: value}
	}

	output, err := CreateOutput(addr, value, b.params)
	if err != nil {
		return err
	}
	return b.AddTxOut(output)
}

// AddTxOut adds a prebuilt output.  An OutputTooSmallError is returned when
// its value is below the dust limit.
func (b *Builder) AddTxOut(output *wire.TxOut) error {
	value := btcutil.Amount(output.Value)
	if txrules.IsDustAmount(value) {
		return &OutputTooSmallError{Value: value}
	}
	if err := txrules.CheckOutput(output); err != nil {
		return err
	}

	b.outputs = append(b.outputs, output)
	return nil
}

// AddOutputs adds every output with a non-zero value.  Adding stops at the
// first output that is rejected.
func (b *Builder) AddOutputs(outputs []*wire.TxOut) error {
	for _, output := range outputs {
		if output.Value == 0 {
			continue
		}
		if err := b.AddTxOut(output); err != nil {
			return err
		}
	}
	return nil
}

// Outputs returns a copy of the outputs added so far.
func (b *Builder) Outputs() []*wire.TxOut {
	outputs := make([]*wire.TxOut, len(b.outputs))
	copy(outputs, b.outputs)
	return outputs
}

// SumOutputValues sums up the list of TxOuts and returns an Amount.
func SumOutputValues(outputs []*wire.TxOut) (totalOutput btcutil.Amount) {
	for _, txOut := range outputs {
		totalOutput += btcutil.Amount(txOut.Value)
	}
	return totalOutput
}
