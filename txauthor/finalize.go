// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txauthor

import (
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// FinalizeTransaction combines unsigned with one signature per signing
// request into a signed transaction.  Witness inputs get an empty signature
// script and a [signature, pubkey] witness, legacy inputs a signature script
// pushing the signature and the public key.  Nested witness inputs get both:
// the witness and a signature script pushing the P2WPKH program.
//
// The signatures are not verified.
func FinalizeTransaction(unsigned *UnsignedTransaction,
	signatures [][]byte) (*wire.MsgTx, error) {

	if len(signatures) != len(unsigned.Funding) ||
		len(unsigned.SigningRequests) != len(unsigned.Funding) {

		return nil, fmt.Errorf("%w: %d signatures, %d requests, %d inputs",
			ErrSignatureCount, len(signatures),
			len(unsigned.SigningRequests), len(unsigned.Funding))
	}

	msgTx := unsigned.MsgTx()
	for i, output := range unsigned.Funding {
		txIn := msgTx.TxIn[i]
		pubKey := unsigned.SigningRequests[i].PublicKey.SerializeCompressed()

		switch classifyInput(output.PkScript) {
		case witnessInput:
			txIn.Witness = wire.TxWitness{signatures[i], pubKey}

		case nestedWitnessInput:
			program, err := witnessProgram(
				unsigned.SigningRequests[i].PublicKey,
			)
			if err != nil {
				return nil, err
			}
			sigScript, err := txscript.NewScriptBuilder().
				AddData(program).Script()
			if err != nil {
				return nil, err
			}
			txIn.SignatureScript = sigScript
			txIn.Witness = wire.TxWitness{signatures[i], pubKey}

		default:
			sigScript, err := txscript.NewScriptBuilder().
				AddData(signatures[i]).AddData(pubKey).Script()
			if err != nil {
				return nil, err
			}
			txIn.SignatureScript = sigScript
		}
	}

	return msgTx, nil
}
