// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txauthor

import (
	"github.com/btcsuite/btcd/btcec"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcutil"
)

// SigningRequest is the digest one input must be signed over and the public
// key whose signature unlocks it.
type SigningRequest struct {
	InputIndex int
	ToSign     []byte
	PublicKey  *btcec.PublicKey
}

// PublicKeyRing provides the public keys of the addresses funding a
// transaction.
type PublicKeyRing interface {
	FindPublicKeyByAddress(addr btcutil.Address) (*btcec.PublicKey, error)
}

// Signer produces a signature for a signing request.  The returned bytes
// are a DER signature followed by the sighash type.
type Signer interface {
	Sign(req *SigningRequest) ([]byte, error)
}

// PrivateKeyRing looks up the Signer owning a public key.
type PrivateKeyRing interface {
	FindSignerByPublicKey(pubKey *btcec.PublicKey) (Signer, error)
}

// inputKind tells how an input is unlocked.
type inputKind uint8

const (
	// legacyInput is unlocked by a signature script.
	legacyInput inputKind = iota

	// nestedWitnessInput spends a P2SH output assumed to wrap a P2WPKH
	// program.  The signature script pushes the program, the witness
	// holds the signature.
	nestedWitnessInput

	// witnessInput spends a native P2WPKH or P2WSH output.
	witnessInput
)

func classifyInput(pkScript []byte) inputKind {
	switch {
	case txscript.IsPayToWitnessPubKeyHash(pkScript),
		txscript.IsPayToWitnessScriptHash(pkScript):

		return witnessInput

	case txscript.IsPayToScriptHash(pkScript):
		return nestedWitnessInput

	default:
		return legacyInput
	}
}

// witnessProgram returns the P2WPKH program of pubKey.  The program is the
// same on every network.
func witnessProgram(pubKey *btcec.PublicKey) ([]byte, error) {
	pubKeyHash := btcutil.Hash160(pubKey.SerializeCompressed())
	return txscript.NewScriptBuilder().AddOp(txscript.OP_0).
		AddData(pubKeyHash).Script()
}

// newSigningRequests computes the digest of every input of tx.  Legacy
// inputs commit to the funding script, witness inputs use the BIP0143
// digest which also commits to the input value.
func newSigningRequests(tx *UnsignedTransaction, keyRing PublicKeyRing,
	params *chaincfg.Params) ([]*SigningRequest, error) {

	msgTx := tx.MsgTx()
	hashCache := txscript.NewTxSigHashes(msgTx)

	requests := make([]*SigningRequest, 0, len(tx.Funding))
	for i, output := range tx.Funding {
		addr, err := scriptAddress(output.PkScript, params)
		if err != nil {
			return nil, err
		}
		pubKey, err := keyRing.FindPublicKeyByAddress(addr)
		if err != nil || pubKey == nil {
			return nil, unableToBuild("no public key for %s: %v",
				addr.EncodeAddress(), err)
		}

		var toSign []byte
		switch classifyInput(output.PkScript) {
		case witnessInput:
			toSign, err = txscript.CalcWitnessSigHash(
				output.PkScript, hashCache, txscript.SigHashAll,
				msgTx, i, int64(output.Value),
			)

		case nestedWitnessInput:
			var program []byte
			program, err = witnessProgram(pubKey)
			if err != nil {
				return nil, err
			}
			toSign, err = txscript.CalcWitnessSigHash(
				program, hashCache, txscript.SigHashAll,
				msgTx, i, int64(output.Value),
			)

		default:
			toSign, err = txscript.CalcSignatureHash(
				output.PkScript, txscript.SigHashAll, msgTx, i,
			)
		}
		if err != nil {
			return nil, err
		}

		requests = append(requests, &SigningRequest{
			InputIndex: i,
			ToSign:     toSign,
			PublicKey:  pubKey,
		})
	}
	return requests, nil
}

// GenerateSignatures signs every request with the signer found in keyRing.
// A request whose key is unknown means the key ring does not match the
// funding and is reported as an UnableToBuildTransactionError.
func GenerateSignatures(requests []*SigningRequest,
	keyRing PrivateKeyRing) ([][]byte, error) {

	signatures := make([][]byte, 0, len(requests))
	for _, req := range requests {
		signer, err := keyRing.FindSignerByPublicKey(req.PublicKey)
		if err != nil || signer == nil {
			return nil, unableToBuild("private key not found for "+
				"input %d", req.InputIndex)
		}

		signature, err := signer.Sign(req)
		if err != nil {
			return nil, err
		}
		signatures = append(signatures, signature)
	}
	return signatures, nil
}
