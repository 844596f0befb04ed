// Command signtx builds, signs and prints a transaction paying one address
// from the outputs of a BIP32 key derived from a BIP39 mnemonic.
package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcutils/txbuilder/keyring"
	"github.com/btcutils/txbuilder/model"
	"github.com/btcutils/txbuilder/txauthor"
	"github.com/jessevdk/go-flags"
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}

	if err := signTx(cfg, os.Stdout); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

// signTx derives the spending key of cfg, spends the given outputs and
// writes the transaction hash and raw transaction to w.
func signTx(cfg *config, w io.Writer) error {
	raw, err := hex.DecodeString(cfg.UTXOs)
	if err != nil {
		return fmt.Errorf("decode utxos: %w", err)
	}
	utxos, err := model.ParseUTXOs(raw)
	if err != nil {
		return err
	}

	km, err := keyring.NewKeyManager(cfg.mnemonic, cfg.Passphrase)
	if err != nil {
		return err
	}
	key, err := km.GetKey(cfg.purpose, keyring.CoinTypeForNet(cfg.params),
		cfg.Account, keyring.ExternalChain, cfg.Index)
	if err != nil {
		return err
	}

	ring := keyring.New(cfg.params)
	addrs, err := ring.AddPrivKey(key.PrivKey())
	if err != nil {
		return err
	}
	fundAddr, err := addrs.ForPurpose(cfg.purpose)
	if err != nil {
		return err
	}
	log.Infof("Spending from %s (%s)", fundAddr.EncodeAddress(),
		key.GetPath())

	// Records without a script pay the derived address.
	fundScript, err := txscript.PayToAddrScript(fundAddr)
	if err != nil {
		return err
	}
	inventory := make([]*model.SpendableOutput, 0, len(utxos))
	for i := range utxos {
		output, err := utxos[i].ToSpendable(fundScript)
		if err != nil {
			return err
		}
		inventory = append(inventory, output)
	}

	builder := txauthor.NewBuilder(cfg.params)
	if err := builder.AddOutput(cfg.to, cfg.amount); err != nil {
		return err
	}

	unsigned, err := builder.CreateUnsignedTransaction(
		inventory, cfg.change, ring, cfg.feeRate,
	)
	if err != nil {
		return err
	}
	log.Infof("Paying %v with fee %v from %d inputs", cfg.amount,
		unsigned.Fee(), len(unsigned.Funding))

	signatures, err := txauthor.GenerateSignatures(
		unsigned.SigningRequests, ring,
	)
	if err != nil {
		return err
	}
	tx, err := txauthor.FinalizeTransaction(unsigned, signatures)
	if err != nil {
		return err
	}

	err = txauthor.ValidateMsgTx(tx, unsigned.PrevScripts(),
		unsigned.PrevInputValues())
	if err != nil {
		return err
	}

	rawTx, err := serializeTx(tx)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "txhash:  ", tx.TxHash())
	fmt.Fprintln(w, "RawTransation:  ", hex.EncodeToString(rawTx))
	return nil
}

func serializeTx(tx *wire.MsgTx) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(tx.SerializeSize())
	if err := tx.Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
