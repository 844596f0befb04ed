package model

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcutil"
)

// UnconfirmedHeight is the height recorded for outputs that are not yet
// mined. Any height <= 0 is treated the same way.
const UnconfirmedHeight int32 = -1

// SpendableOutput is an unspent transaction output the wallet can fund a
// transaction with. It is never mutated once observed.
type SpendableOutput struct {
	OutPoint wire.OutPoint
	Value    btcutil.Amount
	PkScript []byte
	Height   int32
}

// IsConfirmed reports whether the output has been mined.
func (o *SpendableOutput) IsConfirmed() bool {
	return o.Height > 0
}

// TxOut returns the output as it appears in the funding transaction.
func (o *SpendableOutput) TxOut() *wire.TxOut {
	return wire.NewTxOut(int64(o.Value), o.PkScript)
}

func (o *SpendableOutput) String() string {
	return fmt.Sprintf("%v (%v @ %d)", o.OutPoint, o.Value, o.Height)
}

// SumValues returns the total value of outputs.
func SumValues(outputs []*SpendableOutput) (total btcutil.Amount) {
	for _, o := range outputs {
		total += o.Value
	}
	return total
}

// UTXO is an unspent output as reported by a block explorer.
type UTXO struct {
	Hash        string `json:"tx_hash"`
	Height      int32  `json:"block_height"`
	TxOutput    uint32 `json:"tx_output_n"`
	Value       int64  `json:"value"`
	Script      string `json:"script"`
	Confirm     int    `json:"confirmations"`
	Spent       bool   `json:"spent"`
	DoubleSpend bool   `json:"double_spend"`
}

// ToSpendable converts the record into a SpendableOutput. The hex encoded
// script of the record is used when present, fallbackScript otherwise.
func (u *UTXO) ToSpendable(fallbackScript []byte) (*SpendableOutput, error) {
	hash, err := chainhash.NewHashFromStr(u.Hash)
	if err != nil {
		return nil, fmt.Errorf("invalid tx hash %q: %v", u.Hash, err)
	}
	if u.Value <= 0 || u.Value > btcutil.MaxSatoshi {
		return nil, fmt.Errorf("invalid value %d for %s:%d", u.Value,
			u.Hash, u.TxOutput)
	}

	pkScript := fallbackScript
	if u.Script != "" {
		pkScript, err = hex.DecodeString(u.Script)
		if err != nil {
			return nil, fmt.Errorf("invalid script for %s:%d: %v",
				u.Hash, u.TxOutput, err)
		}
	}
	if len(pkScript) == 0 {
		return nil, fmt.Errorf("no script for %s:%d", u.Hash, u.TxOutput)
	}

	height := u.Height
	if u.Confirm == 0 || height <= 0 {
		height = UnconfirmedHeight
	}

	return &SpendableOutput{
		OutPoint: *wire.NewOutPoint(hash, u.TxOutput),
		Value:    btcutil.Amount(u.Value),
		PkScript: pkScript,
		Height:   height,
	}, nil
}

// ParseUTXOs decodes a JSON array of explorer records. Spent and double
// spent records are dropped.
func ParseUTXOs(data []byte) ([]UTXO, error) {
	var utxos []UTXO
	if err := json.Unmarshal(data, &utxos); err != nil {
		return nil, err
	}

	unspent := utxos[:0]
	for _, u := range utxos {
		if u.Spent || u.DoubleSpend {
			continue
		}
		unspent = append(unspent, u)
	}
	return unspent, nil
}
