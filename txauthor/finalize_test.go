package txauthor

import (
	"bytes"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcec"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcutil"
	"github.com/btcutils/txbuilder/model"
	"github.com/stretchr/testify/require"
)

// mixedTransaction builds a transaction spending one P2PKH, one P2WPKH and
// one P2SH-P2WPKH output, in that input order.
func mixedTransaction(t *testing.T) (*UnsignedTransaction, *mockKeyRing) {
	t.Helper()

	keys := []*btcec.PrivateKey{testKey(1), testKey(2), testKey(3)}
	keyRing := newMockKeyRing(t, keys...)
	pool := []*model.SpendableOutput{
		testUtxo(1, 20000, 10, testScript(t, keys[0], p2pkh)),
		testUtxo(2, 20000, 11, testScript(t, keys[1], p2wpkh)),
		testUtxo(3, 20000, 12, testScript(t, keys[2], p2shp2wpkh)),
	}

	b := newTestBuilder(t, &fixedRand{}, 55000)
	unsigned, err := b.CreateUnsignedTransaction(pool, nil, keyRing, 1000)
	require.NoError(t, err)
	require.Len(t, unsigned.Funding, 3)
	require.Equal(t, btcutil.Amount(360), unsigned.Fee())
	require.Equal(t, pool[0].OutPoint, unsigned.Funding[0].OutPoint)
	require.Equal(t, pool[2].OutPoint, unsigned.Funding[2].OutPoint)

	return unsigned, keyRing
}

func TestFinalizeTransaction(t *testing.T) {
	t.Parallel()

	unsigned, keyRing := mixedTransaction(t)

	signatures, err := GenerateSignatures(unsigned.SigningRequests, keyRing)
	require.NoError(t, err)
	require.Len(t, signatures, 3)
	for _, sig := range signatures {
		require.Equal(t, byte(txscript.SigHashAll), sig[len(sig)-1])
	}

	tx, err := FinalizeTransaction(unsigned, signatures)
	require.NoError(t, err)
	require.Equal(t, int32(1), tx.Version)
	require.Equal(t, uint32(0), tx.LockTime)
	require.Len(t, tx.TxOut, 2)

	err = ValidateMsgTx(tx, unsigned.PrevScripts(),
		unsigned.PrevInputValues())
	require.NoError(t, err)

	pubKey := func(i int) []byte {
		return unsigned.SigningRequests[i].PublicKey.SerializeCompressed()
	}

	// P2PKH: <sig> <pubkey>, no witness.
	legacyIn := tx.TxIn[0]
	require.Empty(t, legacyIn.Witness)
	pushes, err := txscript.PushedData(legacyIn.SignatureScript)
	require.NoError(t, err)
	require.Equal(t, [][]byte{signatures[0], pubKey(0)}, pushes)

	// P2WPKH: empty signature script, [sig, pubkey] witness.
	witnessIn := tx.TxIn[1]
	require.Empty(t, witnessIn.SignatureScript)
	require.Equal(t, wire.TxWitness{signatures[1], pubKey(1)},
		witnessIn.Witness)

	// P2SH-P2WPKH: the signature script pushes the witness program.
	nestedIn := tx.TxIn[2]
	program, err := witnessProgram(unsigned.SigningRequests[2].PublicKey)
	require.NoError(t, err)
	pushes, err = txscript.PushedData(nestedIn.SignatureScript)
	require.NoError(t, err)
	require.Equal(t, [][]byte{program}, pushes)
	require.Equal(t, wire.TxWitness{signatures[2], pubKey(2)},
		nestedIn.Witness)

	for _, txIn := range tx.TxIn {
		require.Equal(t, uint32(NoSequence), txIn.Sequence)
	}

	// Signature scripts are part of the id, witnesses are not.
	stripped := unsigned.MsgTx()
	for i, txIn := range tx.TxIn {
		stripped.TxIn[i].SignatureScript = txIn.SignatureScript
	}
	require.Equal(t, stripped.TxHash(), tx.TxHash())
	require.NotEqual(t, unsigned.MsgTx().TxHash(), tx.TxHash())
	require.NotEqual(t, tx.TxHash(), tx.WitnessHash())

	var buf bytes.Buffer
	require.NoError(t, tx.Serialize(&buf))
	var decoded wire.MsgTx
	require.NoError(t, decoded.Deserialize(bytes.NewReader(buf.Bytes())))
	require.Equal(t, tx.TxHash(), decoded.TxHash())
	require.Equal(t, tx.WitnessHash(), decoded.WitnessHash())
}

func TestFinalizeTransactionBadSignatures(t *testing.T) {
	t.Parallel()

	unsigned, keyRing := mixedTransaction(t)

	signatures, err := GenerateSignatures(unsigned.SigningRequests, keyRing)
	require.NoError(t, err)

	// Finalizing does not verify, validation catches the swap.
	signatures[0], signatures[1] = signatures[1], signatures[0]
	tx, err := FinalizeTransaction(unsigned, signatures)
	require.NoError(t, err)

	err = ValidateMsgTx(tx, unsigned.PrevScripts(),
		unsigned.PrevInputValues())
	require.Error(t, err)
}

func TestFinalizeTransactionSignatureCount(t *testing.T) {
	t.Parallel()

	unsigned, keyRing := mixedTransaction(t)

	signatures, err := GenerateSignatures(unsigned.SigningRequests, keyRing)
	require.NoError(t, err)

	_, err = FinalizeTransaction(unsigned, signatures[:2])
	require.True(t, errors.Is(err, ErrSignatureCount))

	_, err = FinalizeTransaction(unsigned, append(signatures, signatures[0]))
	require.True(t, errors.Is(err, ErrSignatureCount))
}

func TestGenerateSignaturesMissingSigner(t *testing.T) {
	t.Parallel()

	unsigned, _ := mixedTransaction(t)

	_, err := GenerateSignatures(unsigned.SigningRequests,
		newMockKeyRing(t, testKey(1)))
	var buildErr *UnableToBuildTransactionError
	require.True(t, errors.As(err, &buildErr))
}

func TestValidateMsgTxInputCount(t *testing.T) {
	t.Parallel()

	unsigned, _ := mixedTransaction(t)

	err := ValidateMsgTx(unsigned.MsgTx(), unsigned.PrevScripts()[:2],
		unsigned.PrevInputValues())
	require.Error(t, err)
}

func TestFinalizeTransactionNativeWitnessID(t *testing.T) {
	t.Parallel()

	keys := []*btcec.PrivateKey{testKey(1), testKey(2)}
	keyRing := newMockKeyRing(t, keys...)
	pool := []*model.SpendableOutput{
		testUtxo(1, 30000, 10, testScript(t, keys[0], p2wpkh)),
		testUtxo(2, 30000, 11, testScript(t, keys[1], p2wpkh)),
	}

	b := newTestBuilder(t, &fixedRand{}, 50000)
	unsigned, err := b.CreateUnsignedTransaction(pool, nil, keyRing, 1000)
	require.NoError(t, err)

	signatures, err := GenerateSignatures(unsigned.SigningRequests, keyRing)
	require.NoError(t, err)
	tx, err := FinalizeTransaction(unsigned, signatures)
	require.NoError(t, err)
	require.NoError(t, ValidateMsgTx(tx, unsigned.PrevScripts(),
		unsigned.PrevInputValues()))

	// Only witnesses were added, so the id the signatures committed to
	// is kept.
	require.Equal(t, unsigned.MsgTx().TxHash(), tx.TxHash())
	require.NotEqual(t, tx.TxHash(), tx.WitnessHash())
}

func TestFinalizeTransactionOwnsOutputs(t *testing.T) {
	t.Parallel()

	unsigned, keyRing := mixedTransaction(t)
	outputs := append([]*wire.TxOut(nil), unsigned.Outputs...)

	signatures, err := GenerateSignatures(unsigned.SigningRequests, keyRing)
	require.NoError(t, err)
	tx, err := FinalizeTransaction(unsigned, signatures)
	require.NoError(t, err)

	tx.TxOut[0] = wire.NewTxOut(1, nil)
	tx.TxOut = tx.TxOut[:1]
	require.Equal(t, outputs, unsigned.Outputs)

	msgTx := unsigned.MsgTx()
	msgTx.TxOut[1] = wire.NewTxOut(2, nil)
	require.Equal(t, outputs, unsigned.Outputs)
}
