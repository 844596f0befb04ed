package txauthor

import (
	"bytes"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcec"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcutil"
	"github.com/btcutils/txbuilder/model"
	"github.com/stretchr/testify/require"
)

var testParams = &chaincfg.MainNetParams

type scriptType uint8

const (
	p2pkh scriptType = iota
	p2wpkh
	p2shp2wpkh
)

// testKey returns a deterministic private key.
func testKey(seed byte) *btcec.PrivateKey {
	priv, _ := btcec.PrivKeyFromBytes(btcec.S256(),
		bytes.Repeat([]byte{seed}, 32))
	return priv
}

// testAddress returns the address of the given type for priv.
func testAddress(t *testing.T, priv *btcec.PrivateKey, typ scriptType,
	params *chaincfg.Params) btcutil.Address {

	t.Helper()

	pubKeyHash := btcutil.Hash160(priv.PubKey().SerializeCompressed())

	var (
		addr btcutil.Address
		err  error
	)
	switch typ {
	case p2pkh:
		addr, err = btcutil.NewAddressPubKeyHash(pubKeyHash, params)

	case p2wpkh:
		addr, err = btcutil.NewAddressWitnessPubKeyHash(
			pubKeyHash, params,
		)

	case p2shp2wpkh:
		var program []byte
		program, err = witnessProgram(priv.PubKey())
		require.NoError(t, err)
		addr, err = btcutil.NewAddressScriptHash(program, params)
	}
	require.NoError(t, err)
	return addr
}

func testScript(t *testing.T, priv *btcec.PrivateKey,
	typ scriptType) []byte {

	t.Helper()

	pkScript, err := txscript.PayToAddrScript(
		testAddress(t, priv, typ, testParams),
	)
	require.NoError(t, err)
	return pkScript
}

// testUtxo returns a spendable output whose outpoint hash starts with id.
func testUtxo(id byte, value btcutil.Amount, height int32,
	pkScript []byte) *model.SpendableOutput {

	var hash chainhash.Hash
	hash[0] = id
	return &model.SpendableOutput{
		OutPoint: *wire.NewOutPoint(&hash, uint32(id)),
		Value:    value,
		PkScript: pkScript,
		Height:   height,
	}
}

// mockKeyRing knows the P2PKH, P2WPKH and P2SH-P2WPKH addresses of its
// keys.
type mockKeyRing struct {
	byAddress map[string]*btcec.PrivateKey
	byPubKey  map[string]*btcec.PrivateKey
}

func newMockKeyRing(t *testing.T, keys ...*btcec.PrivateKey) *mockKeyRing {
	t.Helper()

	ring := &mockKeyRing{
		byAddress: make(map[string]*btcec.PrivateKey),
		byPubKey:  make(map[string]*btcec.PrivateKey),
	}
	for _, priv := range keys {
		for _, typ := range []scriptType{p2pkh, p2wpkh, p2shp2wpkh} {
			addr := testAddress(t, priv, typ, testParams)
			ring.byAddress[addr.EncodeAddress()] = priv
		}
		ring.byPubKey[string(priv.PubKey().SerializeCompressed())] = priv
	}
	return ring
}

var errUnknownKey = errors.New("unknown key")

func (r *mockKeyRing) FindPublicKeyByAddress(
	addr btcutil.Address) (*btcec.PublicKey, error) {

	priv, ok := r.byAddress[addr.EncodeAddress()]
	if !ok {
		return nil, errUnknownKey
	}
	return priv.PubKey(), nil
}

func (r *mockKeyRing) FindSignerByPublicKey(
	pubKey *btcec.PublicKey) (Signer, error) {

	priv, ok := r.byPubKey[string(pubKey.SerializeCompressed())]
	if !ok {
		return nil, errUnknownKey
	}
	return mockSigner{priv: priv}, nil
}

type mockSigner struct {
	priv *btcec.PrivateKey
}

func (s mockSigner) Sign(req *SigningRequest) ([]byte, error) {
	sig, err := s.priv.Sign(req.ToSign)
	if err != nil {
		return nil, err
	}
	return append(sig.Serialize(), byte(txscript.SigHashAll)), nil
}

// fixedRand places the change at pos, or last when pos is out of range,
// and leaves shuffled slices untouched.
type fixedRand struct {
	pos int
}

func (r *fixedRand) Intn(n int) int {
	if r.pos >= n {
		return n - 1
	}
	return r.pos
}

func (r *fixedRand) Shuffle(int, func(i, j int)) {}

// reverseRand reverses shuffled slices.
type reverseRand struct {
	fixedRand
}

func (r *reverseRand) Shuffle(n int, swap func(i, j int)) {
	for i := 0; i < n/2; i++ {
		swap(i, n-1-i)
	}
}
