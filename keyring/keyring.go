package keyring

import (
	"errors"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcutil"
	"github.com/btcutils/txbuilder/txauthor"
)

// ErrUnknownKey is returned when a key ring lookup misses.
var ErrUnknownKey = errors.New("key not in key ring")

// Addresses holds the addresses one key can receive on.
type Addresses struct {
	PubKeyHash   *btcutil.AddressPubKeyHash
	SegwitBech32 *btcutil.AddressWitnessPubKeyHash
	SegwitNested *btcutil.AddressScriptHash
}

// ForPurpose returns the address a BIP44, BIP49 or BIP84 wallet hands out.
func (a *Addresses) ForPurpose(purpose Purpose) (btcutil.Address, error) {
	switch purpose {
	case PurposeBIP44:
		return a.PubKeyHash, nil
	case PurposeBIP49:
		return a.SegwitNested, nil
	case PurposeBIP84:
		return a.SegwitBech32, nil
	}
	return nil, fmt.Errorf("unknown purpose %d'", purpose-Apostrophe)
}

// GenerateFromBytes returns the P2PKH, P2WPKH and P2SH-P2WPKH addresses of
// the compressed public key of prvKey.
func GenerateFromBytes(prvKey *btcec.PrivateKey,
	activeNetParams *chaincfg.Params) (*Addresses, error) {

	serializedPubKey := prvKey.PubKey().SerializeCompressed()
	pubKeyHash := btcutil.Hash160(serializedPubKey)

	addressPubKeyHash, err := btcutil.NewAddressPubKeyHash(
		pubKeyHash, activeNetParams,
	)
	if err != nil {
		return nil, err
	}

	segwitBech32, err := btcutil.NewAddressWitnessPubKeyHash(
		pubKeyHash, activeNetParams,
	)
	if err != nil {
		return nil, err
	}

	// The nested address commits to the witness program as redeem
	// script.
	serializedScript, err := txscript.PayToAddrScript(segwitBech32)
	if err != nil {
		return nil, err
	}
	segwitNested, err := btcutil.NewAddressScriptHash(
		serializedScript, activeNetParams,
	)
	if err != nil {
		return nil, err
	}

	return &Addresses{
		PubKeyHash:   addressPubKeyHash,
		SegwitBech32: segwitBech32,
		SegwitNested: segwitNested,
	}, nil
}

// KeyRing maps addresses to public keys and public keys to signers for the
// keys added to it.  It is safe for concurrent use.
type KeyRing struct {
	params *chaincfg.Params

	mu        sync.RWMutex
	byAddress map[string]*btcec.PrivateKey
	byPubKey  map[string]*btcec.PrivateKey
}

var (
	_ txauthor.PublicKeyRing  = (*KeyRing)(nil)
	_ txauthor.PrivateKeyRing = (*KeyRing)(nil)
)

// New returns an empty KeyRing for params.
func New(params *chaincfg.Params) *KeyRing {
	return &KeyRing{
		params:    params,
		byAddress: make(map[string]*btcec.PrivateKey),
		byPubKey:  make(map[string]*btcec.PrivateKey),
	}
}

// AddPrivKey registers every address of priv and returns them.
func (r *KeyRing) AddPrivKey(priv *btcec.PrivateKey) (*Addresses, error) {
	addrs, err := GenerateFromBytes(priv, r.params)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, addr := range []btcutil.Address{
		addrs.PubKeyHash, addrs.SegwitBech32, addrs.SegwitNested,
	} {
		r.byAddress[addr.EncodeAddress()] = priv
	}
	r.byPubKey[string(priv.PubKey().SerializeCompressed())] = priv

	return addrs, nil
}

// AddWIF registers the key of a wallet import format string.
func (r *KeyRing) AddWIF(encoded string) (*Addresses, error) {
	wif, err := btcutil.DecodeWIF(encoded)
	if err != nil {
		return nil, err
	}
	if !wif.IsForNet(r.params) {
		return nil, txauthor.ErrAddressNetworkMismatch
	}
	return r.AddPrivKey(wif.PrivKey)
}

// FindPublicKeyByAddress returns the public key paid by addr.
func (r *KeyRing) FindPublicKeyByAddress(
	addr btcutil.Address) (*btcec.PublicKey, error) {

	r.mu.RLock()
	priv, ok := r.byAddress[addr.EncodeAddress()]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey,
			addr.EncodeAddress())
	}
	return priv.PubKey(), nil
}

// FindSignerByPublicKey returns a signer for the private key of pubKey.
func (r *KeyRing) FindSignerByPublicKey(
	pubKey *btcec.PublicKey) (txauthor.Signer, error) {

	r.mu.RLock()
	priv, ok := r.byPubKey[string(pubKey.SerializeCompressed())]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %x", ErrUnknownKey,
			pubKey.SerializeCompressed())
	}
	return &privKeySigner{priv: priv}, nil
}

// privKeySigner signs with SIGHASH_ALL.
type privKeySigner struct {
	priv *btcec.PrivateKey
}

func (s *privKeySigner) Sign(req *txauthor.SigningRequest) ([]byte, error) {
	sig, err := s.priv.Sign(req.ToSign)
	if err != nil {
		return nil, err
	}
	return append(sig.Serialize(), byte(txscript.SigHashAll)), nil
}
