// Package keyring derives signing keys from a BIP39 mnemonic along BIP32
// paths and serves them to the transaction author as a key ring.
package keyring

import (
	"errors"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
)

// Purpose is a hardened BIP43 purpose index.
type Purpose = uint32

const (
	PurposeBIP44 Purpose = 0x8000002C // 44' BIP44
	PurposeBIP49 Purpose = 0x80000031 // 49' BIP49
	PurposeBIP84 Purpose = 0x80000054 // 84' BIP84
)

// CoinType is a hardened BIP44 coin type index.
type CoinType = uint32

const (
	CoinTypeBTC CoinType = 0x80000000
	TypeTestnet CoinType = 0x80000001
)

// Apostrophe is the offset of hardened child indexes.
const Apostrophe uint32 = 0x80000000 // 0'

// Chain constants of the BIP44 change level.
const (
	ExternalChain uint32 = 0
	InternalChain uint32 = 1
)

// ErrInvalidMnemonic is returned for a mnemonic with unknown words or a bad
// checksum.
var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// CoinTypeForNet returns the BIP44 coin type of params.  Every network but
// mainnet uses the testnet coin type.
func CoinTypeForNet(params *chaincfg.Params) CoinType {
	if params.Net == chaincfg.MainNetParams.Net {
		return CoinTypeBTC
	}
	return TypeTestnet
}

// Key is a derived child key together with its derivation path.
type Key struct {
	path     string
	bip32Key *bip32.Key
}

// PrivKey returns the private key of k.
func (k *Key) PrivKey() *btcec.PrivateKey {
	priv, _ := btcec.PrivKeyFromBytes(btcec.S256(), k.bip32Key.Key)
	return priv
}

// GetPath returns the derivation path of k.
func (k *Key) GetPath() string {
	return k.path
}

// KeyManager derives and caches the keys of one mnemonic.  It is safe for
// concurrent use.
type KeyManager struct {
	mnemonic   string
	passphrase string
	keys       map[string]*bip32.Key
	mux        sync.Mutex
}

// NewKeyManager returns a KeyManager for mnemonic, salted with passphrase.
func NewKeyManager(mnemonic, passphrase string) (*KeyManager, error) {
	if !isMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	km := &KeyManager{
		mnemonic:   mnemonic,
		passphrase: passphrase,
		keys:       make(map[string]*bip32.Key),
	}
	return km, nil
}

// isMnemonicValid checks the words of mnemonic and its checksum.
func isMnemonicValid(mnemonic string) bool {
	_, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	return err == nil
}

// GetMnemonic returns the mnemonic the keys are derived from.
func (km *KeyManager) GetMnemonic() string {
	return km.mnemonic
}

// GetPassphrase returns the BIP39 passphrase.
func (km *KeyManager) GetPassphrase() string {
	return km.passphrase
}

// GetSeed returns the BIP39 seed of the mnemonic and passphrase.
func (km *KeyManager) GetSeed() []byte {
	return bip39.NewSeed(km.GetMnemonic(), km.GetPassphrase())
}

func (km *KeyManager) getKey(path string) (*bip32.Key, bool) {
	km.mux.Lock()
	defer km.mux.Unlock()

	key, ok := km.keys[path]
	return key, ok
}

func (km *KeyManager) setKey(path string, key *bip32.Key) {
	km.mux.Lock()
	defer km.mux.Unlock()

	km.keys[path] = key
}

// GetMasterKey returns the root key m.
func (km *KeyManager) GetMasterKey() (*bip32.Key, error) {
	path := "m"

	key, ok := km.getKey(path)
	if ok {
		return key, nil
	}

	key, err := bip32.NewMasterKey(km.GetSeed())
	if err != nil {
		return nil, err
	}

	km.setKey(path, key)

	return key, nil
}

// deriveChild returns the cached key at path or derives it as child index
// of the key returned by parent.
func (km *KeyManager) deriveChild(parent func() (*bip32.Key, error),
	path string, index uint32) (*bip32.Key, error) {

	key, ok := km.getKey(path)
	if ok {
		return key, nil
	}

	parentKey, err := parent()
	if err != nil {
		return nil, err
	}

	key, err = parentKey.NewChildKey(index)
	if err != nil {
		return nil, fmt.Errorf("derive %s: %w", path, err)
	}

	km.setKey(path, key)

	return key, nil
}

// GetPurposeKey returns the key at m/purpose'.
func (km *KeyManager) GetPurposeKey(purpose uint32) (*bip32.Key, error) {
	path := fmt.Sprintf(`m/%d'`, purpose-Apostrophe)
	return km.deriveChild(km.GetMasterKey, path, purpose)
}

// GetCoinTypeKey returns the key at m/purpose'/coinType'.
func (km *KeyManager) GetCoinTypeKey(purpose, coinType uint32) (*bip32.Key, error) {
	path := fmt.Sprintf(`m/%d'/%d'`, purpose-Apostrophe, coinType-Apostrophe)
	return km.deriveChild(func() (*bip32.Key, error) {
		return km.GetPurposeKey(purpose)
	}, path, coinType)
}

// GetAccountKey returns the key at m/purpose'/coinType'/account'.
func (km *KeyManager) GetAccountKey(purpose, coinType, account uint32) (*bip32.Key, error) {
	path := fmt.Sprintf(`m/%d'/%d'/%d'`, purpose-Apostrophe, coinType-Apostrophe, account)
	return km.deriveChild(func() (*bip32.Key, error) {
		return km.GetCoinTypeKey(purpose, coinType)
	}, path, account+Apostrophe)
}

// GetChangeKey ...
// https://github.com/bitcoin/bips/blob/master/bip-0044.mediawiki#change
// change constant 0 is used for external chain
// change constant 1 is used for internal chain (also known as change addresses)
func (km *KeyManager) GetChangeKey(purpose, coinType, account, change uint32) (*bip32.Key, error) {
	path := fmt.Sprintf(`m/%d'/%d'/%d'/%d`, purpose-Apostrophe, coinType-Apostrophe, account, change)
	return km.deriveChild(func() (*bip32.Key, error) {
		return km.GetAccountKey(purpose, coinType, account)
	}, path, change)
}

// GetKey returns the key at m/purpose'/coinType'/account'/change/index.
func (km *KeyManager) GetKey(purpose, coinType, account, change, index uint32) (*Key, error) {
	path := fmt.Sprintf(`m/%d'/%d'/%d'/%d/%d`, purpose-Apostrophe, coinType-Apostrophe, account, change, index)
	key, err := km.deriveChild(func() (*bip32.Key, error) {
		return km.GetChangeKey(purpose, coinType, account, change)
	}, path, index)
	if err != nil {
		return nil, err
	}
	return &Key{path: path, bip32Key: key}, nil
}
