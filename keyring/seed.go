package keyring

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"github.com/btcsuite/btcutil/hdkeychain"
	"github.com/tyler-smith/go-bip39"
)

// NewMnemonic returns the mnemonic of a fresh random seed of the
// recommended length.
func NewMnemonic() (string, error) {
	seed, err := hdkeychain.GenerateSeed(hdkeychain.RecommendedSeedLen)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(seed)
}

// ParseSeed accepts either a mnemonic or the hex encoding of the entropy
// behind one and returns the mnemonic.
func ParseSeed(input string) (string, error) {
	trimmed := collapseSpace(strings.TrimSpace(input))
	if strings.Contains(trimmed, " ") {
		if !isMnemonicValid(trimmed) {
			return "", ErrInvalidMnemonic
		}
		return trimmed, nil
	}

	seed, err := hex.DecodeString(trimmed)
	if err != nil || len(seed) < hdkeychain.MinSeedBytes ||
		len(seed) > hdkeychain.MaxSeedBytes {

		return "", fmt.Errorf("invalid seed specified, must be a "+
			"hexadecimal value that is at least %d bits and "+
			"at most %d bits", hdkeychain.MinSeedBytes*8,
			hdkeychain.MaxSeedBytes*8)
	}
	mnemonic, err := bip39.NewMnemonic(seed)
	if err != nil {
		return "", fmt.Errorf("invalid seed specified: %w", err)
	}
	return mnemonic, nil
}

// collapseSpace takes a string and replaces any repeated areas of whitespace
// with a single space character.
func collapseSpace(in string) string {
	var (
		out        strings.Builder
		whiteSpace bool
	)
	for _, c := range in {
		if unicode.IsSpace(c) {
			if !whiteSpace {
				out.WriteByte(' ')
			}
			whiteSpace = true
		} else {
			out.WriteRune(c)
			whiteSpace = false
		}
	}
	return out.String()
}
