package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcutil"
	"github.com/btcutils/txbuilder/keyring"
	"github.com/jessevdk/go-flags"
)

const (
	defaultLogLevel = "info"
	defaultFeeRate  = 1000
	defaultPurpose  = 49
)

type config struct {
	UTXOs      string  `short:"u" long:"utxos" description:"Hex encoded JSON array of the unspent outputs to spend" required:"true"`
	Seed       string  `short:"w" long:"seed" description:"BIP39 mnemonic or hex encoded seed entropy" required:"true"`
	Passphrase string  `long:"passphrase" default-mask:"-" description:"BIP39 passphrase"`
	To         string  `short:"a" long:"to" description:"Destination address" required:"true"`
	Amount     float64 `long:"amount" description:"Amount to send in BTC" required:"true"`
	FeeRate    int64   `long:"feerate" description:"Fee rate in satoshi per 1000 bytes"`
	Change     string  `long:"change" description:"Change address (default: the address funding the most value)"`
	TestNet    bool    `long:"testnet" description:"Use the test network (default mainnet)"`
	Purpose    uint32  `long:"purpose" description:"BIP43 purpose of the spending key {44, 49, 84}"`
	Account    uint32  `long:"account" description:"BIP44 account of the spending key"`
	Index      uint32  `long:"index" description:"Address index of the spending key"`
	DebugLevel string  `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical, off}"`

	params   *chaincfg.Params
	purpose  keyring.Purpose
	amount   btcutil.Amount
	feeRate  btcutil.Amount
	to       btcutil.Address
	change   btcutil.Address
	mnemonic string
}

// loadConfig parses args and validates the result.  Help requests are
// returned as a *flags.Error of type flags.ErrHelp.
func loadConfig(args []string) (*config, error) {
	cfg := config{
		FeeRate:    defaultFeeRate,
		Purpose:    defaultPurpose,
		DebugLevel: defaultLogLevel,
	}

	parser := flags.NewParser(&cfg, flags.Default)
	appName := filepath.Base(os.Args[0])
	parser.Name = strings.TrimSuffix(appName, filepath.Ext(appName))

	_, err := parser.ParseArgs(args)
	if err != nil {
		return nil, err
	}

	funcName := "loadConfig"
	usage := func(err error) (*config, error) {
		err = fmt.Errorf("%s: %w", funcName, err)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, err
	}

	cfg.params = &chaincfg.MainNetParams
	if cfg.TestNet {
		cfg.params = &chaincfg.TestNet3Params
	}

	if err := setLogLevels(cfg.DebugLevel); err != nil {
		return usage(err)
	}

	switch cfg.Purpose {
	case 44, 49, 84:
		cfg.purpose = cfg.Purpose + keyring.Apostrophe
	default:
		return usage(fmt.Errorf("unsupported purpose %d", cfg.Purpose))
	}

	if cfg.Amount <= 0 {
		return usage(errors.New("the amount to send must be positive"))
	}
	cfg.amount, err = btcutil.NewAmount(cfg.Amount)
	if err != nil {
		return usage(err)
	}

	if cfg.FeeRate < 0 {
		return usage(errors.New("the fee rate may not be negative"))
	}
	cfg.feeRate = btcutil.Amount(cfg.FeeRate)

	cfg.to, err = decodeAddress(cfg.To, cfg.params)
	if err != nil {
		return usage(fmt.Errorf("destination: %w", err))
	}
	if cfg.Change != "" {
		cfg.change, err = decodeAddress(cfg.Change, cfg.params)
		if err != nil {
			return usage(fmt.Errorf("change: %w", err))
		}
	}

	cfg.mnemonic, err = keyring.ParseSeed(cfg.Seed)
	if err != nil {
		return usage(err)
	}

	return &cfg, nil
}

// decodeAddress decodes addr and rejects addresses of other networks.
func decodeAddress(addr string, params *chaincfg.Params) (btcutil.Address,
	error) {

	decoded, err := btcutil.DecodeAddress(addr, params)
	if err != nil {
		return nil, err
	}
	if !decoded.IsForNet(params) {
		return nil, fmt.Errorf("address %s is not for %s", addr,
			params.Name)
	}
	return decoded, nil
}
