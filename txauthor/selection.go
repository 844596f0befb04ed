// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txauthor

import (
	"bytes"
	"math"
	"sort"

	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcutil"
	"github.com/btcutils/txbuilder/model"
	"github.com/btcutils/txbuilder/txrules"
	"github.com/btcutils/txbuilder/txsizes"
)

// Selection holds the funding outputs picked by a CoinSelector together
// with the fee they require.
type Selection struct {
	Funding   []*model.SpendableOutput
	Fee       btcutil.Amount
	OutputSum btcutil.Amount
}

// CoinSelector picks funding outputs from a pool of spendable outputs.  The
// pool is never modified.
type CoinSelector interface {
	Select(pool []*model.SpendableOutput) (*Selection, error)
}

// FifoCoinSelector spends the oldest outputs first.  Confirmed outputs are
// always preferred over unconfirmed ones, outputs of equal height are taken
// in outpoint order.
type FifoCoinSelector struct {
	feeRatePerKb btcutil.Amount
	outputCount  int
	outputSum    btcutil.Amount
}

// NewFifoCoinSelector returns a selector funding outputs at feeRatePerKb.
func NewFifoCoinSelector(outputs []*wire.TxOut,
	feeRatePerKb btcutil.Amount) *FifoCoinSelector {

	return &FifoCoinSelector{
		feeRatePerKb: feeRatePerKb,
		outputCount:  len(outputs),
		outputSum:    SumOutputValues(outputs),
	}
}

// Select extracts outputs from pool, oldest first, until they pay for the
// desired outputs and the fee.  An InsufficientFundsError is returned when
// the pool runs dry first.
func (s *FifoCoinSelector) Select(pool []*model.SpendableOutput) (*Selection,
	error) {

	unspent := make([]*model.SpendableOutput, len(pool))
	copy(unspent, pool)

	// Start from a worst case that spends the whole pool.
	fee := txsizes.EstimateFee(len(unspent), 1, SegwitInputCount(unspent),
		s.feeRatePerKb)

	var (
		funding []*model.SpendableOutput
		found   btcutil.Amount
	)
	for found < fee+s.outputSum {
		var oldest *model.SpendableOutput
		oldest, unspent = extractOldest(unspent)
		if oldest == nil {
			log.Debugf("Pool exhausted after %d %s: have %v, need %v",
				len(funding), pickNoun(len(funding), "input",
					"inputs"), found, fee+s.outputSum)

			return nil, &InsufficientFundsError{
				Sending: s.outputSum,
				Fee:     fee,
			}
		}

		found += oldest.Value
		funding = append(funding, oldest)

		estimate := settleFee(funding, s.outputCount, s.outputSum,
			s.feeRatePerKb)
		fee = estimate.fee

		log.Tracef("Selected %v, total %v, fee %v (change %v)",
			oldest, found, fee, estimate.change)
	}

	return &Selection{
		Funding:   funding,
		Fee:       fee,
		OutputSum: s.outputSum,
	}, nil
}

// feeEstimate is the fee of a funding set and whether a change output is
// paid for.
type feeEstimate struct {
	fee    btcutil.Amount
	change bool
}

// settleFee resolves the fee of funding paying outputSum to outputCount
// outputs.  Whether a change output survives depends on the fee, and the fee
// depends on whether there is a change output, so the decision is
// recomputed until it stops flipping.  When paying for the change output
// pushes it below the dust limit, the fee without change is used and the
// remainder goes to the miner.
func settleFee(funding []*model.SpendableOutput, outputCount int,
	outputSum, feeRatePerKb btcutil.Amount) feeEstimate {

	var (
		found       = model.SumValues(funding)
		segwit      = SegwitInputCount(funding)
		withChange  bool
		noChangeFee btcutil.Amount
	)
	for {
		count := outputCount
		if withChange {
			count++
		}
		fee := txsizes.EstimateFee(len(funding), count, segwit,
			feeRatePerKb)

		needChange := !txrules.IsDustAmount(found - outputSum - fee)
		switch {
		case needChange == withChange:
			return feeEstimate{fee: fee, change: withChange}

		case withChange:
			return feeEstimate{fee: noChangeFee}
		}

		noChangeFee = fee
		withChange = true
	}
}

// selectionHeight ranks unconfirmed outputs behind every confirmed one.
func selectionHeight(output *model.SpendableOutput) int32 {
	if !output.IsConfirmed() {
		return math.MaxInt32
	}
	return output.Height
}

func outPointLess(a, b *wire.OutPoint) bool {
	if c := bytes.Compare(a.Hash[:], b.Hash[:]); c != 0 {
		return c < 0
	}
	return a.Index < b.Index
}

// olderThan reports whether a is spent before b.
func olderThan(a, b *model.SpendableOutput) bool {
	ha, hb := selectionHeight(a), selectionHeight(b)
	if ha != hb {
		return ha < hb
	}
	return outPointLess(&a.OutPoint, &b.OutPoint)
}

// extractOldest removes the oldest output from unspent and returns it along
// with the shortened slice.  A nil output is returned for an empty slice.
func extractOldest(unspent []*model.SpendableOutput) (*model.SpendableOutput,
	[]*model.SpendableOutput) {

	if len(unspent) == 0 {
		return nil, unspent
	}

	idx := 0
	for i := 1; i < len(unspent); i++ {
		if olderThan(unspent[i], unspent[idx]) {
			idx = i
		}
	}

	oldest := unspent[idx]
	return oldest, append(unspent[:idx], unspent[idx+1:]...)
}

// PruneRedundantOutputs keeps the largest funding outputs that together
// reach target and drops the rest.  The kept outputs are shuffled with rng so
// the input order does not leak the order they were acquired in.  When
// target can not be reached every output is kept.
func PruneRedundantOutputs(funding []*model.SpendableOutput,
	target btcutil.Amount, rng Rand) []*model.SpendableOutput {

	largestToSmallest := make([]*model.SpendableOutput, len(funding))
	copy(largestToSmallest, funding)
	sort.SliceStable(largestToSmallest, func(i, j int) bool {
		a, b := largestToSmallest[i], largestToSmallest[j]
		if a.Value != b.Value {
			return a.Value > b.Value
		}
		return outPointLess(&a.OutPoint, &b.OutPoint)
	})

	pruned := largestToSmallest
	var sum btcutil.Amount
	for i, output := range largestToSmallest {
		sum += output.Value
		if sum >= target {
			pruned = largestToSmallest[:i+1]
			break
		}
	}

	if len(pruned) < len(funding) {
		log.Debugf("Pruned %d redundant funding %s",
			len(funding)-len(pruned),
			pickNoun(len(funding)-len(pruned), "output", "outputs"))
	}

	rng.Shuffle(len(pruned), func(i, j int) {
		pruned[i], pruned[j] = pruned[j], pruned[i]
	})
	return pruned
}

// SegwitInputCount returns the number of outputs in funding whose unlocking
// data goes to the witness area.  P2SH outputs are assumed to wrap a P2WPKH
// program.
func SegwitInputCount(funding []*model.SpendableOutput) int {
	var count int
	for _, output := range funding {
		if classifyInput(output.PkScript) != legacyInput {
			count++
		}
	}
	return count
}
