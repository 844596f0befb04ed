package txsizes

import (
	"testing"

	"github.com/btcsuite/btcutil"
	"github.com/stretchr/testify/require"
)

func TestEstimateSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		Inputs       int
		Outputs      int
		SegwitInputs int
		ExpectedSize int
	}{
		0: {0, 0, 0, 10},
		1: {1, 1, 0, 192},
		2: {1, 2, 0, 226},
		3: {2, 1, 0, 340},
		4: {2, 2, 0, 374},
		5: {1, 1, 1, 111},
		6: {1, 2, 1, 145},
		7: {2, 1, 1, 259},
		8: {2, 2, 2, 212},

		// 0xfd is discriminant for 16-bit compact ints, compact int
		// total size increases from 1 byte to 3.
		9:  {252, 1, 0, 37340},
		10: {253, 1, 0, 37340 + MaxInputSize + 2},
		11: {1, 252, 0, 8726},
		12: {1, 253, 0, 8726 + OutputSize + 2},
	}
	for i, test := range tests {
		size := EstimateSize(test.Inputs, test.Outputs, test.SegwitInputs)
		require.Equalf(t, test.ExpectedSize, size, "test %d", i)

		// Estimation is a pure function of its arguments.
		again := EstimateSize(test.Inputs, test.Outputs, test.SegwitInputs)
		require.Equalf(t, size, again, "test %d", i)
	}
}

func TestEstimateSizeSegwitDiscount(t *testing.T) {
	t.Parallel()

	for inputs := 1; inputs <= 20; inputs++ {
		for outputs := 1; outputs <= 5; outputs++ {
			legacy := EstimateSize(inputs, outputs, 0)
			segwit := EstimateSize(inputs, outputs, inputs)
			require.Lessf(t, segwit, legacy, "inputs %d outputs %d",
				inputs, outputs)

			// Every converted input makes the estimate smaller.
			if inputs > 1 {
				mixed := EstimateSize(inputs, outputs, 1)
				require.Less(t, mixed, legacy)
				require.Less(t, segwit, mixed)
			}
		}
	}
}

func TestEstimateFee(t *testing.T) {
	t.Parallel()

	tests := []struct {
		Inputs       int
		Outputs      int
		SegwitInputs int
		FeeRate      btcutil.Amount
		ExpectedFee  btcutil.Amount
	}{
		0: {1, 1, 0, 1000, 192},
		1: {1, 2, 0, 1000, 226},
		2: {1, 1, 1, 1500, 166},
		3: {2, 2, 0, 20000, 7480},
		4: {1, 2, 0, 0, 0},
		5: {1, 1, 0, 999, 191},
	}
	for i, test := range tests {
		fee := EstimateFee(test.Inputs, test.Outputs, test.SegwitInputs,
			test.FeeRate)
		require.Equalf(t, test.ExpectedFee, fee, "test %d", i)
		require.Equal(t, fee, EstimateFee(test.Inputs, test.Outputs,
			test.SegwitInputs, test.FeeRate))
	}
}
