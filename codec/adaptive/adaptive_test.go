package adaptive

import (
	"testing"

	"github.com/mattsta/govarint/internal/errs"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeUint64_RoundTrip(t *testing.T) {
	cases := [][]uint64{
		{42},
		{1000, 1010, 1020, 1030, 995, 1050},
		{1, 0, 1, 1, 0, 0, 0, 1},
		{10, 10, 10, 20, 20, 30},
		{1 << 62, 1 << 61, 1 << 63},
	}

	for _, values := range cases {
		encoded, meta, err := EncodeUint64(values)
		require.NoError(t, err)
		require.Equal(t, uint64(len(values)), meta.SampleSize)

		decoded, err := DecodeUint64(encoded, len(values))
		require.NoError(t, err)
		require.Equal(t, values, decoded)
	}
}

func TestEncodeUint64_BinaryDataPicksBitmap(t *testing.T) {
	values := make([]uint64, 200)
	values[10] = 1
	values[150] = 1

	_, meta, err := EncodeUint64(values)
	require.NoError(t, err)
	require.Equal(t, StrategyBitmap, meta.Strategy)
}

func TestEncodeUint64_SequentialPicksDeltaOrFOR(t *testing.T) {
	values := make([]uint64, 100)
	for i := range values {
		values[i] = uint64(1_700_000_000) + uint64(i)
	}

	_, meta, err := EncodeUint64(values)
	require.NoError(t, err)
	require.Contains(t, []Strategy{StrategyDelta, StrategyFOR}, meta.Strategy)
}

func TestEncodeUint64_LowCardinalityPicksDict(t *testing.T) {
	statusCodes := []uint64{200, 404, 500}
	values := make([]uint64, 500)
	for i := range values {
		values[i] = statusCodes[i%3]
	}

	_, meta, err := EncodeUint64(values)
	require.NoError(t, err)
	require.Equal(t, StrategyDict, meta.Strategy)
}

func TestEncodeUint64_EmptyInput(t *testing.T) {
	_, _, err := EncodeUint64(nil)
	require.ErrorIs(t, err, errs.ErrEmptyInput)
}

func TestDecodeUint64_UnknownStrategy(t *testing.T) {
	_, err := DecodeUint64([]byte{99, 1, 2, 3}, 1)
	require.ErrorIs(t, err, errs.ErrUnknownStrategy)
}

func TestEncodeDecodeFloat64_RoundTrip(t *testing.T) {
	cases := [][]float64{
		{42.0},
		{100.0, 100.1, 100.2, 100.3, 100.4},
		{1.0, -2.0, 1e300, 0, 0, 0},
	}

	for _, values := range cases {
		encoded, meta, err := EncodeFloat64(values)
		require.NoError(t, err)
		require.Equal(t, uint64(len(values)), meta.SampleSize)

		decoded, err := DecodeFloat64(encoded, len(values))
		require.NoError(t, err)
		require.Equal(t, values, decoded)
	}
}

func TestEncodeFloat64_SimilarValuesPicksFloatStrategy(t *testing.T) {
	values := []float64{100.0, 100.01, 100.02, 100.03, 100.04, 100.05, 100.06, 100.07}
	_, meta, err := EncodeFloat64(values)
	require.NoError(t, err)
	require.Equal(t, StrategyFloat, meta.Strategy)
}

func TestEncodeFloat64_EmptyInput(t *testing.T) {
	_, _, err := EncodeFloat64(nil)
	require.ErrorIs(t, err, errs.ErrEmptyInput)
}
