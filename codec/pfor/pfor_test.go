package pfor

import (
	"testing"

	"github.com/mattsta/govarint/internal/errs"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_RoundTrip_NoOutliers(t *testing.T) {
	values := []uint64{1000, 1010, 1020, 1030, 995, 1050}
	encoded, err := EncodeAppend(values, nil)
	require.NoError(t, err)

	decoded, err := DecodeAll(encoded)
	require.NoError(t, err)
	require.Equal(t, values, decoded)

	meta, err := ReadMetadata(encoded)
	require.NoError(t, err)
	require.Equal(t, uint64(0), meta.PatchCount)
}

func TestEncodeDecode_RoundTrip_WithOutliers(t *testing.T) {
	values := make([]uint64, 100)
	for i := range values {
		values[i] = 1000 + uint64(i%5)
	}
	// A handful of outliers far outside the narrow cluster.
	values[10] = 50_000_000
	values[50] = 70_000_000

	encoded, err := EncodeAppend(values, nil)
	require.NoError(t, err)

	meta, err := ReadMetadata(encoded)
	require.NoError(t, err)
	require.Equal(t, uint64(2), meta.PatchCount)
	require.Equal(t, uint8(1), meta.OffsetWidth)

	decoded, err := DecodeAll(encoded)
	require.NoError(t, err)
	require.Equal(t, values, decoded)
}

func TestAnalyze_EmptyInput(t *testing.T) {
	_, err := Analyze(nil)
	require.ErrorIs(t, err, errs.ErrEmptyInput)
}

func TestAnalyze_ChoosesNarrowestWidthCoveringTarget(t *testing.T) {
	values := make([]uint64, 20)
	for i := range values {
		values[i] = uint64(i)
	}
	values[19] = 1 << 40 // one in twenty outliers: 95% coverage at width 1

	meta, err := Analyze(values)
	require.NoError(t, err)
	require.Equal(t, uint8(1), meta.OffsetWidth)
	require.Equal(t, uint64(1), meta.PatchCount)
}

func TestSingleValue(t *testing.T) {
	values := []uint64{12345}
	encoded, err := EncodeAppend(values, nil)
	require.NoError(t, err)

	decoded, err := DecodeAll(encoded)
	require.NoError(t, err)
	require.Equal(t, values, decoded)
}

func TestAllEqualValues_NoPatches(t *testing.T) {
	values := []uint64{9, 9, 9, 9, 9}
	meta, err := Analyze(values)
	require.NoError(t, err)
	require.Equal(t, uint64(0), meta.PatchCount)
	require.Equal(t, uint8(1), meta.OffsetWidth)

	encoded, err := EncodeAppend(values, &meta)
	require.NoError(t, err)

	decoded, err := DecodeAll(encoded)
	require.NoError(t, err)
	require.Equal(t, values, decoded)
}

func TestDecode_CountExceedsOutputCapacity(t *testing.T) {
	encoded, err := EncodeAppend([]uint64{1, 2, 3, 4}, nil)
	require.NoError(t, err)

	out := make([]uint64, 2)
	_, err = Decode(encoded, out)
	require.ErrorIs(t, err, errs.ErrCountExceeded)
}

func TestDecode_Truncated(t *testing.T) {
	encoded, err := EncodeAppend([]uint64{10, 20, 30}, nil)
	require.NoError(t, err)

	_, err = DecodeAll(encoded[:len(encoded)-1])
	require.ErrorIs(t, err, errs.ErrTruncated)
}

func TestMaxEncodedSize_UpperBoundsEncode(t *testing.T) {
	values := []uint64{1, 2, 3, 1 << 40, 5}
	meta, err := Analyze(values)
	require.NoError(t, err)

	encoded, err := EncodeAppend(values, &meta)
	require.NoError(t, err)
	require.LessOrEqual(t, len(encoded), MaxEncodedSize(len(values), int(meta.OffsetWidth)))
}
