package identifier_test

import (
	"encoding/json"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/checkin/internal/checkin/identifier"
)

func TestNormalize_Canonicalizes(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want string
	}{
		{name: "byte slice", raw: []byte{0xAA, 0xBB}, want: "AABB"},
		{name: "colon separated lowercase", raw: "aa:bb", want: "AABB"},
		{name: "dash separated", raw: "de-ad-be-ef", want: "DEADBEEF"},
		{name: "already canonical", raw: "AABBCCDD", want: "AABBCCDD"},
		{name: "surrounding whitespace", raw: "  04:a2:1f  ", want: "04A21F"},
		{name: "int slice pads single digits", raw: []int{4, 10, 255}, want: "040AFF"},
		{name: "int64 slice", raw: []int64{0x12, 0x34}, want: "1234"},
		{name: "json numbers", raw: []any{float64(170), float64(187)}, want: "AABB"},
		{name: "json.Number", raw: []any{json.Number("1"), json.Number("2")}, want: "0102"},
		{name: "text with noise", raw: "uid=0x04 A2?", want: "D004A2"},
		{name: "integer out of byte range falls back to text", raw: []int{300, 2}, want: "3002"},
		{name: "json scalar number", raw: float64(87654321), want: "87654321"},
		{name: "large json scalar number", raw: float64(4294967295), want: "4294967295"},
		{name: "json.Number scalar", raw: json.Number("12345678"), want: "12345678"},
		{name: "plain int", raw: 12345678, want: "12345678"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := identifier.Normalize(tc.raw)
			assert.Equal(t, tc.want, got.Key)
			assert.False(t, got.Synthetic)
			assert.True(t, identifier.IsCanonical(got.Key))
		})
	}
}

func TestNormalize_NumberAndStringFormsAgree(t *testing.T) {
	var body struct{ Identifier any }
	require.NoError(t, json.Unmarshal([]byte(`{"Identifier":87654321}`), &body))

	fromJSON := identifier.Normalize(body.Identifier)
	fromString := identifier.Normalize("87654321")
	assert.Equal(t, fromString, fromJSON)
}

func TestNormalize_NonFiniteNumberIsSynthetic(t *testing.T) {
	got := identifier.Normalize(math.NaN())
	assert.True(t, got.Synthetic)
}

func TestNormalize_ByteAndStringFormsAgree(t *testing.T) {
	fromBytes := identifier.Normalize([]byte{0xAA, 0xBB})
	fromString := identifier.Normalize("aa:bb")
	assert.Equal(t, fromBytes.Key, fromString.Key)
}

func TestNormalize_ByteOrderIsSignificant(t *testing.T) {
	a := identifier.Normalize([]byte{0x01, 0x02})
	b := identifier.Normalize([]byte{0x02, 0x01})
	assert.NotEqual(t, a.Key, b.Key)
}

func TestNormalize_Deterministic(t *testing.T) {
	inputs := []any{
		[]byte{0x04, 0xA2, 0x1F, 0x9C},
		"04:a2:1f:9c",
		[]int{1, 2, 3},
		"card #42",
	}
	for _, raw := range inputs {
		first := identifier.Normalize(raw)
		second := identifier.Normalize(raw)
		assert.Equal(t, first, second, "raw=%v", raw)
	}
}

func TestNormalize_SyntheticFallback(t *testing.T) {
	for _, raw := range []any{nil, "", "   ", "zzz-???", []byte{}, struct{}{}} {
		got := identifier.Normalize(raw)
		require.True(t, got.Synthetic, "raw=%#v", raw)
		assert.True(t, strings.HasPrefix(got.Key, identifier.SyntheticPrefix))
		assert.True(t, identifier.IsSynthetic(got.Key))
		assert.True(t, identifier.IsCanonical(got.Key))
	}
}

func TestNormalize_SyntheticKeyRoundTrips(t *testing.T) {
	issued := identifier.Normalize(nil)
	again := identifier.Normalize(issued.Key)
	assert.Equal(t, issued, again)

	padded := identifier.Normalize("  " + issued.Key + "\n")
	assert.Equal(t, issued.Key, padded.Key)
}

func TestNormalize_SyntheticKeysDiffer(t *testing.T) {
	a := identifier.Normalize(nil)
	b := identifier.Normalize(nil)
	// Same millisecond is likely; the random suffix must still separate them.
	assert.NotEqual(t, a.Key, b.Key)
}

func TestNormalize_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if got := identifier.Normalize("aa:bb:cc:dd"); got.Key != "AABBCCDD" {
					t.Errorf("unexpected key %q", got.Key)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestIsCanonical(t *testing.T) {
	assert.True(t, identifier.IsCanonical("AABBCCDD"))
	assert.True(t, identifier.IsCanonical("TEMP18F2A3B4C5D1A2B3C"))
	assert.False(t, identifier.IsCanonical(""))
	assert.False(t, identifier.IsCanonical("aabb"))
	assert.False(t, identifier.IsCanonical("AA:BB"))
	assert.False(t, identifier.IsCanonical("TEMP"))
	assert.False(t, identifier.IsCanonical("TEMPXYZ"))
}
