package billing

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedemptionCodeFormat(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	code, err := NewRedemptionCode(now)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(code, RedemptionPrefix))
	assert.True(t, IsRedemptionCode(code), code)
	assert.Equal(t, strings.ToUpper(code), code)
	assert.Contains(t, code, strings.ToUpper(strconvBase36(now.UnixMilli())))
}

func TestNewRedemptionCodesUnique(t *testing.T) {
	frozen := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	codes, err := NewRedemptionCodes(50, func() time.Time { return frozen })
	require.NoError(t, err)
	require.Len(t, codes, 50)

	seen := map[string]bool{}
	for _, c := range codes {
		assert.False(t, seen[c], "duplicate code %s", c)
		seen[c] = true
		assert.True(t, IsRedemptionCode(c))
	}
}

func TestIsRedemptionCode(t *testing.T) {
	assert.False(t, IsRedemptionCode("WSB123"))
	assert.False(t, IsRedemptionCode("abcMG0X1Y2Z3ABCDEF"))
	assert.False(t, IsRedemptionCode("WSBmg0x1y2z3abcdef"))
}
