package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLuhnValid(t *testing.T) {
	for _, number := range []string{"79927398713", "2718281828459045", "6011111111111117"} {
		assert.True(t, luhnValid(number), number)
	}
	for _, number := range []string{"123456", "abcdef", "79927398710"} {
		assert.False(t, luhnValid(number), number)
	}
}

func TestValidOrderNumber(t *testing.T) {
	g, err := NewSnowflake(3)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		assert.True(t, ValidOrderNumber(g.OrderNumber()))
	}

	cases := []string{"", "ORD-", "ORD-7", "ORD-79927398710", "79927398713", "ORD-7992739871x", "ord-79927398713"}
	for _, c := range cases {
		assert.False(t, ValidOrderNumber(c), c)
	}
	assert.True(t, ValidOrderNumber("ORD-79927398713"))
}

func TestCheckDigit(t *testing.T) {
	assert.Equal(t, byte('3'), checkDigit("7992739871"))
	assert.Equal(t, byte('0'), checkDigit("0"))
}
