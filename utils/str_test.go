package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGbkConvert(t *testing.T) {
	b, err := GbkToUtf8([]byte{0xb6, 0xab, 0xba, 0xfe, '_', '1'})
	require.NoError(t, err)
	assert.Equal(t, "东湖_1", string(b))

	s, err := GbkStrToUtf8("\xb6\xab\xba\xfe")
	require.NoError(t, err)
	assert.Equal(t, "东湖", s)

	s, err = GbkStrToUtf8("plain ascii")
	require.NoError(t, err)
	assert.Equal(t, "plain ascii", s)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"mean", "max", "percentile_90"}, SplitList(" mean,max,, percentile_90 "))
	assert.Empty(t, SplitList(""))
}

func TestPurifyForUtf8(t *testing.T) {
	assert.Equal(t, "ab", PurifyForUtf8("a\x00b\xff"))
}
