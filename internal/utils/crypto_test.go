// internal/utils/crypto_test.go
package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDownloadToken(t *testing.T) {
	token, err := GenerateDownloadToken()
	require.NoError(t, err)
	assert.Len(t, token, 48)

	other, err := GenerateDownloadToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestGenerateQuoteNumber(t *testing.T) {
	number, err := GenerateQuoteNumber()
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^Q-\d{8}-[A-Za-z0-9]{6}$`), number)
}

func TestHashStringStable(t *testing.T) {
	assert.Equal(t, HashString("token"), HashString("token"))
	assert.NotEqual(t, HashString("token"), HashString("other"))
	assert.Len(t, HashString("token"), 64)
}
