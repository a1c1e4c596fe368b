package password_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/francopiloto/finance-api/internal/password"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := password.Hash("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	require.NotEqual(t, "correct horse battery staple", hash)

	require.True(t, password.Verify("correct horse battery staple", hash))
	require.False(t, password.Verify("wrong password", hash))
	require.False(t, password.Verify("correct horse battery staple", "not a hash"))
}

func TestHashIsSalted(t *testing.T) {
	first, err := password.Hash("secret1")
	require.NoError(t, err)
	second, err := password.Hash("secret1")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}
