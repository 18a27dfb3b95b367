package chain

import (
	"encoding/binary"
	"testing"

	"nft-engine-sol/internal/consts"
	"nft-engine-sol/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTokenAccountData(mint, owner types.Pubkey, amount uint64) []byte {
	data := make([]byte, consts.TokenAccountSize)
	copy(data[0:32], mint[:])
	copy(data[32:64], owner[:])
	binary.LittleEndian.PutUint64(data[64:72], amount)
	return data
}

func TestParseTokenAccount(t *testing.T) {
	var mint, owner types.Pubkey
	mint[0] = 0xAA
	mint[31] = 0x01
	owner[0] = 0xBB
	owner[31] = 0x02

	data := buildTokenAccountData(mint, owner, 12345)
	gotMint, gotOwner, amount, err := ParseTokenAccount(data)
	require.NoError(t, err)
	assert.True(t, mint.Equals(gotMint))
	assert.True(t, owner.Equals(gotOwner))
	assert.Equal(t, uint64(12345), amount)
}

func TestParseTokenAccount_TooShort(t *testing.T) {
	_, _, _, err := ParseTokenAccount(make([]byte, 100))
	assert.Error(t, err)
}

func TestConfirmation_AtLeast(t *testing.T) {
	assert.True(t, ConfirmationConfirmed.AtLeast(ConfirmationProcessed))
	assert.True(t, ConfirmationFinalized.AtLeast(ConfirmationConfirmed))
	assert.False(t, ConfirmationProcessed.AtLeast(ConfirmationConfirmed))
	assert.False(t, ConfirmationUnknown.AtLeast(ConfirmationProcessed))
}
