package types

import (
	"encoding/json"
	"testing"

	"wallet-signer/pkg/signing"
	"wallet-signer/pkg/signing/bitcoin"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignableDispatch(t *testing.T) {
	raw := `{
		"chain": "ethereum",
		"ethereum": {
			"tx_type": "legacy",
			"chain_id": 1,
			"nonce": 9,
			"gas_price": 20000000000,
			"gas_limit": 21000,
			"to": "0x3535353535353535353535353535353535353535",
			"value": 1000000000000000000
		}
	}`
	var u UnsignedTransaction
	require.NoError(t, json.Unmarshal([]byte(raw), &u))

	tx, err := u.Signable("all")
	require.NoError(t, err)
	assert.Equal(t, signing.ChainEthereum, tx.Chain())

	pre, err := tx.PreImages()
	require.NoError(t, err)
	require.Len(t, pre, 1)
	assert.Equal(t, "0xdaf5a779ae972f972197303d7b574746c7ef83eadac0f2791ad23db92e4c8e53", pre[0].Hash.Hex())
}

func TestSignableBitcoinSigHash(t *testing.T) {
	u := UnsignedTransaction{Chain: signing.ChainBitcoin, Bitcoin: &bitcoin.UnsignedTransaction{}}

	tx, err := u.Signable("single")
	require.NoError(t, err)
	assert.Equal(t, bitcoin.SigHashSingle, tx.(*bitcoin.Signable).HashType)

	u.SigHashType = "none|anyonecanpay"
	tx, err = u.Signable("single")
	require.NoError(t, err)
	assert.Equal(t, bitcoin.SigHashNone|bitcoin.SigHashAnyOneCanPay, tx.(*bitcoin.Signable).HashType)

	u.SigHashType = "0x05"
	_, err = u.Signable("")
	assert.ErrorIs(t, err, signing.ErrUnsupportedType)
}

func TestSignableErrors(t *testing.T) {
	tests := []struct {
		name string
		u    UnsignedTransaction
		want error
	}{
		{"no chain", UnsignedTransaction{}, signing.ErrMissingField},
		{"unknown chain", UnsignedTransaction{Chain: "dogecoin"}, signing.ErrUnsupportedType},
		{"missing bitcoin section", UnsignedTransaction{Chain: signing.ChainBitcoin}, signing.ErrMissingField},
		{"missing ethereum section", UnsignedTransaction{Chain: signing.ChainEthereum}, signing.ErrMissingField},
		{"missing cosmos section", UnsignedTransaction{Chain: signing.ChainCosmos}, signing.ErrMissingField},
		{"missing solana section", UnsignedTransaction{Chain: signing.ChainSolana}, signing.ErrMissingField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.u.Signable("all")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
