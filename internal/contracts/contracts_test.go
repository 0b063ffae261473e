package contracts

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackSelectors(t *testing.T) {
	owner := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	spender := common.HexToAddress("0x00000000000000000000000000000000000000b2")

	tests := []struct {
		name     string
		pack     func() ([]byte, error)
		selector string
		size     int
	}{
		{"balanceOf", func() ([]byte, error) { return PackBalanceOf(owner) }, "70a08231", 4 + 32},
		{"allowance", func() ([]byte, error) { return PackAllowance(owner, spender) }, "dd62ed3e", 4 + 64},
		{"approve", func() ([]byte, error) { return PackApprove(spender, MaxAllowance) }, "095ea7b3", 4 + 64},
		{"issue", func() ([]byte, error) { return PackIssue(Mainnet.SetToken, big.NewInt(1), owner) }, "", 4 + 96},
		{"redeem", func() ([]byte, error) { return PackRedeem(Mainnet.SetToken, big.NewInt(1), owner) }, "", 4 + 96},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.pack()
			require.NoError(t, err)
			assert.Len(t, data, tt.size)
			if tt.selector != "" {
				assert.Equal(t, tt.selector, hex.EncodeToString(data[:4]))
			}
		})
	}
}

func TestPackIssueAndRedeemDiffer(t *testing.T) {
	to := common.HexToAddress("0x01")
	issue, err := PackIssue(Mainnet.SetToken, big.NewInt(5), to)
	require.NoError(t, err)
	redeem, err := PackRedeem(Mainnet.SetToken, big.NewInt(5), to)
	require.NoError(t, err)

	assert.NotEqual(t, issue[:4], redeem[:4])
	assert.Equal(t, issue[4:], redeem[4:])
}

func TestApproveEncodesMaxAllowance(t *testing.T) {
	data, err := PackApprove(common.HexToAddress("0x01"), MaxAllowance)
	require.NoError(t, err)

	amountWord := data[4+32:]
	for i, b := range amountWord {
		require.Equalf(t, byte(0xff), b, "byte %d", i)
	}
}

func TestUnpackUint256(t *testing.T) {
	word := common.LeftPadBytes(big.NewInt(123456).Bytes(), 32)

	v, err := UnpackUint256("balanceOf", word)
	require.NoError(t, err)
	assert.Equal(t, int64(123456), v.Int64())

	_, err = UnpackUint256("balanceOf", []byte{0x01})
	assert.Error(t, err)
}

func TestLookupNetwork(t *testing.T) {
	n, err := LookupNetwork(" Mainnet ")
	require.NoError(t, err)
	assert.Equal(t, Mainnet, n)
	assert.Equal(t, "https://etherscan.io/tx/0xabc", n.TxURL("0xabc"))

	_, err = LookupNetwork("ropsten")
	assert.Error(t, err)
}
