package transferplan

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentpayhq/agentpay/internal/pkg/fees"
	"github.com/agentpayhq/agentpay/internal/pkg/tokens"
)

const (
	receiver = "0x1111111111111111111111111111111111111111"
	creator  = "0x2222222222222222222222222222222222222222"
	treasury = "0x3333333333333333333333333333333333333333"
)

func payToken(t *testing.T) tokens.Token {
	t.Helper()
	token, err := tokens.Lookup("ethereum", "USDC")
	require.NoError(t, err)
	return token
}

func rewardFee(total, platform, creatorShare int64) *fees.Plan {
	return &fees.Plan{
		FeeToken:        "LCX",
		FeeTokenAddress: "0x037A54AaB062628C9Bbae1FDB1583c195585fe41",
		FeeTotal:        big.NewInt(total),
		PlatformShare:   big.NewInt(platform),
		CreatorReward:   big.NewInt(creatorShare),
	}
}

func TestBuild_RewardTokenFee(t *testing.T) {
	plan := Build(Input{
		PaymentAmount: big.NewInt(5000000),
		PayToken:      payToken(t),
		Receiver:      receiver,
		Fee:           rewardFee(4, 2, 2),
		Treasury:      treasury,
		CreatorWallet: creator,
	})

	require.Len(t, plan, 3)

	assert.Equal(t, PurposePayment, plan[0].Description)
	assert.Equal(t, receiver, plan[0].To)
	assert.Equal(t, "USDC", plan[0].Token)
	assert.Equal(t, "5000000", plan[0].Amount.String())

	assert.Equal(t, PurposePlatformFee, plan[1].Description)
	assert.Equal(t, treasury, plan[1].To)
	assert.Equal(t, "LCX", plan[1].Token)
	assert.Equal(t, "2", plan[1].Amount.String())

	assert.Equal(t, PurposeCreatorReward, plan[2].Description)
	assert.Equal(t, creator, plan[2].To)
	assert.Equal(t, "2", plan[2].Amount.String())
}

func TestBuild_DeductedFeeShrinksBaseLeg(t *testing.T) {
	fee := &fees.Plan{
		FeeToken:            "USDC",
		FeeTokenAddress:     payToken(t).Address,
		FeeTotal:            big.NewInt(200000),
		PlatformShare:       big.NewInt(100000),
		CreatorReward:       big.NewInt(100000),
		DeductedFromPayment: true,
	}

	plan := Build(Input{
		PaymentAmount: big.NewInt(5000000),
		PayToken:      payToken(t),
		Receiver:      receiver,
		Fee:           fee,
		Treasury:      treasury,
		CreatorWallet: creator,
	})

	require.Len(t, plan, 3)
	assert.Equal(t, "4800000", plan[0].Amount.String())
	assert.Equal(t, "100000", plan[1].Amount.String())
	assert.Equal(t, "100000", plan[2].Amount.String())
}

func TestBuild_CombinesLegsWhenTreasuryIsCreator(t *testing.T) {
	plan := Build(Input{
		PaymentAmount: big.NewInt(5000000),
		PayToken:      payToken(t),
		Receiver:      receiver,
		Fee:           rewardFee(4, 2, 2),
		Treasury:      "0xAbCdEf1234567890aBcDeF1234567890AbCdEf12",
		// address comparison is case-insensitive
		CreatorWallet: "0xabcdef1234567890abcdef1234567890abcdef12",
	})

	require.Len(t, plan, 2)
	assert.Equal(t, PurposePlatformFee, plan[1].Description)
	assert.Equal(t, "4", plan[1].Amount.String())
}

func TestBuild_NoFee(t *testing.T) {
	plan := Build(Input{
		PaymentAmount: big.NewInt(5000000),
		PayToken:      payToken(t),
		Receiver:      receiver,
		Treasury:      treasury,
		CreatorWallet: creator,
	})

	require.Len(t, plan, 1)
	assert.Equal(t, PurposePayment, plan[0].Description)
}

func TestBuild_ZeroFeeProducesNoFeeLegs(t *testing.T) {
	plan := Build(Input{
		PaymentAmount: big.NewInt(5000000),
		PayToken:      payToken(t),
		Receiver:      receiver,
		Fee:           rewardFee(0, 0, 0),
		Treasury:      treasury,
		CreatorWallet: creator,
	})

	require.Len(t, plan, 1)
}
