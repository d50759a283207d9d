package transferplan

import (
	"math/big"
	"strings"

	"github.com/agentpayhq/agentpay/internal/pkg/fees"
	"github.com/agentpayhq/agentpay/internal/pkg/tokens"
)

// Instruction purposes, surfaced verbatim in API responses.
const (
	PurposePayment       = "payment"
	PurposePlatformFee   = "platform fee"
	PurposeCreatorReward = "creator reward"
)

// Instruction is one directed, single-token transfer required to complete a
// settlement.
type Instruction struct {
	Description  string
	To           string
	Token        string
	TokenAddress string
	Amount       *big.Int
}

// Input carries everything Build needs; the builder itself is pure and
// performs no I/O.
type Input struct {
	PaymentAmount *big.Int
	PayToken      tokens.Token
	Receiver      string
	Fee           *fees.Plan
	Treasury      string
	CreatorWallet string
}

// Build turns a resolved fee plus the base payment into an ordered list of
// transfer instructions. The base payment always comes first; fee legs follow
// when a fee is collected, combined into one instruction when the treasury
// and the creator wallet coincide.
func Build(in Input) []Instruction {
	baseAmount := new(big.Int).Set(in.PaymentAmount)
	if in.Fee != nil && in.Fee.DeductedFromPayment {
		baseAmount.Sub(baseAmount, in.Fee.FeeTotal)
	}

	plan := []Instruction{
		{
			Description:  PurposePayment,
			To:           in.Receiver,
			Token:        in.PayToken.Symbol,
			TokenAddress: in.PayToken.Address,
			Amount:       baseAmount,
		},
	}

	if in.Fee == nil || in.Fee.FeeTotal.Sign() == 0 {
		return plan
	}

	if strings.EqualFold(in.Treasury, in.CreatorWallet) {
		combined := new(big.Int).Add(in.Fee.PlatformShare, in.Fee.CreatorReward)
		return append(plan, Instruction{
			Description:  PurposePlatformFee,
			To:           in.Treasury,
			Token:        in.Fee.FeeToken,
			TokenAddress: in.Fee.FeeTokenAddress,
			Amount:       combined,
		})
	}

	return append(plan,
		Instruction{
			Description:  PurposePlatformFee,
			To:           in.Treasury,
			Token:        in.Fee.FeeToken,
			TokenAddress: in.Fee.FeeTokenAddress,
			Amount:       new(big.Int).Set(in.Fee.PlatformShare),
		},
		Instruction{
			Description:  PurposeCreatorReward,
			To:           in.CreatorWallet,
			Token:        in.Fee.FeeToken,
			TokenAddress: in.Fee.FeeTokenAddress,
			Amount:       new(big.Int).Set(in.Fee.CreatorReward),
		},
	)
}
