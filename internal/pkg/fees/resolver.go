package fees

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/agentpayhq/agentpay/internal/pkg/oracle"
	"github.com/agentpayhq/agentpay/internal/pkg/tokens"
)

// ErrFeeExceedsAmount is returned when a payment-token fee would leave the
// creator with nothing; such requests cannot be settled under the configured
// fee policy.
var ErrFeeExceedsAmount = errors.New("fee exceeds payment amount")

// Config holds the fee policy. The fixed fee is denominated in whole reward
// tokens (e.g. 2 for standard, 4 for pro).
type Config struct {
	FixedFee            int64
	RewardTokenSymbol   string
	RewardTokenAddress  string
	RewardTokenDecimals int
}

// Plan is the outcome of fee resolution for one verification attempt. All
// amounts are integer minor units of FeeToken.
type Plan struct {
	FeeToken        string
	FeeTokenAddress string
	FeeTotal        *big.Int
	PlatformShare   *big.Int
	CreatorReward   *big.Int

	// DeductedFromPayment is true when the fee is charged in the payment
	// token and subtracted from the creator's leg, rather than charged in
	// the reward token on top of the full payment.
	DeductedFromPayment bool

	// RewardPriceUSD is the oracle price used for conversion, nil when the
	// fee was charged directly in the reward token.
	RewardPriceUSD *big.Rat

	// PayerBalance is the payer's reward-token balance (minor units)
	// observed at decision time.
	PayerBalance *big.Int
}

// PriceSource yields USD prices; satisfied by *oracle.Cache.
type PriceSource interface {
	GetPrice(ctx context.Context, symbol string) (*big.Rat, error)
}

// Resolver decides, per payment, what extra value must move and to whom.
type Resolver struct {
	cfg    Config
	prices PriceSource
}

// NewResolver creates a fee resolver with the given policy and price source.
func NewResolver(cfg Config, prices PriceSource) *Resolver {
	return &Resolver{cfg: cfg, prices: prices}
}

// FixedFeeMinorUnits returns the flat fee in reward-token minor units.
func (r *Resolver) FixedFeeMinorUnits() *big.Int {
	fee := big.NewInt(r.cfg.FixedFee)
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(r.cfg.RewardTokenDecimals)), nil)
	return fee.Mul(fee, scale)
}

// Resolve computes the fee plan for one payment. payerBalance is the payer's
// reward-token balance in minor units; paymentAmount is in minor units of
// payToken.
func (r *Resolver) Resolve(ctx context.Context, paymentAmount *big.Int, payToken tokens.Token, payerBalance *big.Int) (*Plan, error) {
	if payerBalance == nil {
		payerBalance = big.NewInt(0)
	}
	fixedFee := r.FixedFeeMinorUnits()

	// Payer holds enough reward token: charge the fee there, the creator
	// receives the full payment amount.
	if payerBalance.Cmp(fixedFee) >= 0 {
		platform, creator := splitFee(fixedFee)
		return &Plan{
			FeeToken:            r.cfg.RewardTokenSymbol,
			FeeTokenAddress:     r.cfg.RewardTokenAddress,
			FeeTotal:            fixedFee,
			PlatformShare:       platform,
			CreatorReward:       creator,
			DeductedFromPayment: false,
			PayerBalance:        new(big.Int).Set(payerBalance),
		}, nil
	}

	// Otherwise convert the fixed reward-token fee into the payment token
	// through the cached oracle price and deduct it from the creator's leg.
	rewardPrice, err := r.prices.GetPrice(ctx, r.cfg.RewardTokenSymbol)
	if err != nil {
		return nil, err
	}

	payPrice := big.NewRat(1, 1)
	if !payToken.Stablecoin {
		payPrice, err = r.prices.GetPrice(ctx, payToken.Symbol)
		if err != nil {
			return nil, err
		}
	}

	feeTotal := convertFee(big.NewInt(r.cfg.FixedFee), rewardPrice, payPrice, payToken.Decimals)
	if feeTotal.Cmp(paymentAmount) >= 0 {
		return nil, fmt.Errorf("%w: fee %s, payment %s %s", ErrFeeExceedsAmount, feeTotal, paymentAmount, payToken.Symbol)
	}

	platform, creator := splitFee(feeTotal)
	return &Plan{
		FeeToken:            payToken.Symbol,
		FeeTokenAddress:     payToken.Address,
		FeeTotal:            feeTotal,
		PlatformShare:       platform,
		CreatorReward:       creator,
		DeductedFromPayment: true,
		RewardPriceUSD:      rewardPrice,
		PayerBalance:        new(big.Int).Set(payerBalance),
	}, nil
}

// convertFee computes fixedFee (whole reward tokens) x rewardPrice / payPrice
// in minor units of the payment token, rounding down.
func convertFee(fixedFee *big.Int, rewardPrice, payPrice *big.Rat, payDecimals int) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(payDecimals)), nil)

	v := new(big.Rat).SetInt(fixedFee)
	v.Mul(v, rewardPrice)
	v.Quo(v, payPrice)
	v.Mul(v, new(big.Rat).SetInt(scale))

	return new(big.Int).Quo(v.Num(), v.Denom())
}

// splitFee divides a fee total 50/50. A one-unit rounding remainder goes to
// the platform share, never the creator, so the shares always sum exactly to
// the total.
func splitFee(total *big.Int) (platform, creator *big.Int) {
	creator = new(big.Int).Div(total, big.NewInt(2))
	platform = new(big.Int).Sub(total, creator)
	return platform, creator
}

// IsPriceUnavailable reports whether resolution failed because no price could
// be produced.
func IsPriceUnavailable(err error) bool {
	return errors.Is(err, oracle.ErrPriceUnavailable)
}
