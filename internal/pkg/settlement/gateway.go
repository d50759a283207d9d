package settlement

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agentpayhq/agentpay/app/models"
	"github.com/agentpayhq/agentpay/app/repository"
	"github.com/agentpayhq/agentpay/internal/pkg/chain"
	"github.com/agentpayhq/agentpay/internal/pkg/fees"
	"github.com/agentpayhq/agentpay/internal/pkg/tokens"
	"github.com/agentpayhq/agentpay/internal/pkg/transferplan"
)

// Config carries the addresses the gateway needs to rebuild transfer plans.
type Config struct {
	Treasury           string
	RewardTokenAddress string
}

// VerifyInput is one verification attempt from a payer.
type VerifyInput struct {
	LinkID       string
	TxHash       string // base payment transaction, becomes the settlement hash
	FeeTxHash    string // optional separate fee transaction
	RewardTxHash string // optional separate reward transaction
	PayerWallet  string // wallet whose reward balance decides the fee terms
}

// VerifyResult is the successful outcome of a verification call.
type VerifyResult struct {
	Request     *models.PaymentRequest
	AlreadyPaid bool
	TxHash      string
	BlockNumber uint64
}

// Gateway receives transaction hashes from payers, fetches on-chain
// receipts, cross-checks them against the expected transfer plan, and drives
// the request to PAID. It never rolls a settlement back: the canonical truth
// is the on-chain transfer, not the ledger row written afterwards.
type Gateway struct {
	links    repository.PaymentRequestRepository
	ledger   repository.FeeTransactionRepository
	chain    chain.Client
	resolver *fees.Resolver
	cfg      Config

	now func() time.Time // test hook
}

// NewGateway creates a verification gateway.
func NewGateway(links repository.PaymentRequestRepository, ledger repository.FeeTransactionRepository, chainClient chain.Client, resolver *fees.Resolver, cfg Config) *Gateway {
	return &Gateway{
		links:    links,
		ledger:   ledger,
		chain:    chainClient,
		resolver: resolver,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Verify runs the full verification for one attempt. Every failure before
// markPaid leaves the request PENDING and retryable; a duplicate-settlement
// failure means a concurrent caller already won.
func (g *Gateway) Verify(ctx context.Context, in VerifyInput) (*VerifyResult, error) {
	// Hashes arrive from JSON bodies; normalize once so fetching, the primary
	// lookup and the stored settlement hash all agree.
	in.TxHash = strings.TrimSpace(in.TxHash)
	in.FeeTxHash = strings.TrimSpace(in.FeeTxHash)
	in.RewardTxHash = strings.TrimSpace(in.RewardTxHash)

	req, err := g.links.GetByLinkID(in.LinkID)
	if err != nil {
		return nil, err
	}

	now := g.now()
	switch req.Status {
	case models.LINK_STATUS_PAID:
		if req.SettlementTxHash != nil && strings.EqualFold(*req.SettlementTxHash, in.TxHash) {
			result := &VerifyResult{Request: req, AlreadyPaid: true, TxHash: *req.SettlementTxHash}
			// replay responses carry the same block the first settlement saw
			if receipt, rerr := g.chain.TransactionReceipt(ctx, req.Network, *req.SettlementTxHash); rerr == nil {
				result.BlockNumber = receipt.BlockNumber
			}
			return result, nil
		}
		return nil, repository.ErrInvalidTransition
	case models.LINK_STATUS_CANCELLED, models.LINK_STATUS_EXPIRED:
		return nil, repository.ErrInvalidTransition
	}
	if req.IsExpired(now) {
		return nil, repository.ErrLinkExpired
	}

	plan, feePlan, err := g.expectedPlan(ctx, req, in.PayerWallet)
	if err != nil {
		return nil, err
	}

	receipts, err := g.fetchReceipts(ctx, req.Network, in)
	if err != nil {
		return nil, err
	}

	primary, ok := receipts[strings.ToLower(in.TxHash)]
	if !ok {
		return nil, &ReceiptNotFoundError{TxHash: in.TxHash}
	}
	if err := crossCheck(plan, receipts); err != nil {
		return nil, err
	}

	paid, alreadyPaid, err := g.links.MarkPaid(in.LinkID, req.Network, primary.TxHash, in.PayerWallet)
	if err != nil {
		return nil, err
	}

	if !alreadyPaid {
		g.recordFee(req, feePlan, in)
	}

	return &VerifyResult{
		Request:     paid,
		AlreadyPaid: alreadyPaid,
		TxHash:      primary.TxHash,
		BlockNumber: primary.BlockNumber,
	}, nil
}

// ExpectedPlan recomputes the transfer plan for a request under its current
// fee terms; used by the instructions endpoint and by verification.
func (g *Gateway) ExpectedPlan(ctx context.Context, req *models.PaymentRequest, payerWallet string) ([]transferplan.Instruction, *fees.Plan, error) {
	return g.expectedPlan(ctx, req, payerWallet)
}

func (g *Gateway) expectedPlan(ctx context.Context, req *models.PaymentRequest, payerWallet string) ([]transferplan.Instruction, *fees.Plan, error) {
	payToken, err := tokens.Lookup(req.Network, req.Token)
	if err != nil {
		return nil, nil, err
	}
	amount, err := tokens.ParseAmount(req.Amount, payToken.Decimals)
	if err != nil {
		return nil, nil, err
	}

	balance := big.NewInt(0)
	if payerWallet != "" {
		balance, err = g.chain.TokenBalance(ctx, req.Network, g.cfg.RewardTokenAddress, payerWallet)
		if err != nil {
			return nil, nil, fmt.Errorf("reward balance lookup failed for %s: %w", payerWallet, err)
		}
	}

	feePlan, err := g.resolver.Resolve(ctx, amount, payToken, balance)
	if err != nil {
		return nil, nil, err
	}

	plan := transferplan.Build(transferplan.Input{
		PaymentAmount: amount,
		PayToken:      payToken,
		Receiver:      req.Receiver,
		Fee:           feePlan,
		Treasury:      g.cfg.Treasury,
		CreatorWallet: req.CreatorWallet,
	})
	return plan, feePlan, nil
}

// fetchReceipts loads all supplied hashes concurrently; every fetch must
// complete before the cross-check runs.
func (g *Gateway) fetchReceipts(ctx context.Context, network string, in VerifyInput) (map[string]*chain.Receipt, error) {
	hashes := uniqueHashes(in.TxHash, in.FeeTxHash, in.RewardTxHash)

	receipts := make(map[string]*chain.Receipt, len(hashes))
	var mu sync.Mutex

	grp, grpCtx := errgroup.WithContext(ctx)
	for _, h := range hashes {
		hash := h
		grp.Go(func() error {
			receipt, err := g.chain.TransactionReceipt(grpCtx, network, hash)
			if err != nil {
				if err == chain.ErrReceiptNotFound {
					return &ReceiptNotFoundError{TxHash: hash}
				}
				return err
			}
			if !receipt.Success {
				return &TransactionFailedError{TxHash: hash}
			}
			mu.Lock()
			receipts[strings.ToLower(hash)] = receipt
			mu.Unlock()
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return receipts, nil
}

// crossCheck requires every plan instruction to be covered by at least one
// receipt transfer with matching recipient and token and an equal-or-greater
// amount. A transfer is consumed by the first instruction it satisfies.
func crossCheck(plan []transferplan.Instruction, receipts map[string]*chain.Receipt) error {
	type candidate struct {
		to     string
		token  string
		amount *big.Int
	}

	var transfers []candidate
	for _, receipt := range receipts {
		for _, tr := range receipt.Transfers {
			transfers = append(transfers, candidate{to: tr.To, token: tr.Token, amount: tr.Amount})
		}
		if receipt.NativeAmount != nil {
			transfers = append(transfers, candidate{to: receipt.NativeTo, token: "", amount: receipt.NativeAmount})
		}
	}

	used := make([]bool, len(transfers))
	for _, leg := range plan {
		matched := false
		var bestObserved *big.Int

		for i, tr := range transfers {
			if used[i] {
				continue
			}
			if !strings.EqualFold(tr.to, leg.To) || !strings.EqualFold(tr.token, leg.TokenAddress) {
				continue
			}
			if tr.amount.Cmp(leg.Amount) >= 0 {
				used[i] = true
				matched = true
				break
			}
			if bestObserved == nil || tr.amount.Cmp(bestObserved) > 0 {
				bestObserved = tr.amount
			}
		}

		if !matched {
			return &IncompletePaymentError{
				Leg:      leg.Description,
				Token:    leg.Token,
				To:       leg.To,
				Expected: leg.Amount,
				Observed: bestObserved,
			}
		}
	}
	return nil
}

// recordFee writes the fee ledger row. A failure here is logged, never rolled
// back: the PAID state is already canonical on-chain.
func (g *Gateway) recordFee(req *models.PaymentRequest, feePlan *fees.Plan, in VerifyInput) {
	collected, err := g.ledger.HasCollected(req.LinkID)
	if err == nil && collected {
		return
	}

	row := &models.FeeTransaction{
		LinkID:              req.LinkID,
		FeeToken:            feePlan.FeeToken,
		FeeTotal:            feePlan.FeeTotal.String(),
		PlatformShare:       feePlan.PlatformShare.String(),
		CreatorReward:       feePlan.CreatorReward.String(),
		DeductedFromPayment: feePlan.DeductedFromPayment,
		PayerBalance:        feePlan.PayerBalance.String(),
		PayerWallet:         in.PayerWallet,
		AgentKeyID:          req.AgentKeyID,
		TxHash:              in.TxHash,
		Network:             req.Network,
		Status:              models.FEE_STATUS_COLLECTED,
	}
	if feePlan.RewardPriceUSD != nil {
		price := feePlan.RewardPriceUSD.FloatString(8)
		row.RewardPriceUSD = &price
	}
	if in.FeeTxHash != "" {
		hash := in.FeeTxHash
		row.FeeTxHash = &hash
	}
	if in.RewardTxHash != "" {
		hash := in.RewardTxHash
		row.RewardTxHash = &hash
	}

	if err := g.ledger.Create(row); err != nil {
		log.Printf("settlement: failed to record fee transaction for %s: %v", req.LinkID, err)
	}
}

func uniqueHashes(hashes ...string) []string {
	seen := make(map[string]struct{}, len(hashes))
	var out []string
	for _, h := range hashes {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		key := strings.ToLower(h)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, h)
	}
	return out
}
