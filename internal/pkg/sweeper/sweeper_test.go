package sweeper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentpayhq/agentpay/app/models"
	"github.com/agentpayhq/agentpay/app/repository"
)

func TestSweepOnce(t *testing.T) {
	links := repository.NewMemoryPaymentRequestRepository()

	past := time.Now().Add(-time.Hour)
	lapsed := &models.PaymentRequest{
		Token:     "USDC",
		Amount:    "5.00",
		Receiver:  "0x1111111111111111111111111111111111111111",
		Network:   "ethereum",
		ExpiresAt: &past,
	}
	require.NoError(t, links.Create(lapsed))

	open := &models.PaymentRequest{
		Token:    "USDC",
		Amount:   "5.00",
		Receiver: "0x1111111111111111111111111111111111111111",
		Network:  "ethereum",
	}
	require.NoError(t, links.Create(open))

	s := New(links, time.Minute)
	assert.EqualValues(t, 1, s.SweepOnce())

	stored, err := links.GetByLinkID(lapsed.LinkID)
	require.NoError(t, err)
	assert.Equal(t, models.LINK_STATUS_EXPIRED, stored.Status)

	// nothing left to sweep
	assert.EqualValues(t, 0, s.SweepOnce())
}

func TestStartStop(t *testing.T) {
	links := repository.NewMemoryPaymentRequestRepository()
	s := New(links, 10*time.Millisecond)

	s.Start()
	s.Start() // second start is a no-op
	time.Sleep(30 * time.Millisecond)
	s.Stop()
	s.Stop() // second stop is a no-op
}
