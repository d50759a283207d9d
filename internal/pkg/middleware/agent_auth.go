package middleware

import (
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/agentpayhq/agentpay/app/repository"
	"github.com/agentpayhq/agentpay/internal/pkg/agentcontext"
	"github.com/agentpayhq/agentpay/internal/pkg/hmacsig"
)

// Signed-request headers. The signature covers the exact wire bytes of the
// body, so any re-encoding by a proxy invalidates it.
const (
	HeaderKeyID     = "Key-Identifier"
	HeaderTimestamp = "Timestamp"
	HeaderSignature = "Signature"
)

// AgentAuthMiddleware authenticates requests signed with an agent credential.
// Verification order: credential lookup, timestamp freshness, signature.
func AgentAuthMiddleware(creds repository.AgentCredentialRepository, replayWindow time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		keyID := strings.TrimSpace(c.Get(HeaderKeyID))
		timestamp := strings.TrimSpace(c.Get(HeaderTimestamp))
		signature := strings.TrimSpace(c.Get(HeaderSignature))
		if keyID == "" || timestamp == "" || signature == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unknown_key", "message": "Missing signed-request headers"})
		}

		cred, err := creds.GetByKeyID(keyID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unknown_key", "message": "Unknown key identifier"})
			}
			log.Printf("agent auth: credential lookup failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Credential verification failed"})
		}
		if !cred.IsActive() {
			// Inactive and suspended keys are indistinguishable from
			// unknown ones to the caller.
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unknown_key", "message": "Unknown key identifier"})
		}

		ts, err := strconv.ParseInt(timestamp, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "stale_request", "message": "Invalid timestamp"})
		}
		age := time.Since(time.Unix(ts, 0))
		if age > replayWindow || age < -replayWindow {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "stale_request", "message": "Timestamp outside replay window"})
		}

		canonical := hmacsig.CanonicalRequest(timestamp, c.Method(), c.Path(), c.Body())
		if !hmacsig.Verify(cred.Secret, canonical, signature) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature", "message": "Signature verification failed"})
		}

		// Refresh last-used timestamp best-effort.
		if err := creds.TouchLastUsed(cred.KeyID, time.Now()); err != nil {
			log.Printf("agent auth: failed to update last-used timestamp for %s: %v", cred.KeyID, err)
		}

		agentcontext.Set(c, agentcontext.AgentContext{
			KeyID:         cred.KeyID,
			WalletAddress: cred.WalletAddress,
			Authenticated: true,
		})

		return c.Next()
	}
}
