package agentcontext

import "github.com/gofiber/fiber/v2"

// LocalsKey is the fiber Locals key the auth middleware stores the context
// under.
const LocalsKey = "AGENT_CONTEXT"

// AgentContext identifies the authenticated caller for a request.
type AgentContext struct {
	KeyID         string `json:"key_id"`
	WalletAddress string `json:"wallet_address"`
	Authenticated bool   `json:"authenticated"`
}

// Get retrieves the agent context from the fiber context.
// Returns an unauthenticated context if none is set.
func Get(c *fiber.Ctx) AgentContext {
	if ctx := c.Locals(LocalsKey); ctx != nil {
		return ctx.(AgentContext)
	}
	return AgentContext{Authenticated: false}
}

// Set stores the agent context on the fiber context.
func Set(c *fiber.Ctx, ctx AgentContext) {
	c.Locals(LocalsKey, ctx)
}

// IsAuthenticated checks whether the current request carries a valid
// credential.
func IsAuthenticated(c *fiber.Ctx) bool {
	return Get(c).Authenticated
}
