package redis

import "strings"

// Every key lives under "bc:<kind>:...". Empty parts are dropped.
const (
	keyNamespace = "bc"

	kindIdempotency  = "idempotency"
	kindRateLimit    = "rate_limit"
	kindSession      = "session"
	kindConversation = "conversation"
)

func (c *Client) IdempotencyKey(scope, id string) string {
	return buildKey(kindIdempotency, scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return buildKey(kindRateLimit, scope)
}

// AccessSessionKey holds the refresh token hash for one access token jti.
func (c *Client) AccessSessionKey(accessID string) string {
	return buildKey(kindSession, "access", accessID)
}

// ConversationKey scopes assistant memory to one user and one login session.
func (c *Client) ConversationKey(userID, sessionID string) string {
	return buildKey(kindConversation, userID, sessionID)
}

func buildKey(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}
