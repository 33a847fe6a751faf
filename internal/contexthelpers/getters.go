package contexthelpers

import (
	"context"
)

// PlayerID returns the identifier of the player bound to the current session
// or nil when the player middleware has not run.
func PlayerID(ctx context.Context) []byte {
	playerID, ok := ctx.Value(playerIDContextKey).([]byte)
	if !ok {
		return nil
	}

	return playerID
}

func CurrentPath(ctx context.Context) string {
	currentPath, ok := ctx.Value(currentPathContextKey).(string)
	if !ok {
		return ""
	}

	return currentPath
}

func CSRFToken(ctx context.Context) string {
	csrfToken, ok := ctx.Value(csrfTokenContextKey).(string)
	if !ok {
		return ""
	}

	return csrfToken
}

func CSPNonce(ctx context.Context) string {
	cspNonce, ok := ctx.Value(cspNonceContextKey).(string)
	if !ok {
		return ""
	}

	return cspNonce
}
