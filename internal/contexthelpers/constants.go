package contexthelpers

type contextKey string

const playerIDContextKey = contextKey("playerID")
const currentPathContextKey = contextKey("currentPath")
const csrfTokenContextKey = contextKey("csrfToken")
const cspNonceContextKey = contextKey("cspNonce")
