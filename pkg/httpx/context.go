package httpx

type ctxKey string

// CtxKeyUserID carries the authenticated caller's user id (as a decimal
// string) once an auth middleware has run. Rate limiting keys off it.
const CtxKeyUserID ctxKey = "user_id"
