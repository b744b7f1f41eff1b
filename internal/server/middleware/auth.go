package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	identityservice "senya-web-backend/internal/identity/service"
)

const bearerPrefix = "bearer "

// RefreshCookieName is the cookie carrying the refresh token.
const RefreshCookieName = "refresh_token"

// TokenVerifier validates an access/refresh token pair and reports the
// verified subject plus a new access token when a silent refresh occurred.
type TokenVerifier interface {
	VerifyTokens(ctx context.Context, accessToken, refreshToken string) (*identityservice.VerifyResult, error)
}

// RequireAuth returns middleware that authenticates every request before the
// wrapped handler runs. The access token comes from the Authorization header,
// the refresh token from the refresh_token cookie. On failure the request is
// answered with 401 and the handler is never invoked. On success the verified
// subject id is placed in the request context. When verification minted a new
// access token, a JSON object response body gains a top-level
// new_access_token field; non-JSON responses pass through unmodified.
func RequireAuth(verifier TokenVerifier, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accessToken := extractBearer(r.Header.Get("Authorization"))
			refreshToken := ""
			if c, err := r.Cookie(RefreshCookieName); err == nil {
				refreshToken = c.Value
			}

			res, err := verifier.VerifyTokens(r.Context(), accessToken, refreshToken)
			if err != nil {
				log.Debug("request auth failed",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				writeUnauthorized(w, err)
				return
			}

			ctx := WithUserID(r.Context(), res.Subject)
			r = r.WithContext(ctx)

			if res.NewAccessToken == "" {
				next.ServeHTTP(w, r)
				return
			}

			// A silent refresh occurred: buffer the response so a JSON body
			// can carry the new token back to the client.
			bw := newBufferedWriter()
			next.ServeHTTP(bw, r)
			bw.flushTo(w, res.NewAccessToken)
		})
	}
}

// extractBearer returns the Bearer token from an Authorization header value,
// or "" if missing or malformed.
func extractBearer(v string) string {
	v = strings.TrimSpace(v)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}

// writeUnauthorized converts any verifier error into the transport's standard
// 401 response. Internal detail never leaks past the sentinel messages.
func writeUnauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": err.Error()})
}

// bufferedWriter captures the handler's response so the body can be rewritten
// before anything reaches the client.
type bufferedWriter struct {
	header http.Header
	buf    bytes.Buffer
	status int
}

func newBufferedWriter() *bufferedWriter {
	return &bufferedWriter{header: make(http.Header), status: http.StatusOK}
}

func (bw *bufferedWriter) Header() http.Header { return bw.header }

func (bw *bufferedWriter) WriteHeader(status int) { bw.status = status }

func (bw *bufferedWriter) Write(p []byte) (int, error) { return bw.buf.Write(p) }

// flushTo writes the buffered response to w, injecting newAccessToken into a
// JSON object body. Any body that is not a JSON object is forwarded verbatim
// and the refreshed token is dropped.
func (bw *bufferedWriter) flushTo(w http.ResponseWriter, newAccessToken string) {
	body := bw.buf.Bytes()
	contentType := bw.header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		var payload map[string]interface{}
		if err := json.Unmarshal(body, &payload); err == nil && payload != nil {
			payload["new_access_token"] = newAccessToken
			if rewritten, err := json.Marshal(payload); err == nil {
				body = rewritten
			}
		}
	}
	for k, vals := range bw.header {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(bw.status)
	_, _ = w.Write(body)
}
