package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"bizbook/internal/core/apperror"
	appctx "bizbook/internal/core/context"
	"bizbook/internal/infrastructure/storage/postgres"
	"bizbook/pkg/logger"
)

const HeaderIdempotencyKey = "X-Idempotency-Key"
const maxIdempotencyBodyBytes = 1 << 20 // 1 MiB

// IdempotencyStore persists idempotency keys. Implemented by postgres.IdempotencyStore.
type IdempotencyStore interface {
	AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*postgres.IdempotencyReplay, error)
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error
	FailKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error
	ReleaseKey(ctx context.Context, key string) error
}

// capturingWriter keeps a copy of the response body for replay.
type capturingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response of a POST or PUT carrying
// X-Idempotency-Key. 4xx responses are stored too; 5xx release the key so
// the client may retry.
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut {
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1))
		if err != nil {
			_ = c.Error(apperror.NewValidation("cannot read request body"))
			c.Abort()
			return
		}
		if len(body) > maxIdempotencyBodyBytes {
			appErr := apperror.NewValidation("request body too large for idempotency")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			_ = c.Error(appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		hash := sha256.Sum256(body)
		operation := c.Request.Method + " " + c.FullPath()

		replay, err := store.AcquireKey(ctx, key, appctx.GetUserID(ctx), operation, hex.EncodeToString(hash[:]))
		if err != nil {
			if _, ok := apperror.AsAppError(err); !ok {
				err = apperror.NewInternal(err).WithDetail("component", "idempotency")
			}
			_ = c.Error(err)
			c.Abort()
			return
		}
		if replay != nil {
			c.Header("Idempotent-Replayed", "true")
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		w := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		// Render errors here so the stored body is the one the client sees.
		renderError(c)
		finishKey(c, store, key, w)
	}
}

func finishKey(c *gin.Context, store IdempotencyStore, key string, w *capturingWriter) {
	ctx := context.WithoutCancel(c.Request.Context())
	status := w.Status()
	contentType := w.Header().Get("Content-Type")

	var err error
	switch {
	case status >= http.StatusInternalServerError:
		err = store.ReleaseKey(ctx, key)
	case status >= http.StatusBadRequest:
		err = store.FailKey(ctx, key, status, contentType, w.body.Bytes())
	default:
		err = store.CompleteKey(ctx, key, status, contentType, w.body.Bytes())
	}
	if err != nil {
		logger.Warn(ctx, "idempotency key not finished", "key", key, "status", status, "error", err)
	}
}
