package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmaledger/internal/core/apperror"
	appctx "pharmaledger/internal/core/context"
	"pharmaledger/internal/infrastructure/storage/postgres"
	"pharmaledger/pkg/logger"
)

const (
	HeaderIdempotencyKey = "X-Idempotency-Key"

	maxIdempotencyBodyBytes = 1 << 20 // 1 MiB

	ctxIdempotencyKey   = "idempotency_key"
	ctxIdempotencyStore = "idempotency_store"
)

// IdempotencyStore persists request keys and their final responses.
type IdempotencyStore interface {
	AcquireKey(ctx context.Context, key, actorID, operation, requestHash string) (*postgres.IdempotencyReplay, error)
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error
	FailKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error
}

// Idempotency replays the stored response for a repeated X-Idempotency-Key.
// Must run after Auth: keys are namespaced by actor.
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}

		actorID := ""
		if actor, ok := appctx.GetActor(c.Request.Context()); ok {
			actorID = actor.ActorID.String()
		}

		limited := io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1)
		body, _ := io.ReadAll(limited)
		if len(body) > maxIdempotencyBodyBytes {
			appErr := apperror.NewValidation("request body too large for idempotency")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			_ = c.Error(appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		// Query string is part of the request: ?restore_inventory= changes the effect.
		h := sha256.New()
		h.Write([]byte(c.Request.URL.RawQuery))
		h.Write([]byte{0})
		h.Write(body)
		requestHash := hex.EncodeToString(h.Sum(nil))

		operation := c.Request.Method + " " + c.FullPath()

		replay, err := store.AcquireKey(c.Request.Context(), key, actorID, operation, requestHash)
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				_ = c.Error(appErr)
			} else {
				_ = c.Error(apperror.NewInternal(err).WithDetail("component", "idempotency"))
			}
			c.Abort()
			return
		}

		if replay != nil {
			c.Header("Idempotent-Replay", "true")
			if replay.StatusCode == http.StatusNoContent {
				c.Status(http.StatusNoContent)
			} else {
				c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			}
			c.Abort()
			return
		}

		c.Set(ctxIdempotencyKey, key)
		c.Set(ctxIdempotencyStore, store)

		c.Next()
	}
}

// CompleteIdempotency stores a successful response for replay. No-op when
// the request carried no key.
func CompleteIdempotency(c *gin.Context, statusCode int, contentType string, body []byte) {
	key := c.GetString(ctxIdempotencyKey)
	if key == "" {
		return
	}
	store, ok := c.Get(ctxIdempotencyStore)
	if !ok {
		return
	}
	if s, ok := store.(IdempotencyStore); ok && s != nil {
		// The response is already committed; a lost record only costs a replay.
		if err := s.CompleteKey(c.Request.Context(), key, statusCode, contentType, body); err != nil {
			logger.Warn(c.Request.Context(), "failed to store idempotent response",
				"idempotency_key", key,
				"status", statusCode,
				"error", err,
			)
		}
	}
}
