package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"airg/internal/bus"
	"airg/internal/models"
	"airg/internal/reqctx"
	"airg/internal/repository"
)

// HeaderReplayed marks a response served from the idempotency store.
const HeaderReplayed = "Idempotent-Replayed"

// IdempotencyStore is satisfied by *idempotency.Store.
type IdempotencyStore interface {
	Lookup(ctx context.Context, scope, key string) ([]byte, bool, error)
	Remember(ctx context.Context, scope, key string, body []byte) (bool, error)
	Replace(ctx context.Context, scope, key string, body []byte) error
	Forget(ctx context.Context, scope, key string) error
}

// storedResponse is the envelope kept per key. Status 0 marks a key that is
// reserved by a request still in flight.
type storedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

type claim int

const (
	claimSkipped claim = iota
	claimOwned
	claimReplayed
	claimBusy
)

var errInFlight = apiError(http.StatusConflict, "conflict", "a request with this Idempotency-Key is still in progress")

// claimKey reserves the request's Idempotency-Key within scope before any
// side effect runs. A key that is already taken is answered from the store,
// or reported busy while its owner has not finished. Store failures are
// logged and the request proceeds without idempotency.
func claimKey(c *gin.Context, store IdempotencyStore, scope string) claim {
	ctx := c.Request.Context()
	key := reqctx.IdempotencyKey(ctx)
	if store == nil || key == "" {
		return claimSkipped
	}

	reservation, _ := json.Marshal(storedResponse{Body: json.RawMessage("null")})
	won, err := store.Remember(ctx, scope, key, reservation)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("idempotency reserve failed")
		return claimSkipped
	}
	if won {
		return claimOwned
	}

	raw, ok, err := store.Lookup(ctx, scope, key)
	if err != nil || !ok {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("idempotency key vanished after reserve")
		return claimSkipped
	}
	var resp storedResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("discarding unreadable idempotent response")
		return claimSkipped
	}
	if resp.Status == 0 {
		respondError(c, errInFlight)
		return claimBusy
	}
	c.Header(HeaderReplayed, "true")
	c.Data(resp.Status, "application/json; charset=utf-8", resp.Body)
	return claimReplayed
}

// settle stores the final response over an owned reservation.
func settle(c *gin.Context, store IdempotencyStore, scope string, status int, body any) {
	ctx := c.Request.Context()
	key := reqctx.IdempotencyKey(ctx)

	encoded, err := json.Marshal(body)
	if err != nil {
		return
	}
	raw, err := json.Marshal(storedResponse{Status: status, Body: encoded})
	if err != nil {
		return
	}
	if err := store.Replace(ctx, scope, key, raw); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("idempotency settle failed")
	}
}

// release drops an owned reservation so the client can retry.
func release(c *gin.Context, store IdempotencyStore, scope string) {
	ctx := c.Request.Context()
	if err := store.Forget(ctx, scope, reqctx.IdempotencyKey(ctx)); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("idempotency release failed")
	}
}

// CreateExport requests an export of the given type. The Idempotency-Key is
// reserved before publishing, so concurrent repeats never publish twice and
// later repeats get the first response back.
func CreateExport(pub bus.Publisher, store IdempotencyStore, typ models.ExportType) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			ProjectID string `json:"projectId"`
		}
		if !bindJSON(c, &input) {
			return
		}
		input.ProjectID = scopedProject(c)

		scope := "export:" + string(typ) + ":" + input.ProjectID
		state := claimKey(c, store, scope)
		if state == claimReplayed || state == claimBusy {
			return
		}

		msg := bus.ExportMessage{ProjectID: input.ProjectID, Type: string(typ)}
		if err := pub.Publish(c.Request.Context(), bus.SubjectExportMake, msg); err != nil {
			if state == claimOwned {
				release(c, store, scope)
			}
			respondError(c, err)
			return
		}

		body := gin.H{"accepted": true, "projectId": input.ProjectID, "type": typ}
		if state == claimOwned {
			settle(c, store, scope, http.StatusAccepted, body)
		}
		c.JSON(http.StatusAccepted, body)
	}
}

func ListExports(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		exports, err := repository.New[models.Export](db).FindByFilter(c.Request.Context(), repository.Filter{
			Where: map[string]any{"project_id": scopedProject(c)},
			Order: "created_at DESC",
			Limit: 50,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, exports)
	}
}

func ExportDetails(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		export, err := repository.New[models.Export](db).FindByID(c.Request.Context(), c.Param("id"))
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, notFound("export"))
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, export)
	}
}
