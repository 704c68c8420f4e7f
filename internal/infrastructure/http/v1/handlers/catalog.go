package handlers

import (
	"github.com/gin-gonic/gin"

	appctx "pharmaledger/internal/core/context"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/infrastructure/http/v1/dto"
)

// CatalogHandler provides generic HTTP handlers for pharmacy-scoped catalogs.
type CatalogHandler[T domain.CatalogEntity, CreateDTO any, UpdateDTO any] struct {
	*BaseHandler
	service *domain.CatalogService[T]

	mapCreateDTO func(req CreateDTO, actor appctx.Actor) T
	mapUpdateDTO func(req UpdateDTO, existing T, actor appctx.Actor) T
}

// CatalogHandlerConfig configures the catalog handler.
type CatalogHandlerConfig[T domain.CatalogEntity, CreateDTO any, UpdateDTO any] struct {
	Service      *domain.CatalogService[T]
	MapCreateDTO func(req CreateDTO, actor appctx.Actor) T
	MapUpdateDTO func(req UpdateDTO, existing T, actor appctx.Actor) T
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler[T domain.CatalogEntity, CreateDTO any, UpdateDTO any](
	base *BaseHandler,
	cfg CatalogHandlerConfig[T, CreateDTO, UpdateDTO],
) *CatalogHandler[T, CreateDTO, UpdateDTO] {
	return &CatalogHandler[T, CreateDTO, UpdateDTO]{
		BaseHandler:  base,
		service:      cfg.Service,
		mapCreateDTO: cfg.MapCreateDTO,
		mapUpdateDTO: cfg.MapUpdateDTO,
	}
}

// List handles GET /{catalog}.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) List(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.service.List(c.Request.Context(), actor.PharmacyID, q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Get handles GET /{catalog}/:id.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) Get(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	entityID, ok := h.PathID(c)
	if !ok {
		return
	}

	entity, err := h.service.GetByID(c.Request.Context(), actor.PharmacyID, entityID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, entity)
}

// Create handles POST /{catalog}.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) Create(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req CreateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	entity := h.mapCreateDTO(req, actor)
	if err := h.service.Create(c.Request.Context(), entity); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, entity)
}

// Update handles PUT /{catalog}/:id.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) Update(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	entityID, ok := h.PathID(c)
	if !ok {
		return
	}
	var req UpdateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	existing, err := h.service.GetByID(c.Request.Context(), actor.PharmacyID, entityID)
	if err != nil {
		h.Error(c, err)
		return
	}

	updated := h.mapUpdateDTO(req, existing, actor)
	if err := h.service.Update(c.Request.Context(), updated); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, updated)
}

// Delete handles DELETE /{catalog}/:id. Records are marked, never removed.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) Delete(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	entityID, ok := h.PathID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor.PharmacyID, entityID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
