package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BloodCharry/PolicyMesh/internal/core/domain"
	"github.com/BloodCharry/PolicyMesh/internal/transport/http/middleware"
)

// Order is an owned demo record used to exercise per-record permission checks.
type Order struct {
	ID        string
	OwnerID   string
	Item      string
	Quantity  int
	CreatedAt time.Time
}

// OrderStore is an in-memory order repository.
type OrderStore struct {
	mu     sync.RWMutex
	orders map[string]Order
}

// NewOrderStore creates an empty OrderStore.
func NewOrderStore() *OrderStore {
	return &OrderStore{orders: make(map[string]Order)}
}

func (s *OrderStore) put(o Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
}

func (s *OrderStore) get(id string) (Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	return o, ok
}

func (s *OrderStore) delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.orders, id)
}

func (s *OrderStore) list() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	return out
}

// OrderHandler demonstrates fine-grained checks: the route gate has already
// verified the action is permitted in principle, and the handler re-checks the
// same action against the concrete record owner.
type OrderHandler struct {
	store  *OrderStore
	authz  middleware.PermissionDecider
	logger *zap.Logger
}

// NewOrderHandler creates an OrderHandler backed by the given store.
func NewOrderHandler(store *OrderStore, authz middleware.PermissionDecider, log *zap.Logger) *OrderHandler {
	return &OrderHandler{store: store, authz: authz, logger: log}
}

// RegisterRoutes binds order endpoints to an authenticated router group.
func (h *OrderHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("", h.create)
	r.GET("", h.list)
	r.GET("/:id", h.get)
	r.PUT("/:id", h.update)
	r.DELETE("/:id", h.remove)
}

const orderResource = "orders"

// decide runs the permission check against a concrete record owner and writes
// the refusal itself. Returns true when the caller may proceed.
func (h *OrderHandler) decide(c *gin.Context, action domain.Action, ownerID *string) bool {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return false
	}

	decision, err := h.authz.Decide(c.Request.Context(), principal, orderResource, action, ownerID)
	if err != nil {
		h.logger.Error("order permission check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "authorization unavailable"))
		return false
	}
	if !decision.Allowed {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "access denied",
			Reason:  string(decision.Reason),
			TraceID: middleware.GetTraceID(c),
		})
		return false
	}
	return true
}

// preflight rejects callers with no grant for the action at all, before the
// record is looked up. Without it a 404 would tell an ungranted caller which
// ids exist. A caller passing on the own-record flag alone still faces the
// per-record owner check afterwards.
func (h *OrderHandler) preflight(c *gin.Context, action domain.Action) bool {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return false
	}

	global, err := h.authz.Decide(c.Request.Context(), principal, orderResource, action, nil)
	if err != nil {
		h.logger.Error("order permission check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "authorization unavailable"))
		return false
	}
	if global.Allowed {
		return true
	}

	return h.decide(c, action, &principal.ID)
}

func (h *OrderHandler) create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	if !h.decide(c, domain.ActionCreate, nil) {
		return
	}

	principal, _ := middleware.GetPrincipal(c)
	order := Order{
		ID:        uuid.NewString(),
		OwnerID:   principal.ID,
		Item:      req.Item,
		Quantity:  req.Quantity,
		CreatedAt: time.Now().UTC(),
	}
	h.store.put(order)

	c.JSON(http.StatusCreated, orderResponse(order))
}

func (h *OrderHandler) list(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	// A read grant without the global flag still permits listing, restricted
	// to the caller's own records.
	global, err := h.authz.Decide(c.Request.Context(), principal, orderResource, domain.ActionRead, nil)
	if err != nil {
		h.logger.Error("order permission check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "authorization unavailable"))
		return
	}

	orders := h.store.list()
	out := make([]OrderResponse, 0, len(orders))
	if global.Allowed {
		for _, o := range orders {
			out = append(out, orderResponse(o))
		}
		c.JSON(http.StatusOK, out)
		return
	}

	own, err := h.authz.Decide(c.Request.Context(), principal, orderResource, domain.ActionRead, &principal.ID)
	if err != nil {
		h.logger.Error("order permission check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "authorization unavailable"))
		return
	}
	if !own.Allowed {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "access denied",
			Reason:  string(own.Reason),
			TraceID: middleware.GetTraceID(c),
		})
		return
	}

	for _, o := range orders {
		if o.OwnerID == principal.ID {
			out = append(out, orderResponse(o))
		}
	}
	c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) get(c *gin.Context) {
	if !h.preflight(c, domain.ActionRead) {
		return
	}

	order, ok := h.store.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, NewErrorResponse(c, "order not found"))
		return
	}

	if !h.decide(c, domain.ActionRead, &order.OwnerID) {
		return
	}
	c.JSON(http.StatusOK, orderResponse(order))
}

func (h *OrderHandler) update(c *gin.Context) {
	if !h.preflight(c, domain.ActionUpdate) {
		return
	}

	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	order, ok := h.store.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, NewErrorResponse(c, "order not found"))
		return
	}

	if !h.decide(c, domain.ActionUpdate, &order.OwnerID) {
		return
	}

	if req.Item != "" {
		order.Item = req.Item
	}
	if req.Quantity > 0 {
		order.Quantity = req.Quantity
	}
	h.store.put(order)

	c.JSON(http.StatusOK, orderResponse(order))
}

func (h *OrderHandler) remove(c *gin.Context) {
	if !h.preflight(c, domain.ActionDelete) {
		return
	}

	order, ok := h.store.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, NewErrorResponse(c, "order not found"))
		return
	}

	if !h.decide(c, domain.ActionDelete, &order.OwnerID) {
		return
	}

	h.store.delete(order.ID)
	c.JSON(http.StatusOK, MessageResponse{Message: "order deleted"})
}

func orderResponse(o Order) OrderResponse {
	return OrderResponse{
		ID:        o.ID,
		OwnerID:   o.OwnerID,
		Item:      o.Item,
		Quantity:  o.Quantity,
		CreatedAt: o.CreatedAt,
	}
}
