package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/gogotex/backend/go-users/internal/transform"
	"github.com/gogotex/gogotex/backend/go-users/internal/users"
	"github.com/gogotex/gogotex/backend/go-users/pkg/metrics"
	"github.com/gogotex/gogotex/backend/go-users/pkg/middleware"
	"go.uber.org/zap"
)

var errBodyID = errors.New("the request body must not contain an id; it is taken from the URL")

// UserHandler holds dependencies
type UserHandler struct {
	model users.Model
	log   *zap.Logger
}

func NewUserHandler(m users.Model, log *zap.Logger) *UserHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserHandler{model: m, log: log}
}

// Register routes under /users
func (h *UserHandler) Register(rg *gin.RouterGroup) {
	u := rg.Group("/users")
	u.POST("", h.Create)
	u.GET("", middleware.PaginationAndSort(), h.List)
	u.GET("/:id", h.Get)
	u.PUT("/:id", h.Put)
	u.DELETE("/:id", h.Delete)
}

// Create persists a new user. Client supplied ids are ignored.
func (h *UserHandler) Create(c *gin.Context) {
	attrs, ok := h.bind(c, "create")
	if !ok {
		return
	}
	delete(attrs, transform.PublicIDField)
	delete(attrs, transform.InternalIDField)
	h.create(c, "create", attrs)
}

func (h *UserHandler) Get(c *gin.Context) {
	u, err := h.model.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "get", err)
		return
	}
	if u == nil {
		h.notFound(c, "get")
		return
	}
	metrics.UserOperations.WithLabelValues("get", metrics.OutcomeOK).Inc()
	c.JSON(http.StatusOK, transform.IDOutgoing(u))
}

// Put updates the user at :id, creating it with that id when it does not exist.
func (h *UserHandler) Put(c *gin.Context) {
	attrs, ok := h.bind(c, "update")
	if !ok {
		return
	}
	if _, has := attrs[transform.PublicIDField]; has {
		h.fail(c, "update", errBodyID)
		return
	}
	if _, has := attrs[transform.InternalIDField]; has {
		h.fail(c, "update", errBodyID)
		return
	}

	id := c.Param("id")
	u, err := h.model.Update(c.Request.Context(), id, attrs)
	if err != nil {
		h.fail(c, "update", err)
		return
	}
	if u != nil {
		metrics.UserOperations.WithLabelValues("update", metrics.OutcomeOK).Inc()
		c.JSON(http.StatusOK, transform.IDOutgoing(u))
		return
	}

	h.log.Debug("user not found, creating with route id", zap.String("id", id), zap.String("request_id", middleware.RequestIDFrom(c)))
	attrs[transform.InternalIDField] = id
	h.create(c, "update", attrs)
}

func (h *UserHandler) Delete(c *gin.Context) {
	ok, err := h.model.DeleteUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "delete", err)
		return
	}
	if !ok {
		h.notFound(c, "delete")
		return
	}
	metrics.UserOperations.WithLabelValues("delete", metrics.OutcomeOK).Inc()
	c.Status(http.StatusNoContent)
}

// List returns users matching the remaining query keys, paginated by PaginationAndSort.
func (h *UserHandler) List(c *gin.Context) {
	p := middleware.PaginationFrom(c)
	criteria := users.Criteria{}
	for k, v := range c.Request.URL.Query() {
		if len(v) > 0 {
			criteria[k] = v[0]
		}
	}

	list, err := h.model.Where(c.Request.Context(), criteria, p.Limit, p.Offset, p.Sort)
	if err != nil {
		h.fail(c, "list", err)
		return
	}
	metrics.UserOperations.WithLabelValues("list", metrics.OutcomeOK).Inc()
	c.JSON(http.StatusOK, transform.Many(list))
}

// create is the core shared by Create and the Put fallback.
func (h *UserHandler) create(c *gin.Context, op string, attrs users.Attributes) {
	u, err := h.model.Save(c.Request.Context(), attrs)
	if err != nil {
		h.fail(c, op, err)
		return
	}
	h.log.Info("user created", zap.String("id", u.ID.Hex()), zap.String("request_id", middleware.RequestIDFrom(c)))
	metrics.UserOperations.WithLabelValues(op, metrics.OutcomeCreated).Inc()
	c.JSON(http.StatusCreated, transform.IDOutgoing(u))
}

func (h *UserHandler) bind(c *gin.Context, op string) (users.Attributes, bool) {
	var attrs users.Attributes
	if err := c.ShouldBindJSON(&attrs); err != nil {
		h.fail(c, op, err)
		return nil, false
	}
	if attrs == nil {
		attrs = users.Attributes{}
	}
	return attrs, true
}

func (h *UserHandler) fail(c *gin.Context, op string, err error) {
	h.log.Error("user request failed",
		zap.String("op", op),
		zap.String("request_id", middleware.RequestIDFrom(c)),
		zap.Bool("validation", users.IsValidation(err)),
		zap.Error(err),
	)
	metrics.UserOperations.WithLabelValues(op, metrics.OutcomeError).Inc()
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (h *UserHandler) notFound(c *gin.Context, op string) {
	metrics.UserOperations.WithLabelValues(op, metrics.OutcomeNotFound).Inc()
	c.Status(http.StatusNotFound)
}
