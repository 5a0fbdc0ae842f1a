package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"plate-auction/internal/domain"
	"plate-auction/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users  service.UserService
	plates service.PlateService
	bids   service.BidService
	logger logrus.FieldLogger
}

func NewHandler(users service.UserService, plates service.PlateService, bids service.BidService, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		users:  users,
		plates: plates,
		bids:   bids,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := router.Group("/auth")
	{
		handle(authGroup, http.MethodPost, "/register", h.register)
		handle(authGroup, http.MethodPost, "/login", h.login)
		handle(authGroup, http.MethodGet, "/me", h.requireUser, h.me)
	}

	plates := router.Group("/plates")
	{
		handle(plates, http.MethodGet, "", h.listPlates)
		handle(plates, http.MethodPost, "", h.requireUser, h.createPlate)
		handle(plates, http.MethodGet, "/:id", h.getPlate)
		handle(plates, http.MethodPut, "/:id", h.requireUser, h.updatePlate)
		handle(plates, http.MethodDelete, "/:id", h.requireUser, h.deletePlate)
	}

	bids := router.Group("/bids", h.requireUser)
	{
		handle(bids, http.MethodGet, "", h.listBids)
		handle(bids, http.MethodPost, "", h.createBid)
		handle(bids, http.MethodGet, "/:id", h.getBid)
		handle(bids, http.MethodPut, "/:id", h.updateBid)
		handle(bids, http.MethodDelete, "/:id", h.deleteBid)
	}
}

// handle registers path with and without a trailing slash so neither form
// is answered with a redirect.
func handle(group *gin.RouterGroup, method, path string, handlers ...gin.HandlerFunc) {
	group.Handle(method, path, handlers...)
	group.Handle(method, path+"/", handlers...)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// pathID parses the :id segment. It writes the 400 itself and reports false
// when the segment is not a positive integer.
func pathID(c *gin.Context, entity string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + entity + " id"})
		return 0, false
	}
	return id, true
}

// respondError maps err to a status and writes the error body.
func (h *Handler) respondError(c *gin.Context, err error) {
	status, message := statusFor(err)
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	if status >= http.StatusInternalServerError {
		h.logger.WithFields(logrus.Fields{
			"request_id": c.GetString(requestIDKey),
			"path":       c.Request.URL.Path,
		}).WithError(err).Error("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// statusFor maps a domain error kind to an HTTP status and a caller-facing
// message. Errors without a kind are internal.
func statusFor(err error) (int, string) {
	message := domain.Message(err)
	switch {
	case message == "":
		return http.StatusInternalServerError, "internal server error"
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrConflict):
		return http.StatusBadRequest, message
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, message
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden, message
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, message
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
