package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"plate-auction/internal/service"
)

const invalidPayload = "invalid request payload"

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	IsStaff  bool   `json:"is_staff"`
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type plateRequest struct {
	PlateNumber string `json:"plate_number"`
	Description string `json:"description"`
	Deadline    string `json:"deadline"`
	IsActive    *bool  `json:"is_active"`
}

// Amount is a pointer so that a zero amount reaches the bid rules instead of
// failing the required check.
type createBidRequest struct {
	Amount  *float64 `json:"amount" binding:"required"`
	PlateID *int64   `json:"plate_id" binding:"required"`
}

type updateBidRequest struct {
	Amount *float64 `json:"amount" binding:"required"`
}

func (r plateRequest) input() service.PlateInput {
	return service.PlateInput{
		PlateNumber: r.PlateNumber,
		Description: r.Description,
		Deadline:    r.Deadline,
		IsActive:    r.IsActive,
	}
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidPayload})
		return
	}

	user, err := h.users.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		IsStaff:  req.IsStaff,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, userToResponse(user))
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidPayload})
		return
	}

	token, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *Handler) me(c *gin.Context) {
	c.JSON(http.StatusOK, userToResponse(currentUser(c)))
}

func (h *Handler) listPlates(c *gin.Context) {
	plates, err := h.plates.ListOpen(c.Request.Context(), c.Query("ordering"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]PlateResponse, len(plates))
	for i := range plates {
		resp[i] = plateToResponse(plates[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createPlate(c *gin.Context) {
	var req plateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidPayload})
		return
	}

	plate, err := h.plates.Create(c.Request.Context(), currentUser(c), req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plateToResponse(*plate))
}

func (h *Handler) getPlate(c *gin.Context) {
	id, ok := pathID(c, "plate")
	if !ok {
		return
	}

	plate, err := h.plates.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plateToResponse(*plate))
}

func (h *Handler) updatePlate(c *gin.Context) {
	id, ok := pathID(c, "plate")
	if !ok {
		return
	}
	var req plateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidPayload})
		return
	}

	plate, err := h.plates.Update(c.Request.Context(), currentUser(c), id, req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plateToResponse(*plate))
}

func (h *Handler) deletePlate(c *gin.Context) {
	id, ok := pathID(c, "plate")
	if !ok {
		return
	}

	if err := h.plates.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, DetailResponse{Detail: "Plate deleted"})
}

func (h *Handler) listBids(c *gin.Context) {
	bids, err := h.bids.ListMine(c.Request.Context(), currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]BidResponse, len(bids))
	for i := range bids {
		resp[i] = bidToResponse(bids[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createBid(c *gin.Context) {
	var req createBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidPayload})
		return
	}

	bid, err := h.bids.Create(c.Request.Context(), currentUser(c), *req.PlateID, *req.Amount)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bidToResponse(*bid))
}

func (h *Handler) getBid(c *gin.Context) {
	id, ok := pathID(c, "bid")
	if !ok {
		return
	}

	bid, err := h.bids.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bidToResponse(*bid))
}

func (h *Handler) updateBid(c *gin.Context) {
	id, ok := pathID(c, "bid")
	if !ok {
		return
	}
	var req updateBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidPayload})
		return
	}

	bid, err := h.bids.Update(c.Request.Context(), currentUser(c), id, *req.Amount)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bidToResponse(*bid))
}

func (h *Handler) deleteBid(c *gin.Context) {
	id, ok := pathID(c, "bid")
	if !ok {
		return
	}

	if err := h.bids.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, DetailResponse{Detail: "Bid deleted"})
}
