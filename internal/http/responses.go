package http

import (
	"time"

	"plate-auction/internal/domain"
)

type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsStaff  bool   `json:"is_staff"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type PlateResponse struct {
	ID          int64  `json:"id"`
	PlateNumber string `json:"plate_number"`
	Description string `json:"description"`
	Deadline    string `json:"deadline"`
	IsActive    bool   `json:"is_active"`
	CreatedByID int64  `json:"created_by_id"`
}

type BidResponse struct {
	ID        int64   `json:"id"`
	Amount    float64 `json:"amount"`
	PlateID   int64   `json:"plate_id"`
	UserID    int64   `json:"user_id"`
	CreatedAt string  `json:"created_at"`
}

type DetailResponse struct {
	Detail string `json:"detail"`
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		IsStaff:  user.IsStaff(),
	}
}

func plateToResponse(plate domain.Plate) PlateResponse {
	return PlateResponse{
		ID:          plate.ID,
		PlateNumber: plate.PlateNumber,
		Description: plate.Description,
		Deadline:    plate.Deadline.UTC().Format(time.RFC3339),
		IsActive:    plate.IsActive,
		CreatedByID: plate.CreatedByID,
	}
}

func bidToResponse(bid domain.Bid) BidResponse {
	return BidResponse{
		ID:        bid.ID,
		Amount:    bid.Amount,
		PlateID:   bid.PlateID,
		UserID:    bid.UserID,
		CreatedAt: bid.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
