package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"plate-auction/internal/domain"
	"plate-auction/internal/repository"
)

// BidService manages the bids of one bidder at a time.
type BidService interface {
	ListMine(ctx context.Context, user *domain.User) ([]domain.Bid, error)
	Create(ctx context.Context, user *domain.User, plateID int64, amount float64) (*domain.Bid, error)
	Get(ctx context.Context, user *domain.User, id int64) (*domain.Bid, error)
	Update(ctx context.Context, user *domain.User, id int64, amount float64) (*domain.Bid, error)
	Delete(ctx context.Context, user *domain.User, id int64) error
}

type bidService struct {
	store  repository.Store
	clock  Clock
	logger logrus.FieldLogger
}

func NewBidService(store repository.Store, clock Clock, logger logrus.FieldLogger) BidService {
	return &bidService{
		store:  store,
		clock:  clock,
		logger: loggerOrDefault(logger),
	}
}

func (s *bidService) ListMine(ctx context.Context, user *domain.User) ([]domain.Bid, error) {
	if user == nil {
		return nil, domain.ErrInvalidToken
	}
	return s.store.Bids().ListByUser(ctx, user.ID)
}

func (s *bidService) Create(ctx context.Context, user *domain.User, plateID int64, amount float64) (*domain.Bid, error) {
	if user == nil {
		return nil, domain.ErrInvalidToken
	}
	fields := logrus.Fields{"user_id": user.ID, "plate_id": plateID, "amount": amount}

	var bid *domain.Bid
	err := s.store.InTx(ctx, func(tx repository.Repositories) error {
		now := s.clock.Now()
		plate, err := tx.Plates().GetForUpdate(ctx, plateID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrBiddingClosed
			}
			return err
		}
		if err := checkPlateOpen(plate, now, domain.ErrBiddingClosed); err != nil {
			return err
		}

		if _, err := tx.Bids().GetByUserAndPlate(ctx, user.ID, plateID); err == nil {
			return domain.ErrDuplicateBid
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		if err := checkAmount(amount); err != nil {
			return err
		}
		highest, ok, err := tx.Bids().HighestAmount(ctx, plateID, 0)
		if err != nil {
			return err
		}
		if err := checkExceedsOthers(amount, highest, ok); err != nil {
			return err
		}

		bid = &domain.Bid{
			Amount:    amount,
			UserID:    user.ID,
			PlateID:   plateID,
			CreatedAt: now,
		}
		if _, err := tx.Bids().Create(ctx, bid); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return domain.ErrDuplicateBid
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, logOutcome(s.logger, fields, "create bid", err)
	}

	s.logger.WithFields(fields).WithField("bid_id", bid.ID).Info("bid placed")
	return bid, nil
}

func (s *bidService) Get(ctx context.Context, user *domain.User, id int64) (*domain.Bid, error) {
	if user == nil {
		return nil, domain.ErrInvalidToken
	}
	bid, err := s.store.Bids().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrBidViewForbidden
		}
		return nil, err
	}
	if bid.UserID != user.ID {
		return nil, domain.ErrBidViewForbidden
	}
	return bid, nil
}

func (s *bidService) Update(ctx context.Context, user *domain.User, id int64, amount float64) (*domain.Bid, error) {
	if user == nil {
		return nil, domain.ErrInvalidToken
	}
	fields := logrus.Fields{"user_id": user.ID, "bid_id": id, "amount": amount}

	var bid *domain.Bid
	err := s.store.InTx(ctx, func(tx repository.Repositories) error {
		current, plate, err := s.lockOwnBid(ctx, tx, user, id, domain.ErrBidEditForbidden)
		if err != nil {
			return err
		}
		if err := checkPlateOpen(plate, s.clock.Now(), domain.ErrBiddingEnded); err != nil {
			return err
		}
		if err := checkAmount(amount); err != nil {
			return err
		}
		highest, ok, err := tx.Bids().HighestAmount(ctx, current.PlateID, current.ID)
		if err != nil {
			return err
		}
		if err := checkExceedsOthers(amount, highest, ok); err != nil {
			return err
		}

		if err := tx.Bids().UpdateAmount(ctx, current.ID, amount); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrBidEditForbidden
			}
			return err
		}
		current.Amount = amount
		bid = current
		return nil
	})
	if err != nil {
		return nil, logOutcome(s.logger, fields, "update bid", err)
	}

	s.logger.WithFields(fields).WithField("plate_id", bid.PlateID).Info("bid raised")
	return bid, nil
}

func (s *bidService) Delete(ctx context.Context, user *domain.User, id int64) error {
	if user == nil {
		return domain.ErrInvalidToken
	}
	fields := logrus.Fields{"user_id": user.ID, "bid_id": id}

	err := s.store.InTx(ctx, func(tx repository.Repositories) error {
		current, plate, err := s.lockOwnBid(ctx, tx, user, id, domain.ErrBidDropForbidden)
		if err != nil {
			return err
		}
		if err := checkPlateOpen(plate, s.clock.Now(), domain.ErrBiddingEnded); err != nil {
			return err
		}
		if err := tx.Bids().Delete(ctx, current.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrBidDropForbidden
			}
			return err
		}
		return nil
	})
	if err != nil {
		return logOutcome(s.logger, fields, "delete bid", err)
	}

	s.logger.WithFields(fields).Info("bid withdrawn")
	return nil
}

// lockOwnBid loads a bid owned by user and locks its plate. A missing bid and
// a bid of another user both yield forbidden.
func (s *bidService) lockOwnBid(ctx context.Context, tx repository.Repositories, user *domain.User, id int64, forbidden error) (*domain.Bid, *domain.Plate, error) {
	bid, err := tx.Bids().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, forbidden
		}
		return nil, nil, err
	}
	if bid.UserID != user.ID {
		return nil, nil, forbidden
	}

	plate, err := tx.Plates().GetForUpdate(ctx, bid.PlateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, domain.ErrBiddingEnded
		}
		return nil, nil, err
	}
	return bid, plate, nil
}
