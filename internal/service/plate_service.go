package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"plate-auction/internal/domain"
	"plate-auction/internal/repository"
)

// PlateInput carries the editable fields of a plate. Deadline is the raw
// timestamp as received; IsActive is only honoured by Update.
type PlateInput struct {
	PlateNumber string
	Description string
	Deadline    string
	IsActive    *bool
}

// PlateService manages plate listings.
type PlateService interface {
	ListOpen(ctx context.Context, ordering string) ([]domain.Plate, error)
	Create(ctx context.Context, actor *domain.User, input PlateInput) (*domain.Plate, error)
	Get(ctx context.Context, id int64) (*domain.Plate, error)
	Update(ctx context.Context, actor *domain.User, id int64, input PlateInput) (*domain.Plate, error)
	Delete(ctx context.Context, actor *domain.User, id int64) error
}

type plateService struct {
	store  repository.Store
	clock  Clock
	logger logrus.FieldLogger
}

func NewPlateService(store repository.Store, clock Clock, logger logrus.FieldLogger) PlateService {
	return &plateService{
		store:  store,
		clock:  clock,
		logger: loggerOrDefault(logger),
	}
}

func (s *plateService) ListOpen(ctx context.Context, ordering string) ([]domain.Plate, error) {
	order, err := domain.ParsePlateOrdering(ordering)
	if err != nil {
		return nil, err
	}
	return s.store.Plates().ListOpen(ctx, s.clock.Now(), order)
}

func (s *plateService) Create(ctx context.Context, actor *domain.User, input PlateInput) (*domain.Plate, error) {
	fields := actorFields(actor)
	if err := requireStaff(actor); err != nil {
		return nil, logOutcome(s.logger, fields, "create plate", err)
	}
	number, err := domain.NormalizePlateNumber(input.PlateNumber)
	if err != nil {
		return nil, logOutcome(s.logger, fields, "create plate", err)
	}
	fields["plate_number"] = number

	var plate *domain.Plate
	err = s.store.InTx(ctx, func(tx repository.Repositories) error {
		if err := checkNumberFree(ctx, tx, number, 0); err != nil {
			return err
		}
		now := s.clock.Now()
		deadline, err := parseFutureDeadline(input.Deadline, now)
		if err != nil {
			return err
		}

		plate = &domain.Plate{
			PlateNumber: number,
			Description: input.Description,
			Deadline:    deadline,
			IsActive:    true,
			CreatedByID: actor.ID,
			CreatedAt:   now,
		}
		if _, err := tx.Plates().Create(ctx, plate); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return domain.ErrPlateNumberTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, logOutcome(s.logger, fields, "create plate", err)
	}

	s.logger.WithFields(fields).WithFields(logrus.Fields{
		"plate_id": plate.ID,
		"deadline": plate.Deadline,
	}).Info("plate created")
	return plate, nil
}

func (s *plateService) Get(ctx context.Context, id int64) (*domain.Plate, error) {
	plate, err := s.store.Plates().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrPlateNotFound
		}
		return nil, err
	}
	return plate, nil
}

func (s *plateService) Update(ctx context.Context, actor *domain.User, id int64, input PlateInput) (*domain.Plate, error) {
	fields := actorFields(actor)
	fields["plate_id"] = id
	if err := requireStaff(actor); err != nil {
		return nil, logOutcome(s.logger, fields, "update plate", err)
	}

	var (
		plate   *domain.Plate
		renamed string
		bids    int
	)
	err := s.store.InTx(ctx, func(tx repository.Repositories) error {
		current, err := tx.Plates().GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrPlateNotFound
			}
			return err
		}
		number, err := domain.NormalizePlateNumber(input.PlateNumber)
		if err != nil {
			return err
		}
		if err := checkNumberFree(ctx, tx, number, id); err != nil {
			return err
		}
		deadline, err := parseFutureDeadline(input.Deadline, s.clock.Now())
		if err != nil {
			return err
		}

		renamed, bids = "", 0
		if number != current.PlateNumber {
			if bids, err = tx.Bids().CountByPlate(ctx, id); err != nil {
				return err
			}
			renamed = current.PlateNumber
		}

		current.PlateNumber = number
		current.Description = input.Description
		current.Deadline = deadline
		if input.IsActive != nil {
			current.IsActive = *input.IsActive
		}
		if err := tx.Plates().Update(ctx, current); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return domain.ErrPlateNumberTaken
			}
			return err
		}
		plate = current
		return nil
	})
	if err != nil {
		return nil, logOutcome(s.logger, fields, "update plate", err)
	}

	if renamed != "" && bids > 0 {
		s.logger.WithFields(fields).WithFields(logrus.Fields{
			"from": renamed,
			"to":   plate.PlateNumber,
			"bids": bids,
		}).Warn("plate with bids renamed")
	}
	s.logger.WithFields(fields).WithFields(logrus.Fields{
		"deadline":  plate.Deadline,
		"is_active": plate.IsActive,
	}).Info("plate updated")
	return plate, nil
}

func (s *plateService) Delete(ctx context.Context, actor *domain.User, id int64) error {
	fields := actorFields(actor)
	fields["plate_id"] = id
	if err := requireStaff(actor); err != nil {
		return logOutcome(s.logger, fields, "delete plate", err)
	}

	err := s.store.InTx(ctx, func(tx repository.Repositories) error {
		if _, err := tx.Plates().GetForUpdate(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrPlateNotFound
			}
			return err
		}
		count, err := tx.Bids().CountByPlate(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrPlateHasBids
		}
		return tx.Plates().Delete(ctx, id)
	})
	if err != nil {
		return logOutcome(s.logger, fields, "delete plate", err)
	}

	s.logger.WithFields(fields).Info("plate deleted")
	return nil
}

// checkNumberFree fails when number belongs to a plate other than selfID.
func checkNumberFree(ctx context.Context, tx repository.Repositories, number string, selfID int64) error {
	existing, err := tx.Plates().GetByNumber(ctx, number)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return domain.ErrPlateNumberTaken
	default:
		return nil
	}
}

func parseFutureDeadline(raw string, now time.Time) (time.Time, error) {
	deadline, err := domain.ParseDeadline(raw)
	if err != nil {
		return time.Time{}, err
	}
	if !deadline.After(now) {
		return time.Time{}, domain.ErrDeadlineNotFuture
	}
	return deadline, nil
}

func actorFields(actor *domain.User) logrus.Fields {
	if actor == nil {
		return logrus.Fields{}
	}
	return logrus.Fields{"user_id": actor.ID}
}
