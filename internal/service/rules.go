package service

import (
	"errors"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"plate-auction/internal/domain"
)

// Clock returns the current time. A nil Clock reads the wall clock.
type Clock func() time.Time

func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

func requireStaff(actor *domain.User) error {
	if !actor.IsStaff() {
		return domain.ErrStaffOnly
	}
	return nil
}

// checkPlateOpen returns closed unless the plate accepts bids at now.
func checkPlateOpen(plate *domain.Plate, now time.Time, closed error) error {
	if !plate.IsOpen(now) {
		return closed
	}
	return nil
}

func checkAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return domain.ErrNonPositiveAmount
	}
	return nil
}

// checkExceedsOthers requires amount to be strictly above highest, the largest
// of the other bids on the plate. hasOthers is false when there are none.
func checkExceedsOthers(amount, highest float64, hasOthers bool) error {
	if hasOthers && amount <= highest {
		return domain.ErrBidTooLow
	}
	return nil
}

func loggerOrDefault(logger logrus.FieldLogger) logrus.FieldLogger {
	if logger == nil {
		return logrus.StandardLogger()
	}
	return logger
}

// logOutcome logs a failed operation and hands err back. Business rule
// rejections are warnings; anything else is an error.
func logOutcome(logger logrus.FieldLogger, fields logrus.Fields, op string, err error) error {
	if err == nil {
		return nil
	}
	entry := logger.WithFields(fields).WithField("op", op)
	var rule *domain.Error
	if errors.As(err, &rule) {
		entry.WithField("reason", rule.Message).Warn("request rejected")
		return err
	}
	entry.WithError(err).Error("operation failed")
	return err
}
