package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParsePlateOrdering(t *testing.T) {
	tests := []struct {
		raw     string
		want    PlateOrdering
		wantErr bool
	}{
		{raw: "", want: OrderByDeadline},
		{raw: "deadline", want: OrderByDeadline},
		{raw: "-deadline", want: OrderByDeadlineDesc},
		{raw: "plate_number", want: OrderByPlateNumber},
		{raw: "-plate_number", want: OrderByPlateNumberDesc},
		{raw: "id", wantErr: true},
		{raw: "deadline; DROP TABLE plates", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := ParsePlateOrdering(tc.raw)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}

	require.Equal(t, "plate_number", OrderByPlateNumberDesc.Column())
	require.True(t, OrderByPlateNumberDesc.Descending())
	require.False(t, OrderByDeadline.Descending())
}

func TestParseDeadline(t *testing.T) {
	want := time.Date(2030, time.May, 1, 12, 30, 0, 0, time.UTC)

	for _, raw := range []string{
		"2030-05-01T12:30:00Z",
		"2030-05-01T17:30:00+05:00",
		"2030-05-01T12:30:00",
		"2030-05-01 12:30:00",
	} {
		got, err := ParseDeadline(raw)
		require.NoError(t, err, raw)
		require.True(t, want.Equal(got), "%s parsed as %s", raw, got)
	}

	_, err := ParseDeadline("tomorrow")
	require.ErrorIs(t, err, ErrInvalidDeadline)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPlateIsOpen(t *testing.T) {
	now := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)
	plate := &Plate{IsActive: true, Deadline: now.Add(time.Hour)}

	require.True(t, plate.IsOpen(now))
	require.False(t, plate.IsOpen(now.Add(time.Hour)), "deadline itself is closed")
	require.False(t, plate.IsOpen(now.Add(2*time.Hour)))

	plate.IsActive = false
	require.False(t, plate.IsOpen(now))

	var missing *Plate
	require.False(t, missing.IsOpen(now))
}

func TestNormalizePlateNumber(t *testing.T) {
	got, err := NormalizePlateNumber("  01A777AA ")
	require.NoError(t, err)
	require.Equal(t, "01A777AA", got)

	_, err = NormalizePlateNumber("   ")
	require.ErrorIs(t, err, ErrPlateNumberRequired)

	_, err = NormalizePlateNumber("01A777AA999")
	require.ErrorIs(t, err, ErrPlateNumberTooLong)
}

func TestErrorKindsAndMessages(t *testing.T) {
	require.True(t, errors.Is(ErrBiddingClosed, ErrConflict))
	require.True(t, errors.Is(ErrBiddingEnded, ErrPermissionDenied))
	require.False(t, errors.Is(ErrBiddingEnded, ErrConflict))

	require.Equal(t, "bidding is closed", Message(ErrBiddingClosed))
	require.Equal(t, "", Message(errors.New("disk full")))
}
