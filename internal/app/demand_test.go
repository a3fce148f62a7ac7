package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelterline/internal/app"
	"shelterline/internal/domain"
)

const lookahead = 7 * 24 * time.Hour

func guest(id int64, checkInDays, checkOutDays int, couple bool, assigned bool, now time.Time) domain.Guest {
	g := domain.Guest{
		ID:       id,
		Name:     "guest",
		CheckIn:  now.AddDate(0, 0, checkInDays),
		CheckOut: now.AddDate(0, 0, checkOutDays),
		IsCouple: couple,
	}
	if assigned {
		a := id * 100
		g.AssignmentID = &a
	}
	return g
}

func TestPendingCounts_Partition(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	guests := &fakeGuests{guests: []domain.Guest{
		guest(1, -1, 3, true, false, now),   // couple, staying now
		guest(2, 2, 9, false, false, now),   // individual, arrives inside lookahead
		guest(3, 10, 14, false, false, now), // arrives beyond lookahead: not pending
		guest(4, -5, -1, false, false, now), // already checked out: not pending
		guest(5, 0, 4, true, true, now),     // assigned: not pending
	}}
	e := app.NewEstimator(guests, &fakeCache{}, lookahead, 30*time.Second)

	counts, err := e.PendingCounts(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, domain.PendingCounts{Couples: 1, Individuals: 1}, counts)
}

func TestPendingCounts_CacheHit(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	guests := &fakeGuests{guests: []domain.Guest{guest(1, 0, 3, false, false, now)}}
	cache := &fakeCache{}
	e := app.NewEstimator(guests, cache, lookahead, 30*time.Second)

	first, err := e.PendingCounts(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, 1, first.Individuals)

	// mutate the directory; second read must come from cache
	guests.guests = nil
	second, err := e.PendingCounts(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.sets)
}

func TestPendingCounts_ReadFailureIsFatal(t *testing.T) {
	boom := errors.New("directory down")
	e := app.NewEstimator(&fakeGuests{listErr: boom}, &fakeCache{}, lookahead, 30*time.Second)

	_, err := e.PendingCounts(context.Background(), time.Now())
	assert.ErrorIs(t, err, boom)
}
