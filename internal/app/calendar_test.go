package app

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agromitra/internal/models"
)

func TestClassify(t *testing.T) {
	ist := time.FixedZone("IST", 5*60*60+30*60)
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, ist)

	testCases := []struct {
		name      string
		status    models.ActivityStatus
		scheduled time.Time
		expected  Timing
	}{
		{name: "Completed in the past", status: models.ActivityCompleted, scheduled: now.AddDate(0, 0, -5), expected: TimingCompleted},
		{name: "Completed in the future", status: models.ActivityCompleted, scheduled: now.AddDate(0, 0, 20), expected: TimingCompleted},
		{name: "Pending last month", status: models.ActivityPending, scheduled: now.AddDate(0, -1, 0), expected: TimingOverdue},
		{name: "Pending late yesterday", status: models.ActivityPending, scheduled: time.Date(2026, 3, 9, 23, 59, 0, 0, ist), expected: TimingOverdue},
		{name: "Overdue status with a date ahead", status: models.ActivityOverdue, scheduled: now.AddDate(0, 0, 3), expected: TimingUpcoming},
		{name: "Early today", status: models.ActivityPending, scheduled: time.Date(2026, 3, 10, 0, 1, 0, 0, ist), expected: TimingToday},
		{name: "Later today", status: models.ActivityPending, scheduled: time.Date(2026, 3, 10, 23, 0, 0, 0, ist), expected: TimingToday},
		{name: "Tomorrow by local date", status: models.ActivityPending, scheduled: time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC), expected: TimingUpcoming},
		{name: "Seven days ahead", status: models.ActivityPending, scheduled: now.AddDate(0, 0, 7), expected: TimingUpcoming},
		{name: "Eight days ahead", status: models.ActivityPending, scheduled: now.AddDate(0, 0, 8), expected: TimingFuture},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Classify(tc.status, tc.scheduled, now))
		})
	}
}

func TestFlow(t *testing.T) {
	planted := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	t.Run("Sorted activities", func(t *testing.T) {
		cal := models.Calendar{
			PlantingDate: planted,
			Activities: []models.Activity{
				{Name: "Harvest", ScheduledDate: planted.AddDate(0, 0, 120)},
				{Name: "Sow", ScheduledDate: planted},
				{Name: "Irrigate", ScheduledDate: planted.AddDate(0, 0, 7)},
			},
		}
		flow := Flow(cal)
		require.Len(t, flow, 3)
		assert.Equal(t, []string{"Sow", "Irrigate", "Harvest"}, []string{flow[0].Name, flow[1].Name, flow[2].Name})
		assert.Equal(t, "Harvest", cal.Activities[0].Name)
	})

	testCases := []struct {
		name     string
		maturity *int
		expected time.Time
	}{
		{name: "Default maturity", maturity: nil, expected: planted.AddDate(0, 0, DefaultMaturityDays)},
		{name: "Zero maturity", maturity: intPtr(0), expected: planted.AddDate(0, 0, DefaultMaturityDays)},
		{name: "Calendar maturity", maturity: intPtr(90), expected: planted.AddDate(0, 0, 90)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			flow := Flow(models.Calendar{PlantingDate: planted, MaturityPeriodDays: tc.maturity})
			require.Len(t, flow, 2)
			assert.Equal(t, "planting", flow[0].Type)
			assert.Equal(t, planted, flow[0].ScheduledDate)
			assert.Equal(t, "harvesting", flow[1].Type)
			assert.Equal(t, tc.expected, flow[1].ScheduledDate)
		})
	}
}

func TestCount(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	cal := models.Calendar{Activities: []models.Activity{
		{Status: models.ActivityCompleted, ScheduledDate: now.AddDate(0, 0, -3)},
		{Status: models.ActivityPending, ScheduledDate: now.AddDate(0, 0, -1)},
		{Status: models.ActivityPending, ScheduledDate: now},
		{Status: models.ActivityPending, ScheduledDate: now.AddDate(0, 0, 4)},
		{Status: models.ActivityPending, ScheduledDate: now.AddDate(0, 0, 40)},
	}}
	assert.Equal(t, Counts{Completed: 1, Upcoming: 2, Overdue: 1}, Count(cal, now))
}

func TestCalendarView_RequiresLogin(t *testing.T) {
	e := newEnv(t)
	err := e.app.NewCalendar(AlwaysConfirm).Load(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Empty(t, e.srv.Requests())
}

func TestCalendarView_Lifecycle(t *testing.T) {
	e := newEnv(t)
	e.login(t)
	ctx := context.Background()

	declined := 0
	answer := true
	view := e.app.NewCalendar(ConfirmFunc(func(prompt string) bool {
		if !answer {
			declined++
		}
		return answer
	}))

	require.NoError(t, view.Load(ctx))
	assert.Empty(t, view.Calendars())
	assert.Len(t, e.store.State().Crops, 4)

	require.NoError(t, view.Create(ctx, "crop-rice", time.Now().AddDate(0, 0, 2)))
	cals := view.Calendars()
	require.Len(t, cals, 1)
	assert.Equal(t, "Rice", cals[0].Crop)
	require.Len(t, cals[0].Activities, 4)
	assert.Len(t, e.store.State().CalendarEvents, 1)
	assert.NotEmpty(t, view.Upcoming())

	calID := cals[0].Key()
	first := Flow(cals[0])[0]
	require.NoError(t, view.Complete(ctx, calID, first.Key()))
	done := Flow(view.Calendars()[0])[0]
	assert.Equal(t, models.ActivityCompleted, done.Status)
	assert.NotNil(t, done.CompletedDate)
	assert.Equal(t, TimingCompleted, Classify(done.Status, done.ScheduledDate, time.Now()))

	answer = false
	err := view.DeleteActivity(ctx, calID, first.Key())
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 1, declined)
	assert.Equal(t, 0, e.srv.Hits(http.MethodDelete, "/calendar/"+calID+"/activities/"+first.Key()))

	answer = true
	require.NoError(t, view.DeleteActivity(ctx, calID, first.Key()))
	assert.Len(t, view.Calendars()[0].Activities, 3)

	require.NoError(t, view.AddActivity(ctx, calID, models.ActivityRequest{
		Type:          "weeding",
		Name:          "Weed the nursery",
		ScheduledDate: time.Now().AddDate(0, 0, 5),
	}))
	assert.Len(t, view.Calendars()[0].Activities, 4)

	require.NoError(t, view.DeleteCalendar(ctx, calID))
	assert.Empty(t, view.Calendars())
	assert.Empty(t, e.store.State().CalendarEvents)
}

func TestCalendarView_LoadFailsOnCalendarsOrUpcoming(t *testing.T) {
	testCases := []struct {
		name string
		path string
	}{
		{name: "Calendars", path: "/calendar"},
		{name: "Upcoming", path: "/calendar/upcoming/activities"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t)
			e.login(t)
			e.srv.Fail(http.MethodGet, tc.path, http.StatusInternalServerError, models.ErrorResponse{Message: "Server error"})

			view := e.app.NewCalendar(AlwaysConfirm)
			err := view.Load(context.Background())
			require.Error(t, err)
			assert.Equal(t, "Server error", Message(err, ""))
			assert.Empty(t, view.Calendars())
			assert.NotEmpty(t, e.store.State().Crops)
		})
	}
}

func TestCalendarView_LoadKeepsCalendarsWhenCropsFail(t *testing.T) {
	e := newEnv(t)
	e.login(t)
	ctx := context.Background()

	view := e.app.NewCalendar(AlwaysConfirm)
	require.NoError(t, view.Create(ctx, "crop-rice", time.Now()))
	crops := e.store.State().Crops
	require.NotEmpty(t, crops)

	e.srv.Fail(http.MethodGet, "/crops", http.StatusInternalServerError, models.ErrorResponse{Message: "boom"})
	reloaded := e.app.NewCalendar(AlwaysConfirm)
	require.NoError(t, reloaded.Load(ctx))
	assert.Len(t, reloaded.Calendars(), 1)
	assert.NotEmpty(t, reloaded.Upcoming())
	assert.Equal(t, crops, e.store.State().Crops)
}

func intPtr(n int) *int { return &n }
