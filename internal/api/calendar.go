package api

import (
	"context"
	"net/http"

	"agromitra/internal/models"
)

// CalendarService covers crop calendars and their activities.
type CalendarService service

// Create starts a calendar for a crop planted on a date (YYYY-MM-DD).
func (s *CalendarService) Create(ctx context.Context, req models.CreateCalendarRequest) (*models.Calendar, error) {
	var out models.CalendarResponse
	if err := s.client.do(ctx, "calendar", http.MethodPost, "/calendar", nil, req, &out); err != nil {
		return nil, err
	}
	return &out.Calendar, nil
}

// List returns the farmer's calendars.
func (s *CalendarService) List(ctx context.Context) ([]models.Calendar, error) {
	var out models.CalendarListResponse
	if err := s.client.do(ctx, "calendar", http.MethodGet, "/calendar", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Calendars, nil
}

// Upcoming returns pending activities due in the next days, across calendars.
func (s *CalendarService) Upcoming(ctx context.Context, days int, language string) ([]models.UpcomingActivity, error) {
	query := params{}.num("days", days).str("language", language).values()

	var out models.UpcomingResponse
	if err := s.client.do(ctx, "calendar", http.MethodGet, "/calendar/upcoming/activities", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Activities, nil
}

// Delete removes a calendar and its activities.
func (s *CalendarService) Delete(ctx context.Context, id string) error {
	return s.client.do(ctx, "calendar", http.MethodDelete, "/calendar/"+escape(id), nil, nil, nil)
}

// AddActivity schedules a new activity on a calendar.
func (s *CalendarService) AddActivity(ctx context.Context, calendarID string, req models.ActivityRequest) error {
	path := "/calendar/" + escape(calendarID) + "/activities"
	return s.client.do(ctx, "calendar", http.MethodPost, path, nil, req, nil)
}

// UpdateActivity requests a status transition for an activity.
func (s *CalendarService) UpdateActivity(ctx context.Context, calendarID, activityID string, req models.ActivityUpdate) error {
	path := "/calendar/" + escape(calendarID) + "/activities/" + escape(activityID)
	return s.client.do(ctx, "calendar", http.MethodPut, path, nil, req, nil)
}

// DeleteActivity removes an activity from a calendar.
func (s *CalendarService) DeleteActivity(ctx context.Context, calendarID, activityID string) error {
	path := "/calendar/" + escape(calendarID) + "/activities/" + escape(activityID)
	return s.client.do(ctx, "calendar", http.MethodDelete, path, nil, nil, nil)
}
