package apitest

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"agromitra/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const defaultMaturityDays = 120

func (s *Server) createCalendarHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCalendarRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	planted, err := time.Parse("2006-01-02", req.PlantingDate)
	if err != nil {
		writeValidation(w, []models.FieldError{{Msg: "Valid planting date is required", Param: "plantingDate"}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found")
		return
	}
	crop, ok := s.findCrop(req.CropID)
	if !ok {
		writeError(w, http.StatusNotFound, "Crop not found")
		return
	}

	maturity := crop.Harvesting.MaturityPeriod
	if maturity <= 0 {
		maturity = defaultMaturityDays
	}
	day := func(n int) time.Time { return planted.AddDate(0, 0, n) }
	activity := func(kind, name string, at time.Time, priority string) models.Activity {
		return models.Activity{
			Ref:           models.Ref{OID: uuid.NewString()},
			Type:          kind,
			Name:          name,
			ScheduledDate: at,
			Status:        models.ActivityPending,
			Priority:      priority,
		}
	}

	cal := models.Calendar{
		Ref:                models.Ref{OID: uuid.NewString()},
		CropID:             crop.Key(),
		Crop:               crop.Name,
		PlantingDate:       planted,
		MaturityPeriodDays: &maturity,
		Activities: []models.Activity{
			activity("planting", "Sow "+crop.Name, day(0), "high"),
			activity("irrigation", "First irrigation", day(7), "medium"),
			activity("fertilization", "Apply basal fertilizer", day(21), "medium"),
			activity("harvesting", "Harvest "+crop.Name, day(maturity), "high"),
		},
	}
	s.calendars[cal.Key()] = &calendarRecord{owner: acc.user.ID, calendar: cal}
	writeJSON(w, http.StatusCreated, models.CalendarResponse{Message: "Calendar created successfully", Calendar: cal})
}

func (s *Server) listCalendarsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner := s.ownerID(r)
	out := []models.Calendar{}
	for _, rec := range s.calendars {
		if rec.owner == owner {
			out = append(out, rec.calendar)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlantingDate.Before(out[j].PlantingDate) })
	writeJSON(w, http.StatusOK, models.CalendarListResponse{Calendars: out})
}

func (s *Server) upcomingHandler(w http.ResponseWriter, r *http.Request) {
	days := intParam(r, "days", 7)
	now := s.now()
	until := now.AddDate(0, 0, days)

	s.mu.Lock()
	defer s.mu.Unlock()
	owner := s.ownerID(r)
	out := []models.UpcomingActivity{}
	for id, rec := range s.calendars {
		if rec.owner != owner {
			continue
		}
		for _, a := range rec.calendar.Activities {
			if a.Status != models.ActivityPending || a.ScheduledDate.Before(now) || a.ScheduledDate.After(until) {
				continue
			}
			out = append(out, models.UpcomingActivity{Activity: a, CalendarID: id, Crop: rec.calendar.Crop})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledDate.Before(out[j].ScheduledDate) })
	writeJSON(w, http.StatusOK, models.UpcomingResponse{Activities: out})
}

func (s *Server) deleteCalendarHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.ownedCalendar(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Calendar not found")
		return
	}
	delete(s.calendars, rec.calendar.Key())
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Calendar deleted successfully"})
}

func (s *Server) addActivityHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ActivityRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var errs []models.FieldError
	if !contains(models.ActivityTypes, req.Type) {
		errs = append(errs, models.FieldError{Msg: "Invalid activity type", Param: "type"})
	}
	if strings.TrimSpace(req.Name) == "" {
		errs = append(errs, models.FieldError{Msg: "Activity name is required", Param: "name"})
	}
	if req.ScheduledDate.IsZero() {
		errs = append(errs, models.FieldError{Msg: "Valid scheduled date is required", Param: "scheduledDate"})
	}
	if len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.ownedCalendar(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Calendar not found")
		return
	}
	priority := req.Priority
	if priority == "" {
		priority = "medium"
	}
	rec.calendar.Activities = append(rec.calendar.Activities, models.Activity{
		Ref:           models.Ref{OID: uuid.NewString()},
		Type:          req.Type,
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		ScheduledDate: req.ScheduledDate,
		Status:        models.ActivityPending,
		Priority:      priority,
	})
	writeJSON(w, http.StatusCreated, models.CalendarResponse{Message: "Activity added successfully", Calendar: rec.calendar})
}

func (s *Server) updateActivityHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ActivityUpdate
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch req.Status {
	case models.ActivityPending, models.ActivityCompleted, models.ActivityOverdue, models.ActivityCancelled:
	default:
		writeValidation(w, []models.FieldError{{Msg: "Invalid status", Param: "status"}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.ownedCalendar(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Calendar not found")
		return
	}
	a := findActivity(rec, chi.URLParam(r, "activityId"))
	if a == nil {
		writeError(w, http.StatusNotFound, "Activity not found")
		return
	}
	a.Status = req.Status
	a.CompletedDate = nil
	if req.Status == models.ActivityCompleted {
		done := s.now()
		if req.CompletedDate != nil {
			done = *req.CompletedDate
		}
		a.CompletedDate = &done
	}
	writeJSON(w, http.StatusOK, models.CalendarResponse{Message: "Activity updated successfully", Calendar: rec.calendar})
}

func (s *Server) deleteActivityHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.ownedCalendar(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Calendar not found")
		return
	}
	id := chi.URLParam(r, "activityId")
	kept := rec.calendar.Activities[:0]
	found := false
	for _, a := range rec.calendar.Activities {
		if a.Key() == id {
			found = true
			continue
		}
		kept = append(kept, a)
	}
	if !found {
		writeError(w, http.StatusNotFound, "Activity not found")
		return
	}
	rec.calendar.Activities = kept
	writeJSON(w, http.StatusOK, models.CalendarResponse{Message: "Activity deleted successfully", Calendar: rec.calendar})
}

func (s *Server) ownerID(r *http.Request) string {
	if acc, ok := s.currentUser(r); ok {
		return acc.user.ID
	}
	return ""
}

func (s *Server) ownedCalendar(r *http.Request) (*calendarRecord, bool) {
	rec, ok := s.calendars[chi.URLParam(r, "id")]
	if !ok || rec.owner != s.ownerID(r) {
		return nil, false
	}
	return rec, true
}

func findActivity(rec *calendarRecord, id string) *models.Activity {
	for i := range rec.calendar.Activities {
		if rec.calendar.Activities[i].Key() == id {
			return &rec.calendar.Activities[i]
		}
	}
	return nil
}
