package models

import (
	"time"
)

// ActivityStatus is the server-authoritative state of a calendar activity.
type ActivityStatus string

const (
	ActivityPending   ActivityStatus = "pending"
	ActivityCompleted ActivityStatus = "completed"
	ActivityOverdue   ActivityStatus = "overdue"
	ActivityCancelled ActivityStatus = "cancelled"
)

// ActivityTypes are the kinds of farming activity the backend accepts.
var ActivityTypes = []string{"planting", "irrigation", "fertilization", "pest_control", "harvesting", "pruning", "weeding"}

// Priorities are the accepted activity priorities.
var Priorities = []string{"low", "medium", "high", "critical"}

// Activity is one scheduled step of a crop calendar.
type Activity struct {
	Ref
	Type          string         `json:"type"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	ScheduledDate time.Time      `json:"scheduledDate"`
	Status        ActivityStatus `json:"status"`
	Priority      string         `json:"priority,omitempty"`
	CompletedDate *time.Time     `json:"completedDate,omitempty"`
}

// Calendar is a farmer's planting record for one crop.
type Calendar struct {
	Ref
	CropID             string     `json:"cropId"`
	Crop               string     `json:"crop"`
	PlantingDate       time.Time  `json:"plantingDate"`
	MaturityPeriodDays *int       `json:"maturityPeriodDays,omitempty"`
	Activities         []Activity `json:"activities"`
}

// UpcomingActivity is an entry of the cross-calendar upcoming feed.
type UpcomingActivity struct {
	Activity
	CalendarID string `json:"calendarId,omitempty"`
	Crop       string `json:"crop,omitempty"`
}

// CreateCalendarRequest starts a new crop calendar.
type CreateCalendarRequest struct {
	CropID       string `json:"cropId"`
	PlantingDate string `json:"plantingDate"`
	Language     string `json:"language,omitempty"`
}

// ActivityRequest adds an activity to a calendar.
type ActivityRequest struct {
	Type          string    `json:"type"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	ScheduledDate time.Time `json:"scheduledDate"`
	Priority      string    `json:"priority,omitempty"`
}

// ActivityUpdate requests a status transition.
type ActivityUpdate struct {
	Status        ActivityStatus `json:"status"`
	CompletedDate *time.Time     `json:"completedDate,omitempty"`
}

// CalendarListResponse wraps GET /calendar.
type CalendarListResponse struct {
	Calendars []Calendar `json:"calendars"`
}

// CalendarResponse wraps single-calendar routes.
type CalendarResponse struct {
	Message  string   `json:"message,omitempty"`
	Calendar Calendar `json:"calendar"`
}

// UpcomingResponse wraps GET /calendar/upcoming/activities.
type UpcomingResponse struct {
	Activities []UpcomingActivity `json:"activities"`
}
