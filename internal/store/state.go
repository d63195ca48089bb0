package store

import (
	"agromitra/internal/i18n"
	"agromitra/internal/models"
)

// State is the application-wide state shared by every screen.
type State struct {
	User             *models.User
	IsAuthenticated  bool
	AuthChecked      bool
	SelectedLanguage string
	Crops            []models.Crop
	ChatMessages     []models.ChatMessage
	CalendarEvents   []models.Calendar
	IsLoading        bool
	Error            string
}

// InitialState is the state before Init runs.
func InitialState() State {
	return State{SelectedLanguage: i18n.DefaultLanguage}
}

// clone copies the slices and the user so a snapshot cannot alias the store.
func (s State) clone() State {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	s.Crops = append([]models.Crop(nil), s.Crops...)
	s.ChatMessages = append([]models.ChatMessage(nil), s.ChatMessages...)
	s.CalendarEvents = append([]models.Calendar(nil), s.CalendarEvents...)
	return s
}

// Action is a typed state transition applied by Reduce.
type Action interface {
	action()
}

type (
	SetUser           struct{ User *models.User }
	SetAuthenticated  struct{ Authenticated bool }
	SetAuthChecked    struct{ Checked bool }
	SetLanguage       struct{ Language string }
	SetCrops          struct{ Crops []models.Crop }
	AddChatMessage    struct{ Message models.ChatMessage }
	SetChatMessages   struct{ Messages []models.ChatMessage }
	SetCalendarEvents struct{ Calendars []models.Calendar }
	SetLoading        struct{ Loading bool }
	SetError          struct{ Message string }
	ClearError        struct{}
)

func (SetUser) action()           {}
func (SetAuthenticated) action()  {}
func (SetAuthChecked) action()    {}
func (SetLanguage) action()       {}
func (SetCrops) action()          {}
func (AddChatMessage) action()    {}
func (SetChatMessages) action()   {}
func (SetCalendarEvents) action() {}
func (SetLoading) action()        {}
func (SetError) action()          {}
func (ClearError) action()        {}

// Reduce returns the state that results from applying a to s. It is pure:
// s is never modified in place.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case SetUser:
		s.User = a.User
	case SetAuthenticated:
		s.IsAuthenticated = a.Authenticated
	case SetAuthChecked:
		s.AuthChecked = a.Checked
	case SetLanguage:
		s.SelectedLanguage = a.Language
	case SetCrops:
		s.Crops = a.Crops
	case AddChatMessage:
		msgs := make([]models.ChatMessage, len(s.ChatMessages), len(s.ChatMessages)+1)
		copy(msgs, s.ChatMessages)
		s.ChatMessages = append(msgs, a.Message)
	case SetChatMessages:
		s.ChatMessages = a.Messages
	case SetCalendarEvents:
		s.CalendarEvents = a.Calendars
	case SetLoading:
		s.IsLoading = a.Loading
	case SetError:
		s.Error = a.Message
	case ClearError:
		s.Error = ""
	}
	return s
}
