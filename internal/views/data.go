package views

import (
	"time"

	"github.com/BradenHooton/formgate/internal/models"
)

type LoginData struct {
	UserID string
}

type MenuData struct {
	Menus []models.Menu
}

// ScreenData backs the single-parameter business screens.
type ScreenData struct {
	Action    string
	Parameter string
}

type ErrorData struct {
	Code       string
	IncidentID string
	Path       string
	At         time.Time
}

type DriverScreen struct {
	ID   string
	Name string
}

type DriverData struct {
	Screens []DriverScreen
}

type Entry struct {
	Key   string
	Value string
}

// Section is a titled list of key/value rows on the debug page.
type Section struct {
	Title   string
	Entries []Entry
}

type DebugData struct {
	Method            string
	URI               string
	Query             string
	SessionID         string
	SessionAttributes Section
	Params            Section
	Headers           Section
	Flash             Section
}
