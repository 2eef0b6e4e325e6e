package models

// Menu is one navigation entry on the menu screen.
type Menu struct {
	ID           int64  `json:"id"`
	ScreenID     string `json:"screen_id"`
	ScreenName   string `json:"screen_name"`
	ButtonName   string `json:"button_name"`
	Path         string `json:"path"`
	DisplayOrder int    `json:"display_order"`
}
