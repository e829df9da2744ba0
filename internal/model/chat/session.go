package chat

import "time"

// Theme selects the cosmetic palette of a client.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Toggle flips between the dark and light palettes.
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

// Session captures a transient anonymous conversation.
type Session struct {
	ID        string    `json:"id"`
	Locale    string    `json:"locale"`
	Theme     Theme     `json:"theme"`
	CreatedAt time.Time `json:"createdAt"`
}
