package weather

import "strings"

// Condition is the coarse sky state reported by the weather endpoint.
type Condition string

const (
	Sunny  Condition = "Sunny"
	Cloudy Condition = "Cloudy"
	Rainy  Condition = "Rainy"
	Snowy  Condition = "Snowy"
	Chilly Condition = "Chilly"
)

// ParseCondition matches raw case-insensitively against the known conditions.
func ParseCondition(raw string) (Condition, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sunny":
		return Sunny, true
	case "cloudy":
		return Cloudy, true
	case "rainy":
		return Rainy, true
	case "snowy":
		return Snowy, true
	case "chilly":
		return Chilly, true
	default:
		return Condition(raw), false
	}
}

// Icon returns the emoji shown next to the condition label.
func (c Condition) Icon() string {
	switch c {
	case Sunny:
		return "☀️"
	case Cloudy:
		return "☁️"
	case Rainy:
		return "🌧️"
	case Snowy:
		return "❄️"
	case Chilly:
		return "🌬️"
	default:
		return "🌡️"
	}
}

// Result is the last known weather for a city.
type Result struct {
	City        string    `json:"city"`
	Temp        float64   `json:"temp"`
	Condition   Condition `json:"condition"`
	Humidity    float64   `json:"humidity"`
	WindSpeed   float64   `json:"windSpeed"`
	Description string    `json:"description"`
}

// Song is a single music recommendation. Slice order is relevance order.
type Song struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
	Mood   string `json:"mood,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Note prefers the reason over the mood.
func (s Song) Note() string {
	if s.Reason != "" {
		return s.Reason
	}
	return s.Mood
}

// MusicRequest is the body sent to the music endpoint.
type MusicRequest struct {
	Condition   Condition `json:"condition"`
	City        string    `json:"city"`
	Temp        float64   `json:"temp"`
	Description string    `json:"description"`
}

// Clothing is a temperature bucket used for outfit advice.
type Clothing int

const (
	Cold Clothing = iota
	Cool
	Mild
	Warm
)

// ClothingFor buckets a Celsius temperature: <10 cold, <20 cool, <25 mild, else warm.
func ClothingFor(temp float64) Clothing {
	switch {
	case temp < 10:
		return Cold
	case temp < 20:
		return Cool
	case temp < 25:
		return Mild
	default:
		return Warm
	}
}
