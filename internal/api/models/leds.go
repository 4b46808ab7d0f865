package models

// LEDRequest sets an LED directly.
type LEDRequest struct {
	Body struct {
		Type    string  `json:"type" example:"user" doc:"LED type (board-specific: user, system, blue, green, etc.)"`
		Enabled bool    `json:"enabled" example:"true" doc:"Whether the LED should be on or off"`
		Pattern *string `json:"pattern,omitempty" example:"solid" doc:"Optional LED pattern (solid, blink, heartbeat)"`
	}
}

// LEDCapabilitiesData lists what the board supports.
type LEDCapabilitiesData struct {
	AvailableTypes    []string `json:"available_types" doc:"List of available LED types on this board"`
	AvailablePatterns []string `json:"available_patterns" doc:"List of available LED patterns on this board"`
	Tally             string   `json:"tally,omitempty" example:"live" doc:"Current on-air light state"`
}

type LEDCapabilitiesResponse struct {
	Body LEDCapabilitiesData
}
