package models

// LEDData describes one LED and its playback state.
type LEDData struct {
	Name        string `json:"name" example:"status" doc:"LED name"`
	Pin         string `json:"pin" example:"ACT" doc:"Backend pin identifier"`
	Polarity    string `json:"polarity" enum:"active_high,active_low" example:"active_high" doc:"Electrical polarity"`
	Initialized bool   `json:"initialized" example:"true" doc:"Whether the driver is initialized"`
	State       string `json:"state" enum:"on,off" example:"on" doc:"Logical LED state"`
	Pattern     string `json:"pattern,omitempty" example:"HEARTBEAT" doc:"Active pattern, empty when under manual control"`
	Index       int    `json:"index" example:"1" doc:"Next interval to be armed"`
}

type LEDResponse struct {
	Body LEDData
}

type LEDListData struct {
	LEDs  []LEDData `json:"leds" doc:"All registered LEDs"`
	Count int       `json:"count" example:"2" doc:"Number of LEDs"`
}

type LEDListResponse struct {
	Body LEDListData
}

// LEDPathInput addresses one LED.
type LEDPathInput struct {
	Name string `path:"name" minLength:"1" maxLength:"64" example:"status" doc:"LED name"`
}

// SetPatternRequest starts or stops pattern playback.
type SetPatternRequest struct {
	Name string `path:"name" minLength:"1" maxLength:"64" example:"status" doc:"LED name"`
	Body struct {
		Pattern *string `json:"pattern,omitempty" nullable:"true" example:"SOS" doc:"Pattern name; null or empty stops playback and turns the LED off"`
	}
}

// PatternData describes one catalog entry.
type PatternData struct {
	Name      string   `json:"name" example:"DOUBLE_BLINK" doc:"Pattern name"`
	Durations []uint16 `json:"durations" doc:"Interval durations in milliseconds, alternating on and off"`
	PeriodMs  int64    `json:"period_ms" example:"1750" doc:"Length of one cycle in milliseconds"`
}

type PatternListData struct {
	Patterns []PatternData `json:"patterns" doc:"Available patterns sorted by name"`
	Count    int           `json:"count" example:"9" doc:"Number of patterns"`
}

type PatternListResponse struct {
	Body PatternListData
}

// StatusRequest reports a status for the indicator LED.
type StatusRequest struct {
	Body struct {
		Source string `json:"source" minLength:"1" example:"network" doc:"Component reporting the status"`
		Status string `json:"status" minLength:"1" example:"connecting" doc:"Reported status"`
	}
}

type StatusData struct {
	Source string `json:"source" example:"network" doc:"Component reporting the status"`
	Status string `json:"status" example:"connecting" doc:"Reported status"`
	Mapped bool   `json:"mapped" example:"true" doc:"Whether the status maps to an LED action"`
	LED    string `json:"led,omitempty" example:"status" doc:"Indicator LED"`
	Action string `json:"action,omitempty" example:"CONNECTING" doc:"Action that will be applied"`
}

type StatusResponse struct {
	Body StatusData
}
