package models

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
	LEDs    int    `json:"leds" example:"2" doc:"Number of registered LEDs"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit SHA"`
	BuildDate string `json:"build_date" example:"2025-01-27T10:30:00Z" doc:"Build timestamp"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go compiler version"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"Platform"`
}

type VersionResponse struct {
	Body VersionData
}

// LoggingLevelRequest changes a module's log level at runtime.
type LoggingLevelRequest struct {
	Module string `path:"module" example:"led" doc:"Logger module name"`
	Body   struct {
		Level string `json:"level" enum:"debug,info,warn,error" example:"debug" doc:"New log level"`
	}
}

type LoggingLevelData struct {
	Module string `json:"module" example:"led" doc:"Logger module name"`
	Level  string `json:"level" example:"debug" doc:"Active log level"`
}

type LoggingLevelResponse struct {
	Body LoggingLevelData
}
