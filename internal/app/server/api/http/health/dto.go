package health

import "time"

// Input represents the input for health check endpoints
type Input struct{}

// Output represents the output for health check endpoint
type Output struct {
	Body Response
}

// Response represents the health check response
type Response struct {
	Status    string    `json:"status" example:"healthy" doc:"Health status of the service"`
	Timestamp time.Time `json:"timestamp" doc:"Server time, UTC"`
	Service   string    `json:"service" example:"MemVoice API"`
	Version   string    `json:"version" example:"0.1.0"`
}

type DetailedOutput struct {
	Body DetailedResponse
}

type DetailedResponse struct {
	Response
	Environment string           `json:"environment" example:"local"`
	Checks      map[string]Check `json:"checks"`
}

type Check struct {
	Status  string `json:"status" example:"healthy"`
	Message string `json:"message"`
}

type PingOutput struct {
	Body struct {
		Message string `json:"message" example:"pong"`
	}
}

type RootOutput struct {
	Body struct {
		Message     string `json:"message"`
		Version     string `json:"version"`
		DocsURL     string `json:"docs_url"`
		Environment string `json:"environment"`
	}
}
