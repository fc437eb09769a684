package balldontlie

import "time"

const (
	providerName       = "balldontlie"
	defaultBaseURL     = "https://api.balldontlie.io/v1"
	defaultPerPage     = 100
	defaultHTTPTimeout = 15 * time.Second
	defaultMaxPages    = 25
)
