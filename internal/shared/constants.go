package shared

import "time"

// HTTP Client Configuration
const (
	DefaultUpstreamTimeout = 60 * time.Second
	DefaultStoreTimeout    = 10 * time.Second
	DefaultVerifyTimeout   = 10 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)

// Cache Configuration
const (
	VerifiedTokenCacheTTL = 1 * time.Minute
)

// Quota Configuration
const (
	DailyLimit         = 25
	MaxConsumeAttempts = 3
	DateLayout         = "2006-01-02"
)

// Downstream Configuration
const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel   = "gemini-2.5-flash"
)

const HealthMessage = "AI Voice Agent Backend is running."
