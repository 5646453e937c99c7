package config

import (
	"testing"

	"ask-api/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCreds = `{"type":"service_account","project_id":"voice-agent-test","client_email":"svc@voice-agent-test.iam.gserviceaccount.com"}`

func TestNewDefaults(t *testing.T) {
	cfg := New(Options{GeminiAPIKey: "key", FirebaseCreds: testCreds})

	require.True(t, cfg.Ready())
	assert.NoError(t, cfg.Problems())
	assert.Equal(t, "voice-agent-test", cfg.ProjectID)
	assert.Equal(t, int64(shared.DailyLimit), cfg.DailyLimit)
	assert.Equal(t, shared.DefaultGeminiModel, cfg.GeminiModel)
	assert.Equal(t, shared.DefaultGeminiBaseURL, cfg.GeminiBaseURL)
	assert.Equal(t, StoreFirestore, cfg.StoreBackend)
	assert.Equal(t, "8080", cfg.Port)
}

func TestNewNotReady(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		msg  string
	}{
		{name: "no api key", opts: Options{FirebaseCreds: testCreds}, msg: "GEMINI_API_KEY"},
		{name: "no creds", opts: Options{GeminiAPIKey: "key"}, msg: "FIREBASE_CREDS not set"},
		{name: "bad json", opts: Options{GeminiAPIKey: "key", FirebaseCreds: "{"}, msg: "not valid json"},
		{name: "no project", opts: Options{GeminiAPIKey: "key", FirebaseCreds: `{"type":"service_account"}`}, msg: "project_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New(tt.opts)
			assert.False(t, cfg.Ready())
			assert.ErrorContains(t, cfg.Problems(), tt.msg)
		})
	}
}

func TestNilConfigNotReady(t *testing.T) {
	var cfg *Config
	assert.False(t, cfg.Ready())
	assert.Error(t, cfg.Problems())
}
