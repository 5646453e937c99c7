package shared

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{name: "valid", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "missing", header: "", wantErr: ErrMissingAuth},
		{name: "lowercase prefix", header: "bearer abc", wantErr: ErrInvalidFormat},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", wantErr: ErrInvalidFormat},
		{name: "empty token", header: "Bearer ", wantErr: ErrInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractBearerToken(tt.header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToday(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	now := time.Date(2024, 1, 2, 5, 0, 0, 0, loc)
	assert.Equal(t, "2024-01-01", Today(now))
}

func TestRequestErrorWithCause(t *testing.T) {
	err := ErrUnauthenticated.WithCause(errors.New("token expired"))
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, 401, err.StatusCode)
	assert.Contains(t, err.Message(), "token expired")
	assert.Contains(t, err.Message(), "invalid token")

	assert.Same(t, ErrQuotaExceeded, ErrQuotaExceeded.WithCause(nil))
}

func TestAsRequestError(t *testing.T) {
	assert.Equal(t, 429, AsRequestError(ErrQuotaExceeded).StatusCode)

	wrapped := AsRequestError(errors.New("boom"))
	assert.Equal(t, 500, wrapped.StatusCode)
	assert.Contains(t, wrapped.Message(), "boom")
}
