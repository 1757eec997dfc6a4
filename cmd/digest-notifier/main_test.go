package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lueurxax/job-digest-notifier/internal/output/digest"
)

func TestValidateMode(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		once    bool
		wantErr error
	}{
		{name: "serve", mode: "serve"},
		{name: "digest once", mode: "digest", once: true},
		{name: "digest without once", mode: "digest", wantErr: errOnceRequired},
		{name: "unknown", mode: "cron", once: true, wantErr: errUnknownMode},
		{name: "empty", mode: "", wantErr: errUnknownMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateMode(tt.mode, tt.once)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRunMode_RejectsBeforeStarting(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		once    bool
		wantErr error
	}{
		{name: "digest without once", mode: "digest", wantErr: errOnceRequired},
		{name: "unknown", mode: "batch", wantErr: errUnknownMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, runMode(t.Context(), nil, tt.mode, tt.once, digest.RunOptions{}), tt.wantErr)
		})
	}
}
