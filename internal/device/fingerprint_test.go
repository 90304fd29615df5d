package device

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceID(t *testing.T) {
	tests := []struct {
		name     string
		machine  func(string) (string, error)
		hostname func() (string, error)
		want     string
		wantErr  bool
	}{
		{
			name:     "Machine id truncated",
			machine:  func(string) (string, error) { return "0123456789abcdef0123456789abcdef", nil },
			hostname: func() (string, error) { return "ignored", nil },
			want:     "0123456789abcdef",
		},
		{
			name:     "Hostname fallback",
			machine:  func(string) (string, error) { return "", errors.New("no machine id") },
			hostname: func() (string, error) { return "Media_Box.local", nil },
			want:     "media-box-local",
		},
		{
			name:     "Both unavailable",
			machine:  func(string) (string, error) { return "", errors.New("no machine id") },
			hostname: func() (string, error) { return "", errors.New("no hostname") },
			wantErr:  true,
		},
		{
			name:     "Hostname sanitised to nothing",
			machine:  func(string) (string, error) { return "", errors.New("no machine id") },
			hostname: func() (string, error) { return "___", nil },
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New("vidstore")
			f.idSource = tt.machine
			f.hostname = tt.hostname

			got, err := f.InstanceID()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
