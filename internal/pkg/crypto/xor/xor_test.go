// vidstore/internal/pkg/crypto/xor/xor_test.go
package xor

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomBytes(t *testing.T, size int) []byte {
	t.Helper()
	data := make([]byte, size)
	_, err := rand.Read(data)
	require.NoError(t, err)
	return data
}

func TestApplyRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		size int
		key  byte
	}{
		{name: "Empty", size: 0, key: DefaultKey},
		{name: "Single byte", size: 1, key: DefaultKey},
		{name: "Header sized", size: HeaderSize, key: DefaultKey},
		{name: "Large data", size: 64 * 1024, key: DefaultKey},
		{name: "Other key", size: 4096, key: 0xA5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewObfuscator(tt.key)
			input := randomBytes(t, tt.size)

			once := o.Apply(input)
			require.Len(t, once, len(input))
			if tt.size > 0 {
				assert.False(t, bytes.Equal(once, input), "obfuscated data is identical to input")
			}
			assert.Equal(t, input, o.Apply(once))
		})
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	o := NewObfuscator(DefaultKey)
	input := []byte("ftypisom")
	snapshot := append([]byte(nil), input...)

	_ = o.Apply(input)
	assert.Equal(t, snapshot, input)
}

func TestApplyKnownBytes(t *testing.T) {
	o := NewObfuscator(DefaultKey)
	assert.Equal(t, []byte{0x1d, 0x1c, 0xe2}, o.Apply([]byte{0x00, 0x01, 0xff}))
}

func TestWindowSize(t *testing.T) {
	assert.Equal(t, int64(0), WindowSize(0))
	assert.Equal(t, int64(500), WindowSize(500))
	assert.Equal(t, int64(HeaderSize), WindowSize(HeaderSize))
	assert.Equal(t, int64(HeaderSize), WindowSize(2000))
}

func TestApplyWindow(t *testing.T) {
	o := NewObfuscator(DefaultKey)

	t.Run("Shorter than window", func(t *testing.T) {
		original := randomBytes(t, 500)
		buf := append([]byte(nil), original...)
		o.ApplyWindow(buf)
		assert.Equal(t, o.Apply(original), buf)
	})

	t.Run("Longer than window", func(t *testing.T) {
		original := randomBytes(t, 2000)
		buf := append([]byte(nil), original...)
		o.ApplyWindow(buf)
		assert.Equal(t, o.Apply(original[:HeaderSize]), buf[:HeaderSize])
		assert.Equal(t, original[HeaderSize:], buf[HeaderSize:])
	})
}
