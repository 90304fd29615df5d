// vidstore/internal/pkg/crypto/xor/xor.go

// Package xor implements the single-byte XOR transform applied to the
// header window of stored files and to ledger records. It is a format
// obfuscation, not a cipher.
package xor

const (
	// HeaderSize is the number of leading bytes of a stored file that are obfuscated.
	HeaderSize = 1024

	// DefaultKey is the constant every existing stored file and ledger uses.
	DefaultKey byte = 29
)

type Obfuscator struct {
	key byte
}

func NewObfuscator(key byte) *Obfuscator {
	return &Obfuscator{
		key: key,
	}
}

// Key returns the XOR constant.
func (o *Obfuscator) Key() byte {
	return o.key
}

// Apply returns a new slice holding every byte of b XORed with the key.
// Apply(Apply(b)) equals b.
func (o *Obfuscator) Apply(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[i] = c ^ o.key
	}
	return out
}

// ApplyInPlace transforms b without allocating.
func (o *Obfuscator) ApplyInPlace(b []byte) {
	for i := range b {
		b[i] ^= o.key
	}
}

// WindowSize returns min(HeaderSize, size).
func WindowSize(size int64) int64 {
	if size < HeaderSize {
		return size
	}
	return HeaderSize
}

// ApplyWindow transforms the header window of a whole file buffer in place.
func (o *Obfuscator) ApplyWindow(b []byte) {
	o.ApplyInPlace(b[:WindowSize(int64(len(b)))])
}
