// Package vector provides the fixed-width binary codec and similarity
// primitives for embedding vectors. Embeddings are stored as little-endian
// IEEE-754 float32 sequences so that a vector round-trips bit-for-bit
// through the database.
package vector

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// floatWidth is the byte width of a single float32 element.
const floatWidth = 4

// ErrCorruptVector is returned when a stored blob cannot be decoded as a
// float32 vector. Callers should treat the row as having no embedding
// rather than failing the surrounding operation.
var ErrCorruptVector = errors.New("corrupt vector blob")

// Encode serializes a float32 vector to its binary representation.
// Encoding a nil or empty vector returns nil.
func Encode(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, len(v)*floatWidth)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*floatWidth:], math.Float32bits(f))
	}
	return buf
}

// Decode deserializes a binary blob back into a float32 vector.
// A nil or empty blob decodes to nil. A blob whose length is not a
// multiple of the float width is ErrCorruptVector.
func Decode(b []byte) ([]float32, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%floatWidth != 0 {
		return nil, errors.Wrapf(ErrCorruptVector, "blob length %d is not a multiple of %d", len(b), floatWidth)
	}
	v := make([]float32, len(b)/floatWidth)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*floatWidth:]))
	}
	return v, nil
}
