package reader

import (
	"bytes"
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testReadSeeker performs randomized seek+read trials against a reader built
// by newReader over a random buffer.
func testReadSeeker(t *testing.T, newReader func([]byte) io.ReadSeeker) {
	const trials = 1000

	data := generateRandomBuffer(1024 * 10)
	rs := newReader(data)

	var buf [64]byte

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := range trials {
		offset := rng.Intn(len(data))
		readLen := max(1, min(rng.Intn(64), len(data)-offset))

		whence := io.SeekStart
		target := int64(offset)
		if i%3 == 1 {
			cur, err := rs.Seek(0, io.SeekCurrent)
			require.NoError(t, err)
			whence = io.SeekCurrent
			target = int64(offset) - cur
		}

		pos, err := rs.Seek(target, whence)
		require.NoError(t, err, "trial %d", i)
		require.Equal(t, int64(offset), pos, "trial %d", i)

		n, err := rs.Read(buf[:readLen])
		if err != nil {
			require.ErrorIs(t, err, io.EOF, "trial %d", i)
		}

		expected := data[offset:]
		if len(expected) > readLen {
			expected = expected[:readLen]
		}
		require.True(t, bytes.Equal(buf[:n], expected), "trial %d: mismatch at offset %d", i, offset)
	}
}

func generateRandomBuffer(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("failed to generate random data: " + err.Error())
	}
	return b
}
