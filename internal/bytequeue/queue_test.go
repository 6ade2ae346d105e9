package bytequeue

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	q := New(16)

	require.True(t, q.Enqueue([]byte("abc")))
	require.True(t, q.Enqueue([]byte("")))
	require.True(t, q.Enqueue([]byte("defg")))
	require.Equal(t, 7, q.Len())
	require.Equal(t, 9, q.Free())

	out, err := q.Dequeue(q.Len())
	require.NoError(t, err)
	require.Equal(t, "abcdefg", string(out))
	require.Equal(t, 0, q.Len())
}

func TestEnqueueOverflow(t *testing.T) {
	q := New(4)
	require.True(t, q.Enqueue([]byte{1, 2, 3}))

	require.False(t, q.Enqueue([]byte{4, 5}))
	require.Equal(t, 3, q.Len())

	require.True(t, q.Enqueue([]byte{4}))
	require.Equal(t, 4, q.Len())
	require.Equal(t, []byte{1, 2, 3, 4}, q.MustDequeue(4))
}

func TestDequeueUnderflow(t *testing.T) {
	q := New(8)
	q.Enqueue([]byte("xy"))

	_, err := q.Dequeue(3)
	require.ErrorIs(t, err, ErrUnderflow)
	require.Equal(t, 2, q.Len())

	_, err = q.Dequeue(-1)
	require.ErrorIs(t, err, ErrUnderflow)

	out, err := q.Dequeue(0)
	require.NoError(t, err)
	require.Empty(t, out)

	require.Equal(t, "xy", string(q.MustDequeue(2)))
}

func TestMustDequeuePanics(t *testing.T) {
	q := New(2)
	require.Panics(t, func() { q.MustDequeue(1) })
}

func TestFlush(t *testing.T) {
	q := New(8)
	q.Enqueue([]byte("12345678"))
	q.Flush()

	require.Equal(t, 0, q.Len())
	require.Equal(t, 8, q.Free())
	require.Equal(t, 8, q.Cap())
	require.True(t, q.Enqueue([]byte("abcdefgh")))
}

func TestPartialDequeuePreservesOrder(t *testing.T) {
	q := New(6)
	q.Enqueue([]byte("abcdef"))

	require.Equal(t, "ab", string(q.MustDequeue(2)))
	require.True(t, q.Enqueue([]byte("gh")))
	require.Equal(t, "cdefgh", string(q.MustDequeue(6)))
}

func TestConcurrentProducerConsumer(t *testing.T) {
	const total = 200000
	q := New(64)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; {
			chunk := []byte{byte(i), byte(i + 1), byte(i + 2)}
			if i+3 > total {
				chunk = chunk[:total-i]
			}
			if q.Enqueue(chunk) {
				i += len(chunk)
			}
		}
	}()

	var got bytes.Buffer
	for got.Len() < total {
		n := q.Len()
		if n < 0 || n > q.Cap() {
			t.Fatalf("length out of range: %d", n)
		}
		if n == 0 {
			continue
		}
		got.Write(q.MustDequeue(n))
	}
	wg.Wait()

	for i, b := range got.Bytes() {
		if b != byte(i) {
			t.Fatalf("byte %d out of order: got %d", i, b)
		}
	}
}
