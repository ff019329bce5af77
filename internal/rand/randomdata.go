// Package rand generates random payloads for content store probes and tests.
package rand

import (
	"bytes"
	"math/rand"
	"sync"
	"time"
)

// Bytes returns a random slice of bytes
func Bytes(n int) []byte {
	buf := make([]byte, n)
	randMutex.Lock()
	_, _ = rgen().Read(buf)
	randMutex.Unlock()
	return buf
}

// String returns a random string
func String(n int) string {
	return string(Bytes(n))
}

// LetterBytes returns a random slice of bytes picked in the [0-9]|[a-z] range
func LetterBytes(n int) []byte {
	onceLetters.Do(makeLetters)
	buf := Bytes(n)
	for i, b := range buf {
		buf[i] = letters[b]
	}
	return buf
}

// LetterString returns a random string picked in the [0-9]|[a-z] range
func LetterString(n int) string {
	return string(LetterBytes(n))
}

var (
	onceSource  sync.Once
	generator   *rand.Rand
	onceLetters sync.Once
	randMutex   sync.Mutex
	letters     []byte
)

func rgen() *rand.Rand {
	onceSource.Do(func() {
		generator = rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec
	})
	return generator
}

func makeLetters() {
	// pads over the 256 byte values with a repeated alphabet ("a" comes out
	// slightly more frequent; speed is traded for exact uniformity)
	letters = bytes.Repeat([]byte("abcdefghijklmnopqrstuvwxyz0123456789a"), 7)
}
