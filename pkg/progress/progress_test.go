package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastLine(buf *bytes.Buffer) string {
	frames := strings.Split(buf.String(), "\r")
	return frames[len(frames)-1]
}

func TestBarRendering(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBar(&buf)
	bar.SetTotal(200)

	for i := 0; i < 120; i++ {
		bar.Increment(1)
	}
	require.Equal(t, "120/200 files ["+strings.Repeat(".", 30)+strings.Repeat(" ", 20)+"]  60%", lastLine(&buf))

	for i := 0; i < 80; i++ {
		bar.Increment(1)
	}
	assert.Equal(t, "200/200 files ["+strings.Repeat(".", 50)+"] 100%", lastLine(&buf))
}

func TestBarBoundedByTotal(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBar(&buf)
	bar.SetTotal(3)
	bar.Increment(5)
	assert.Equal(t, "3/3 files ["+strings.Repeat(".", 50)+"] 100%", lastLine(&buf))
}

func TestBarDone(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBar(&buf)
	bar.SetTotal(2)
	bar.Increment(2)
	bar.Done()
	assert.True(t, strings.HasSuffix(buf.String(), "100%\n"),
		"the bar line must be newline terminated so later output starts fresh")

	// a second Done adds nothing
	n := buf.Len()
	bar.Done()
	assert.Equal(t, n, buf.Len())
}

func TestBarDoneWithoutRendering(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBar(&buf)
	bar.Done()
	assert.Zero(t, buf.Len())

	// an all-skipped batch never draws either
	bar.SetTotal(0)
	bar.Done()
	assert.Zero(t, buf.Len())
}

func TestBarConcurrentIncrements(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBar(&buf)
	bar.SetTotal(100)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				bar.Increment(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, "100/100 files ["+strings.Repeat(".", 50)+"] 100%", lastLine(&buf))
}
