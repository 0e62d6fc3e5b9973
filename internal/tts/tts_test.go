package tts

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolishForSpeechIsIdempotent(t *testing.T) {
	input := "1. Pizzeria Roma – 5 zł\n**Ważne**: 2. Bar Praha"
	once := PolishForSpeech(input)
	twice := PolishForSpeech(once)
	assert.Equal(t, once, twice)
}

func TestPolishForSpeechConvertsOrdinalsAndStripsMarkdown(t *testing.T) {
	out := PolishForSpeech("1. Pizzeria Roma")
	assert.Contains(t, out, "Po pierwsze")
	assert.NotContains(t, out, "1.")

	out = PolishForSpeech("**bold** and _italic_")
	assert.NotContains(t, out, "*")
	assert.NotContains(t, out, "_")
}

func TestSplitIntoChunksNeverBreaksMidSentence(t *testing.T) {
	text := "To jest pierwsze zdanie. To jest drugie, nieco dłuższe zdanie które też mówi coś ciekawego. Trzecie."
	chunks := SplitIntoChunks(text, 40)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(strings.TrimSpace(c)), 80) // a single long sentence may exceed maxLen alone
	}
	rejoined := strings.Join(chunks, " ")
	assert.Equal(t, text, rejoined)
}

func TestProcessForTTSReturnsDefaultPacing(t *testing.T) {
	result := ProcessForTTS("Cześć, jak mogę pomóc?")
	assert.NotEmpty(t, result.Chunks)
	assert.Equal(t, DefaultPacing, result.Pacing)
}

type fakeSynth struct {
	calls int
}

func (f *fakeSynth) Synthesize(_ context.Context, text string, _ Pacing) ([]byte, error) {
	f.calls++
	return []byte(text), nil
}

func TestStreamChunksAbortsImmediately(t *testing.T) {
	synth := &fakeSynth{}
	abort := make(chan struct{})
	pacing := Pacing{PauseBetweenChunks: 50 * time.Millisecond}
	out := StreamChunks(context.Background(), synth, []string{"a", "b", "c"}, pacing, abort)

	first, ok := <-out
	require.True(t, ok)
	assert.Equal(t, 0, first.Index)

	close(abort)

	for range out {
		// drain; the channel must close promptly without yielding every chunk
	}
	assert.Less(t, synth.calls, 3)
}

func TestStreamChunksYieldsAllInOrderWithoutAbort(t *testing.T) {
	synth := &fakeSynth{}
	abort := make(chan struct{})
	pacing := Pacing{PauseBetweenChunks: time.Millisecond}
	out := StreamChunks(context.Background(), synth, []string{"a", "b"}, pacing, abort)

	var got []int
	for c := range out {
		got = append(got, c.Index)
	}
	assert.Equal(t, []int{0, 1}, got)
}

func TestFirstLineOnlyReturnsOneSentence(t *testing.T) {
	out := FirstLineOnly("Oto lista. 1. Pizzeria Roma. 2. Bar Praha.")
	assert.Contains(t, out, "Oto lista")
	assert.NotContains(t, out, "Bar Praha")
}
