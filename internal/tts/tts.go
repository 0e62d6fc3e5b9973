// Package tts implements C12: chunking and Polish-speech polishing ahead of
// an external speech synthesizer, plus the barge-in-aware streaming
// controller. The actual text-to-speech provider is an
// out-of-core-scope collaborator; this package only prepares text
// for it and sequences the resulting audio chunks.
package tts

import (
	"context"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/ndoemo/dialogbrain/internal/lexicon"
)

const maxChunkChars = 120

// Pacing carries the voice parameters the synthesizer should apply
//.
type Pacing struct {
	Rate                float64
	Pitch               float64
	PauseBetweenChunks  time.Duration
	PauseJitter         time.Duration
}

// DefaultPacing is the default voice pacing.
var DefaultPacing = Pacing{Rate: 0.95, Pitch: -0.5, PauseBetweenChunks: 300 * time.Millisecond, PauseJitter: 100 * time.Millisecond}

// Result is ProcessForTTS's output.
type Result struct {
	Chunks []string
	Pacing Pacing
}

var (
	leadingOrdinalRe = regexp.MustCompile(`^(\d+)\.\s+`)
	inlineOrdinalRe  = regexp.MustCompile(` (\d+)\.\s+`)
	markdownEmphasis = regexp.MustCompile(`(\*\*|\*|_)`)
	dashRe           = regexp.MustCompile(`[–—]`)
	commaRunRe       = regexp.MustCompile(`,\s*,+`)
	whitespaceRunRe  = regexp.MustCompile(`\s+`)
	sentenceRe       = regexp.MustCompile(`[^.!?]+[.!?]+|[^.!?]+$`)
)

// PolishForSpeech converts numbered-list markers to spoken Polish ordinals,
// strips markdown emphasis, normalizes dashes to commas, and collapses
// whitespace/duplicate commas. It is idempotent: PolishForSpeech(
// PolishForSpeech(x)) == PolishForSpeech(x).
func PolishForSpeech(text string) string {
	s := text

	s = leadingOrdinalRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := leadingOrdinalRe.FindStringSubmatch(m)
		return ordinalPrefixOrDigits(sub[1]) + ", "
	})
	s = inlineOrdinalRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := inlineOrdinalRe.FindStringSubmatch(m)
		return " " + ordinalPrefixOrDigits(sub[1]) + ", "
	})

	s = markdownEmphasis.ReplaceAllString(s, "")
	s = dashRe.ReplaceAllString(s, ",")
	s = commaRunRe.ReplaceAllString(s, ",")
	s = whitespaceRunRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	return s
}

func ordinalPrefixOrDigits(digits string) string {
	n := 0
	for _, r := range digits {
		n = n*10 + int(r-'0')
	}
	if n == 0 {
		return digits
	}
	return lexicon.OrdinalPrefixPl(n)
}

// SplitIntoChunks packs polished text into chunks no longer than maxLen
// characters, never breaking mid-sentence (greedy accumulation).
// Concatenating the returned chunks reproduces the
// polished input up to whitespace normalization.
func SplitIntoChunks(text string, maxLen int) []string {
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder
	for _, raw := range sentences {
		sentence := strings.TrimSpace(raw)
		if sentence == "" {
			continue
		}
		candidateLen := current.Len()
		if candidateLen > 0 {
			candidateLen++ // joining space
		}
		candidateLen += len(sentence)

		if current.Len() > 0 && candidateLen > maxLen {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// ProcessForTTS runs the full speech preparation: polish, then
// chunk to at most 120 characters per chunk, returning the pacing to apply.
func ProcessForTTS(text string) Result {
	polished := PolishForSpeech(text)
	return Result{Chunks: SplitIntoChunks(polished, maxChunkChars), Pacing: DefaultPacing}
}

// FirstLineOnly returns the text up to (and including) its first sentence
// terminator. When a turn's response carries a restaurants or menuItems
// list, only this first line is synthesized, so the UI's own list
// rendering isn't double-read.
func FirstLineOnly(text string) string {
	chunks := SplitIntoChunks(PolishForSpeech(text), maxChunkChars)
	if len(chunks) == 0 {
		return ""
	}
	sentences := sentenceRe.FindAllString(chunks[0], -1)
	if len(sentences) == 0 {
		return chunks[0]
	}
	return strings.TrimSpace(sentences[0])
}

// Stylizer is the out-of-scope external LLM collaborator that rephrases a
// deterministic template reply into a more conversational register. A nil
// Stylizer (and any Stylize error) leaves the reply untouched — styling
// degrades silently, it never blocks the turn.
type Stylizer interface {
	Stylize(ctx context.Context, text string) (string, error)
}

// Synthesizer is the out-of-scope external TTS provider collaborator
//: given one polished chunk, it returns synthesized audio
// bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, pacing Pacing) ([]byte, error)
}

// AudioChunk pairs one synthesized chunk with its sequence position.
type AudioChunk struct {
	Index int
	Audio []byte
	Err   error
}

// StreamChunks synthesizes chunks in order over synth, yielding each on the
// returned channel with a jittered pause between them. It aborts
// immediately when abort is closed or ctx is cancelled — no pending audio
// is replayed afterward.
func StreamChunks(ctx context.Context, synth Synthesizer, chunks []string, pacing Pacing, abort <-chan struct{}) <-chan AudioChunk {
	out := make(chan AudioChunk)
	go func() {
		defer close(out)
		for i, chunk := range chunks {
			select {
			case <-ctx.Done():
				return
			case <-abort:
				return
			default:
			}

			audio, err := synth.Synthesize(ctx, chunk, pacing)
			select {
			case out <- AudioChunk{Index: i, Audio: audio, Err: err}:
			case <-ctx.Done():
				return
			case <-abort:
				return
			}

			if i == len(chunks)-1 {
				return
			}
			if !sleepJittered(ctx, abort, pacing) {
				return
			}
		}
	}()
	return out
}

// sleepJittered pauses for PauseBetweenChunks ± PauseJitter, returning
// false if the wait was cut short by cancellation/abort.
func sleepJittered(ctx context.Context, abort <-chan struct{}, pacing Pacing) bool {
	jitter := time.Duration(0)
	if pacing.PauseJitter > 0 {
		jitter = time.Duration(rand.Int63n(int64(2*pacing.PauseJitter))) - pacing.PauseJitter
	}
	wait := pacing.PauseBetweenChunks + jitter
	if wait < 0 {
		wait = 0
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-abort:
		return false
	}
}
