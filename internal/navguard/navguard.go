// Package navguard implements C5: the Dialog Navigation Guard (meta-intent
// detection for BACK/REPEAT/NEXT/STOP) and the dialog stack operations it
// shares with the orchestrator's surface-push step.
package navguard

import (
	"regexp"

	"github.com/ndoemo/dialogbrain/internal/lexicon"
	"github.com/ndoemo/dialogbrain/internal/session"
)

const dialogStackCap = 10

const (
	IntentBack   = "DIALOG_BACK"
	IntentRepeat = "DIALOG_REPEAT"
	IntentNext   = "DIALOG_NEXT"
	IntentStop   = "DIALOG_STOP"
)

// Regex sets operate on normalized (diacritic-folded, lowercased) text, so
// "wróć" is matched as "wroc".
var (
	backRe   = regexp.MustCompile(`cofnij|wroc|poprzednie|pokaz poprzednie`)
	repeatRe = regexp.MustCompile(`powtorz|(pokaz )?jeszcze raz`)
	nextRe   = regexp.MustCompile(`dalej|nastepne|pokaz wiecej`)
	stopRe   = regexp.MustCompile(`stop|wystarczy|cisza`)
)

// Outcome is what the guard decided for this turn.
type Outcome struct {
	Matched     bool
	Intent      string
	Reply       string
	StopTTS     bool
	ShouldReply bool
}

// Handle runs the nav guard against the raw utterance. STOP is always
// honored; BACK/REPEAT/NEXT only fire when navigationEnabled is true and
// fallbackMode isn't "SIMPLE".
func Handle(sess *session.Session, text string, navigationEnabled bool, fallbackMode string) Outcome {
	norm := lexicon.Normalize(text)

	if stopRe.MatchString(norm) {
		return Outcome{Matched: true, Intent: IntentStop, Reply: "", StopTTS: true, ShouldReply: false}
	}

	if !navigationEnabled || fallbackMode == "SIMPLE" {
		return Outcome{}
	}

	switch {
	case backRe.MatchString(norm):
		entry, ok := Back(sess)
		if !ok {
			entry, ok = Current(sess)
		}
		if !ok {
			return Outcome{Matched: true, Intent: IntentBack, Reply: "Nie mam wcześniejszego kroku.", ShouldReply: true}
		}
		return Outcome{Matched: true, Intent: IntentBack, Reply: entry.RenderedText, ShouldReply: true}

	case repeatRe.MatchString(norm):
		entry, ok := Current(sess)
		if !ok {
			return Outcome{Matched: true, Intent: IntentRepeat, Reply: "Nie mam nic do powtórzenia.", ShouldReply: true}
		}
		return Outcome{Matched: true, Intent: IntentRepeat, Reply: entry.RenderedText, ShouldReply: true}

	case nextRe.MatchString(norm):
		entry, ok := Forward(sess)
		if !ok {
			entry, ok = Current(sess)
		}
		if !ok {
			return Outcome{Matched: true, Intent: IntentNext, Reply: "Nie mam kolejnego kroku.", ShouldReply: true}
		}
		return Outcome{Matched: true, Intent: IntentNext, Reply: entry.RenderedText, ShouldReply: true}
	}

	return Outcome{}
}
