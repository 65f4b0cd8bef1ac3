package telegram

import (
	"sync"
	"time"
)

const (
	// dedupeWindow suppresses re-estimating the exact same photo.
	dedupeWindow = 10 * time.Minute
	// progressThrottle limits how often the status message is edited.
	progressThrottle = 800 * time.Millisecond
)

// chatPrefs are the per-chat estimation defaults set via commands. Empty
// strings mean "let the classification call decide".
type chatPrefs struct {
	TruckClass string
	Material   string
	Runs       int
}

var (
	chatState   sync.Map // chatID -> chatPrefs
	actualState sync.Map // chatID -> struct{}: awaiting a bare weight after /actual
)

func prefs(chatID int64) chatPrefs {
	if v, ok := chatState.Load(chatID); ok {
		return v.(chatPrefs)
	}
	return chatPrefs{}
}

func storePrefs(chatID int64, p chatPrefs) { chatState.Store(chatID, p) }

func setAwaitActual(chatID int64)   { actualState.Store(chatID, struct{}{}) }
func clearAwaitActual(chatID int64) { actualState.Delete(chatID) }
func awaitingActual(chatID int64) bool {
	_, ok := actualState.Load(chatID)
	return ok
}
