package alarm

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	errInvalidInterval = errors.New("alarm: poll interval must be positive")
	errMissingSource   = errors.New("alarm: source is required")
	errMissingPolicy   = errors.New("alarm: firing policy is required")
	errMissingSink     = errors.New("alarm: alert sink is required")
)

func alertID(scheduler string, sequence int64) string {
	return fmt.Sprintf("%s-%d", scheduler, sequence)
}

// NopChime is the default audible cue: none. The desktop shell supplies a
// real one.
type NopChime struct{}

func (NopChime) Play() error {
	return nil
}

// deniedNotifier is the default notification surface: permission never
// granted, all notifications skipped.
type deniedNotifier struct{}

func (deniedNotifier) Granted() bool {
	return false
}

func (deniedNotifier) Show(string, string) {}

// LogNotifier mirrors system notifications into the structured log. It stands
// in for the desktop shell's notification surface when one is not attached.
type LogNotifier struct {
	Enabled bool
	Logger  *zap.Logger
}

func (n LogNotifier) Granted() bool {
	return n.Enabled
}

func (n LogNotifier) Show(title, body string) {
	if n.Logger == nil {
		return
	}
	n.Logger.Info("system notification",
		zap.String("title", title),
		zap.String("body", body))
}
