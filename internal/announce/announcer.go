package announce

import (
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Text renders the spoken announcement for a called token.
func Text(a Announcement) string {
	counter := a.CounterName
	if counter == "" {
		counter = "the counter"
	}
	return fmt.Sprintf("Token number %d, please proceed to %s", a.TokenNumber, counter)
}

// LogAnnouncer writes announcements to the structured log.
type LogAnnouncer struct {
	Logger *zap.Logger
}

func (l LogAnnouncer) Announce(a Announcement) error {
	l.Logger.Info("announcing token",
		zap.Int("token_number", a.TokenNumber),
		zap.String("counter", a.CounterName),
	)
	return nil
}

// SpeechAnnouncer runs an external text-to-speech command (e.g. "espeak" or
// "say") with the announcement text as its final argument.
type SpeechAnnouncer struct {
	Command string
	Logger  *zap.Logger
}

func (s SpeechAnnouncer) Announce(a Announcement) error {
	parts := strings.Fields(s.Command)
	if len(parts) == 0 {
		return nil
	}
	args := append(parts[1:], Text(a))

	if err := exec.Command(parts[0], args...).Run(); err != nil {
		if s.Logger != nil {
			s.Logger.Warn("speech command failed", zap.Error(err))
		}
		return err
	}
	return nil
}

// MultiAnnouncer fans an announcement out to several announcers.
type MultiAnnouncer []Announcer

func (m MultiAnnouncer) Announce(a Announcement) error {
	var firstErr error
	for _, announcer := range m {
		if err := announcer.Announce(a); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
