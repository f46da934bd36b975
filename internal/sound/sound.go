// Package sound plays the audible cues for sent and received messages.
// The terminal has no mp3 player, so the cue is the ASCII bell.
package sound

import (
	"fmt"
	"io"
	"os"
)

// Cue names which sound to play.
type Cue int

const (
	CueMessageSent Cue = iota
	CueMessageReceived
)

// Player emits audible cues.
type Player interface {
	Play(cue Cue)
}

// Bell writes the terminal bell character for every cue.
type Bell struct {
	Out io.Writer
}

// NewBell returns a Player ringing the terminal bell on stdout.
func NewBell() *Bell {
	return &Bell{Out: os.Stdout}
}

func (b *Bell) Play(Cue) {
	fmt.Fprint(b.Out, "\a")
}

// Mute discards every cue.
type Mute struct{}

func (Mute) Play(Cue) {}
