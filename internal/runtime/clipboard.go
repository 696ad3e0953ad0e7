package runtime

import (
	"io"
	"os"

	"github.com/aymanbagabas/go-osc52/v2"
)

// Clipboard receives text for the system clipboard.
type Clipboard interface {
	Copy(text string) error
}

// OSC52 writes clipboard text as an OSC 52 escape sequence, which most
// terminals (and tmux, when wrapped) forward to the system clipboard, also
// over SSH.
type OSC52 struct {
	Out io.Writer
	// Tmux wraps the sequence in a tmux passthrough.
	Tmux bool
}

// NewOSC52 returns a clipboard writing to the terminal on stderr.
func NewOSC52() OSC52 {
	return OSC52{Out: os.Stderr, Tmux: os.Getenv("TMUX") != ""}
}

// Copy implements Clipboard.
func (c OSC52) Copy(text string) error {
	seq := osc52.New(text)
	if c.Tmux {
		seq = seq.Tmux()
	}
	_, err := seq.WriteTo(c.Out)
	return err
}
