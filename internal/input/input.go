// Package input turns a raw terminal byte stream into per-frame controls.
package input

import (
	"bufio"
	"time"

	"github.com/tomz197/bocce/internal/object"
	"github.com/tomz197/bocce/internal/throw"
)

// keyHoldDuration is how long a steering key counts as held after its last
// byte. Terminals only repeat keys, they never report releases.
const keyHoldDuration = 80 * time.Millisecond

// Input is one frame of player input. Discrete keys are edge-triggered: they
// are set only on the frame their byte arrives.
type Input struct {
	Quit       bool
	Confirm    bool // space or enter
	Restart    bool
	Lateral    float64 // -1 left, +1 right, 0 when neither or both held
	Difficulty int     // 1-3 when a difficulty key was pressed, else 0
	Pressed    []byte
}

// Controls returns the launcher's view of this frame.
func (in Input) Controls() throw.Controls {
	return throw.Controls{Confirm: in.Confirm, Lateral: in.Lateral}
}

// DifficultyChoice maps the pressed difficulty key to a tier.
func (in Input) DifficultyChoice() (object.Difficulty, bool) {
	switch in.Difficulty {
	case 1:
		return object.Easy, true
	case 2:
		return object.Medium, true
	case 3:
		return object.Hard, true
	}
	return object.Medium, false
}

// Stream delivers input bytes via a channel and remembers steering keys
// between frames.
type Stream struct {
	ch     chan byte
	closed bool
	left   time.Time
	right  time.Time
}

// StartStream spawns a goroutine that reads from r and sends bytes to the
// stream. The channel is closed when r fails.
func StartStream(r *bufio.Reader) *Stream {
	s := &Stream{ch: make(chan byte, 128)}
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

// ReadInput drains all available bytes from the stream without blocking.
// A closed stream reports Quit.
func ReadInput(s *Stream) Input {
	var buf []byte
	for !s.closed {
		select {
		case b, ok := <-s.ch:
			if !ok {
				s.closed = true
				continue
			}
			buf = append(buf, b)
			continue
		default:
		}
		break
	}
	in := s.parse(buf, time.Now())
	if s.closed {
		in.Quit = true
	}
	return in
}

// parse decodes buf, received at now, into a frame of input.
func (s *Stream) parse(buf []byte, now time.Time) Input {
	in := Input{Pressed: buf}
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		// CSI arrows: ESC [ C / ESC [ D
		if b == '\x1b' && i+2 < len(buf) && buf[i+1] == '[' {
			switch buf[i+2] {
			case 'C':
				s.right = now
			case 'D':
				s.left = now
			}
			i += 2
			continue
		}
		switch b {
		case 'q', 'Q', '\x03':
			in.Quit = true
		case 'a', 'A', 'h', 'H':
			s.left = now
		case 'd', 'D', 'l', 'L':
			s.right = now
		case ' ', '\n', '\r':
			in.Confirm = true
		case 'r', 'R':
			in.Restart = true
		case '1', '2', '3':
			in.Difficulty = int(b - '0')
		}
	}

	if now.Sub(s.left) < keyHoldDuration {
		in.Lateral--
	}
	if now.Sub(s.right) < keyHoldDuration {
		in.Lateral++
	}
	return in
}
