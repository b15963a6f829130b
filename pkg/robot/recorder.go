package robot

import "sync"

// Recorder stores every pan command in memory.
type Recorder struct {
	mu       sync.Mutex
	commands []float64
	err      error
	closed   bool
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// FailWith makes subsequent SetPan calls record the command and return err.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

// SetPan records the command.
func (r *Recorder) SetPan(command float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrNotConnected
	}
	r.commands = append(r.commands, command)
	return r.err
}

// Commands returns a copy of the recorded commands.
func (r *Recorder) Commands() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.commands...)
}

// Last returns the most recent command.
func (r *Recorder) Last() (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.commands) == 0 {
		return 0, false
	}
	return r.commands[len(r.commands)-1], true
}

// Close marks the recorder closed.
func (r *Recorder) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}
