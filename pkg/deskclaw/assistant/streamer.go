// Package assistant – streamer.go converts handler output into the
// uniform chunk stream the presentation layer consumes. Every turn ends
// with exactly one sentinel, including failed turns; the sentinel can
// never overtake a content chunk because one goroutine owns the channel.
package assistant

// Chunk is one unit of turn output. A chunk with Sentinel set carries no
// text and marks the end of the turn.
type Chunk struct {
	Text     string
	Sentinel bool
}

// Streamer delivers one turn's chunks, in emission order, ending with a
// single sentinel. Not safe for concurrent emitters; a turn has exactly
// one.
type Streamer struct {
	ch     chan Chunk
	closed bool
}

// NewStreamer creates a streamer. The buffer lets handlers run ahead of a
// slow consumer without blocking on every fragment.
func NewStreamer(buffer int) *Streamer {
	if buffer <= 0 {
		buffer = 64
	}
	return &Streamer{ch: make(chan Chunk, buffer)}
}

// Chunks is the consumer side. It is closed after the sentinel.
func (s *Streamer) Chunks() <-chan Chunk {
	return s.ch
}

// Emit sends one text fragment. Empty fragments and writes after Close
// are dropped.
func (s *Streamer) Emit(text string) {
	if s.closed || text == "" {
		return
	}
	s.ch <- Chunk{Text: text}
}

// Close sends the sentinel and closes the channel. Safe to call more than
// once; only the first call emits a sentinel.
func (s *Streamer) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.ch <- Chunk{Sentinel: true}
	close(s.ch)
}
