package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrSourceClosed is returned by sources that were closed by their owner.
var ErrSourceClosed = errors.New("input source closed")

// InputSource is the raw answer stream an AnswerCollector reads from.
// NextByte must return promptly once ctx is done. A "\r\n" pair reaches the
// reader as a single '\r', even when the two bytes arrive separately.
type InputSource interface {
	NextByte(ctx context.Context) (byte, error)
	// Discard drops whatever was buffered before the call.
	Discard()
}

const defaultSourceBuffer = 256

// crlf drops the '\n' that directly follows a '\r', across Discard calls too.
type crlf struct {
	afterCR atomic.Bool
}

func (c *crlf) skip(b byte) bool {
	return c.afterCR.Swap(b == '\r') && b == '\n'
}

// ChanSource is an in-process InputSource fed by transports and tests.
type ChanSource struct {
	ch     chan byte
	closed chan struct{}
	once   sync.Once
	lines  crlf
}

func NewChanSource(buffer int) *ChanSource {
	if buffer <= 0 {
		buffer = defaultSourceBuffer
	}
	return &ChanSource{
		ch:     make(chan byte, buffer),
		closed: make(chan struct{}),
	}
}

// Feed queues raw text and returns how many bytes were accepted.
// Bytes that do not fit the buffer are dropped.
func (s *ChanSource) Feed(text string) int {
	for i := 0; i < len(text); i++ {
		select {
		case <-s.closed:
			return i
		default:
		}
		select {
		case s.ch <- text[i]:
		default:
			return i
		}
	}
	return len(text)
}

// FeedLine queues text as one complete line. Text past the first line break is
// ignored, and text that does not fit is truncated so the terminator always
// lands. It returns how many bytes of text were accepted, or -1 when even the
// terminator did not fit.
func (s *ChanSource) FeedLine(text string) int {
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		text = text[:i]
	}
	room := cap(s.ch) - len(s.ch) - 1
	if room < 0 {
		return -1
	}
	if len(text) > room {
		text = text[:room]
	}
	return s.Feed(text+"\n") - 1
}

func (s *ChanSource) NextByte(ctx context.Context) (byte, error) {
	for {
		select {
		case b := <-s.ch:
			if s.lines.skip(b) {
				continue
			}
			return b, nil
		case <-s.closed:
			return 0, ErrSourceClosed
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

func (s *ChanSource) Discard() {
	for {
		select {
		case b := <-s.ch:
			s.lines.skip(b)
		default:
			return
		}
	}
}

// Close makes every pending and future read fail.
func (s *ChanSource) Close() {
	s.once.Do(func() { close(s.closed) })
}

// ReaderSource adapts a blocking io.Reader (a terminal, a pipe) into an InputSource.
// A single pump goroutine owned by the source performs the blocking reads, so
// collectors never leave a stuck read behind them.
type ReaderSource struct {
	ch        chan byte
	done      chan struct{}
	stop      chan struct{}
	stopOnce  sync.Once
	echo      io.Writer
	interrupt func()
	lines     crlf

	mu  sync.Mutex
	err error
}

type ReaderOption func(*ReaderSource)

// WithEcho writes accepted keystrokes back, for terminals in raw mode.
func WithEcho(w io.Writer) ReaderOption {
	return func(s *ReaderSource) { s.echo = w }
}

// WithInterrupt installs a callback for Ctrl-C (0x03) read from the stream.
func WithInterrupt(fn func()) ReaderOption {
	return func(s *ReaderSource) { s.interrupt = fn }
}

func NewReaderSource(r io.Reader, opts ...ReaderOption) *ReaderSource {
	s := &ReaderSource{
		ch:   make(chan byte, defaultSourceBuffer),
		done: make(chan struct{}),
		stop: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.pump(r)
	return s
}

func (s *ReaderSource) pump(r io.Reader) {
	defer close(s.done)
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			if b == 0x03 && s.interrupt != nil {
				s.interrupt()
				continue
			}
			s.echoByte(b)
			select {
			case s.ch <- b:
			case <-s.stop:
				s.setErr(ErrSourceClosed)
				return
			}
		}
		if err != nil {
			s.setErr(err)
			return
		}
	}
}

func (s *ReaderSource) echoByte(b byte) {
	if s.echo == nil {
		return
	}
	switch {
	case b == '\r' || b == '\n':
		_, _ = s.echo.Write([]byte("\r\n"))
	case b == 0x7f || b == '\b':
		_, _ = s.echo.Write([]byte("\b \b"))
	case b >= 0x20 && b != 0x7f:
		_, _ = s.echo.Write([]byte{b})
	}
}

func (s *ReaderSource) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// Err returns the error that stopped the pump, if any.
func (s *ReaderSource) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *ReaderSource) NextByte(ctx context.Context) (byte, error) {
	for {
		b, err := s.next(ctx)
		if err != nil {
			return 0, err
		}
		if !s.lines.skip(b) {
			return b, nil
		}
	}
}

func (s *ReaderSource) next(ctx context.Context) (byte, error) {
	select {
	case b := <-s.ch:
		return b, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-s.done:
		select {
		case b := <-s.ch:
			return b, nil
		default:
		}
		return 0, s.Err()
	}
}

func (s *ReaderSource) Discard() {
	for {
		select {
		case b := <-s.ch:
			s.lines.skip(b)
		default:
			return
		}
	}
}

// Close stops delivering bytes. The underlying reader is not closed.
func (s *ReaderSource) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}
