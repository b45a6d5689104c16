package scan

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

var (
	// ErrScannerUsed is returned when Scan is called twice on one scanner.
	ErrScannerUsed = errors.New("scanner already started; open a new one")

	// ErrNoCode is returned by First when the scanner finishes without a code.
	ErrNoCode = errors.New("no code decoded")
)

// Scanner produces decoded code strings. The sequence is lazy, ends when the
// source is exhausted or ctx is done, and cannot be restarted.
type Scanner interface {
	Scan(ctx context.Context) (<-chan string, error)
}

// LineScanner reads one decoded code per line from a decoder's output.
// Blank lines are skipped.
type LineScanner struct {
	r io.Reader

	mu      sync.Mutex
	started bool
	err     error
}

func NewLineScanner(r io.Reader) *LineScanner {
	return &LineScanner{r: r}
}

func (s *LineScanner) Scan(ctx context.Context) (<-chan string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil, ErrScannerUsed
	}
	s.started = true

	out := make(chan string)
	go s.run(ctx, out)
	return out, nil
}

// Err returns the read error that ended the sequence, if any. It is only
// meaningful after the channel returned by Scan is closed.
func (s *LineScanner) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *LineScanner) run(ctx context.Context, out chan<- string) {
	defer close(out)

	sc := bufio.NewScanner(s.r)
	for sc.Scan() {
		code := strings.TrimSpace(sc.Text())
		if code == "" {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		select {
		case out <- code:
		case <-ctx.Done():
			return
		}
	}
	if err := sc.Err(); err != nil {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
	}
}

// First starts sc and returns the first decoded code, ending the scan.
func First(ctx context.Context, sc Scanner) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	codes, err := sc.Scan(ctx)
	if err != nil {
		return "", err
	}
	select {
	case code, ok := <-codes:
		if !ok {
			if ls, isLine := sc.(*LineScanner); isLine && ls.Err() != nil {
				return "", ls.Err()
			}
			return "", ErrNoCode
		}
		return code, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
