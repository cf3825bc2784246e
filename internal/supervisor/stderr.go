package supervisor

import (
	"bytes"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// stderrSink receives a process's diagnostic stream. Writes never block and
// never fail; complete lines are logged at debug level and the most recent
// output is retained in a bounded tail for failure reporting.
type stderrSink struct {
	mu      sync.Mutex
	tail    []byte
	maxTail int
	partial bytes.Buffer
	logger  hclog.Logger
}

func newStderrSink(logger hclog.Logger, maxTail int) *stderrSink {
	return &stderrSink{
		maxTail: maxTail,
		logger:  logger,
	}
}

func (s *stderrSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tail = append(s.tail, p...)
	if over := len(s.tail) - s.maxTail; over > 0 {
		s.tail = s.tail[over:]
	}

	s.partial.Write(p)
	for {
		data := s.partial.Bytes()
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimRight(string(data[:idx]), "\r")
		s.partial.Next(idx + 1)
		if line != "" {
			s.logger.Debug(line)
		}
	}

	return len(p), nil
}

// Tail returns the retained diagnostic output.
func (s *stderrSink) Tail() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.TrimSpace(string(s.tail))
}
