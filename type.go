package asynclog

import (
	"io"
	"strconv"
	"sync"
	"time"
)

// SourceLocation identifies the call site of a record
type SourceLocation struct {
	File     string
	Line     int
	Function string
}

// String renders file:line:function, omitting the function when unknown
func (s *SourceLocation) String() string {
	if s == nil {
		return ""
	}
	loc := s.File + ":" + strconv.Itoa(s.Line)
	if s.Function != "" {
		loc += ":" + s.Function
	}
	return loc
}

// Record is a single log entry. Its fields are immutable once the record is
// submitted; fanout hands each sink its own copy.
type Record struct {
	Level   Level
	Message string
	Source  *SourceLocation
	Time    time.Time
	Thread  string

	hops int // Sink hops travelled so far
}

// queuedRecord is the payload of a TaskQueue node: the record, its rendered
// bytes and the task completed once the backend has written it
type queuedRecord struct {
	rec  Record
	data []byte
	task *Task
}

// consoleSink is a wrapper around an io.Writer, atomic value type change workaround
type consoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

func (c *consoleSink) write(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.w.Write(p)
	return err
}
