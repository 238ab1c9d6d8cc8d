package logging

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
)

// LoggingWriter wraps a response writer, and records the status code and
// the size of the response.
type LoggingWriter struct {
	writer http.ResponseWriter
	code   int
	bytes  int64
}

// NewLoggingWriter wraps w. When w is already a LoggingWriter, it is
// returned as is.
func NewLoggingWriter(w http.ResponseWriter) *LoggingWriter {
	if lw, ok := w.(*LoggingWriter); ok {
		return lw
	}

	return &LoggingWriter{writer: w}
}

func (lw *LoggingWriter) Write(data []byte) (count int, err error) {
	if lw.code == 0 {
		lw.code = http.StatusOK
	}

	count, err = lw.writer.Write(data)
	lw.bytes += int64(count)
	return
}

func (lw *LoggingWriter) WriteHeader(code int) {
	lw.writer.WriteHeader(code)
	if lw.code != 0 {
		return
	}

	lw.code = code
}

func (lw *LoggingWriter) Header() http.Header {
	return lw.writer.Header()
}

func (lw *LoggingWriter) Flush() {
	if f, ok := lw.writer.(http.Flusher); ok {
		f.Flush()
	}
}

func (lw *LoggingWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hij, ok := lw.writer.(http.Hijacker)
	if ok {
		return hij.Hijack()
	}

	return nil, nil, fmt.Errorf("could not hijack connection")
}

// Unwrap returns the wrapped writer, used by http.ResponseController.
func (lw *LoggingWriter) Unwrap() http.ResponseWriter { return lw.writer }

// GetCode returns the status code of the response, or 0 when nothing was
// written yet.
func (lw *LoggingWriter) GetCode() int { return lw.code }

// GetBytes returns the number of the body bytes written.
func (lw *LoggingWriter) GetBytes() int64 { return lw.bytes }

// Written tells whether the response header was sent.
func (lw *LoggingWriter) Written() bool { return lw.code != 0 }
