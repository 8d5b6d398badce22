// Package logger wraps http.ResponseWriter to record what a handler sent.
package logger

import "net/http"

// VerdictHeader carries the moderation verdict of a response.
const VerdictHeader = "X-Moderation-Verdict"

type ResponseLogger struct {
	w       http.ResponseWriter
	status  int
	written int
}

func New(w http.ResponseWriter) *ResponseLogger {
	return &ResponseLogger{w: w, status: http.StatusOK}
}

func (l *ResponseLogger) WriteHeader(code int) {
	l.status = code
	l.w.WriteHeader(code)
}

func (l *ResponseLogger) Write(b []byte) (int, error) {
	n, err := l.w.Write(b)
	l.written += n
	return n, err
}

func (l *ResponseLogger) Header() http.Header {
	return l.w.Header()
}

func (l *ResponseLogger) Status() int {
	return l.status
}

// Written returns the number of body bytes sent.
func (l *ResponseLogger) Written() int {
	return l.written
}

// Verdict returns the moderation verdict set by the handler, if any.
func (l *ResponseLogger) Verdict() string {
	return l.w.Header().Get(VerdictHeader)
}
