// Package logsink provides the diagnostic logging service used by the
// processing pipeline.
//
// The service is an explicitly constructed instance passed to the components
// that need it; there is no package-level singleton. Records fan out to every
// registered sink. Sink failures are swallowed: diagnostics must never block
// or fail the main pipeline.
package logsink

import (
	"fmt"
	"log"
	"sync"
)

// Severity classifies a diagnostic record.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
)

// String returns the canonical severity label.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "DEBUG"
	case SeverityInfo:
		return "INFO"
	case SeverityWarn:
		return "WARN"
	case SeverityError:
		return "ERROR"
	default:
		return fmt.Sprintf("SEVERITY(%d)", int(s))
	}
}

// Record is one diagnostic event.
type Record struct {
	Component string
	Severity  Severity
	Message   string
}

// Sink receives diagnostic records. Implementations must tolerate concurrent
// Write calls. A non-nil error from Write is ignored by the service.
type Sink interface {
	Write(Record) error
}

// Service fans records out to an ordered collection of sinks. No ordering is
// guaranteed between sinks beyond the registration order of the dispatch
// loop itself.
type Service struct {
	mu     sync.RWMutex
	sinks  []Sink
	closed bool
}

// NewService creates a logging service with the given sinks.
func NewService(sinks ...Sink) *Service {
	return &Service{sinks: sinks}
}

// AddSink registers an additional sink. Records written after AddSink returns
// are delivered to the new sink as well.
func (s *Service) AddSink(sink Sink) {
	if sink == nil {
		return
	}
	s.mu.Lock()
	s.sinks = append(s.sinks, sink)
	s.mu.Unlock()
}

// Write delivers the record to every sink. Individual sink errors are
// swallowed. Writes after Close are dropped.
func (s *Service) Write(rec Record) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	for _, sink := range s.sinks {
		_ = sink.Write(rec)
	}
}

// Infof writes a formatted info record for the given component.
func (s *Service) Infof(component, format string, v ...any) {
	s.Write(Record{Component: component, Severity: SeverityInfo, Message: fmt.Sprintf(format, v...)})
}

// Warnf writes a formatted warning record for the given component.
func (s *Service) Warnf(component, format string, v ...any) {
	s.Write(Record{Component: component, Severity: SeverityWarn, Message: fmt.Sprintf(format, v...)})
}

// Errorf writes a formatted error record for the given component.
func (s *Service) Errorf(component, format string, v ...any) {
	s.Write(Record{Component: component, Severity: SeverityError, Message: fmt.Sprintf(format, v...)})
}

// Close stops the service. Subsequent writes are no-ops. Close is idempotent.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// StdSink writes records through the standard library logger.
type StdSink struct {
	// Logf defaults to log.Printf; tests can redirect or mute it.
	Logf func(format string, v ...any)
}

// NewStdSink returns a sink backed by log.Printf.
func NewStdSink() *StdSink {
	return &StdSink{Logf: log.Printf}
}

// Write formats the record as "[SEVERITY] component: message".
func (s *StdSink) Write(rec Record) error {
	logf := s.Logf
	if logf == nil {
		logf = log.Printf
	}
	logf("[%s] %s: %s", rec.Severity, rec.Component, rec.Message)
	return nil
}
