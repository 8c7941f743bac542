package logsink

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureSink records every write for inspection.
type captureSink struct {
	mu      sync.Mutex
	records []Record
	err     error
}

func (c *captureSink) Write(rec Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, rec)
	return c.err
}

func (c *captureSink) all() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

func TestServiceFanOut(t *testing.T) {
	a := &captureSink{}
	b := &captureSink{}
	svc := NewService(a, b)

	svc.Infof("planner", "planned %d batches", 5)

	require.Len(t, a.all(), 1)
	require.Len(t, b.all(), 1)
	assert.Equal(t, "planner", a.all()[0].Component)
	assert.Equal(t, SeverityInfo, a.all()[0].Severity)
	assert.Equal(t, "planned 5 batches", a.all()[0].Message)
}

func TestServiceSwallowsSinkErrors(t *testing.T) {
	failing := &captureSink{err: errors.New("disk full")}
	healthy := &captureSink{}
	svc := NewService(failing, healthy)

	// Must not panic or skip later sinks.
	svc.Errorf("kernels", "build failed")

	require.Len(t, healthy.all(), 1)
	assert.Equal(t, SeverityError, healthy.all()[0].Severity)
}

func TestServiceAddSink(t *testing.T) {
	svc := NewService()
	svc.Warnf("engine", "dropped before any sink registered")

	late := &captureSink{}
	svc.AddSink(late)
	svc.AddSink(nil) // ignored
	svc.Warnf("engine", "delivered")

	require.Len(t, late.all(), 1)
	assert.Equal(t, "delivered", late.all()[0].Message)
}

func TestServiceCloseDropsWrites(t *testing.T) {
	sink := &captureSink{}
	svc := NewService(sink)

	svc.Infof("engine", "before close")
	svc.Close()
	svc.Close() // idempotent
	svc.Infof("engine", "after close")

	require.Len(t, sink.all(), 1)
	assert.Equal(t, "before close", sink.all()[0].Message)
}

func TestServiceConcurrentWrites(t *testing.T) {
	sink := &captureSink{}
	svc := NewService(sink)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				svc.Infof("worker", "msg %d/%d", n, j)
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, sink.all(), 200)
}

func TestStdSinkFormat(t *testing.T) {
	var got string
	sink := &StdSink{Logf: func(format string, v ...any) {
		got = fmt.Sprintf(format, v...)
	}}

	err := sink.Write(Record{Component: "aggregator", Severity: SeverityWarn, Message: "count drift"})
	require.NoError(t, err)
	assert.Equal(t, "[WARN] aggregator: count drift", got)
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "DEBUG", SeverityDebug.String())
	assert.Equal(t, "INFO", SeverityInfo.String())
	assert.Equal(t, "WARN", SeverityWarn.String())
	assert.Equal(t, "ERROR", SeverityError.String())
	assert.Equal(t, "SEVERITY(9)", Severity(9).String())
}
