package log

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelsAndKeyValues(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelInfo)
	t.Cleanup(func() { SetLevel(LevelInfo) })

	Debug("hidden", "k", 1)
	Info("refresh done", "feeds", 2, "days", 14)
	Error("fetch failed", errors.New("boom"), "id", "holidays")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `msg="refresh done" feeds=2 days=14`)
	assert.Contains(t, out, `err=boom id=holidays`)

	buf.Reset()
	SetLevel(LevelDebug)
	Debug("visible")
	assert.Contains(t, buf.String(), "level=DEBUG msg=visible")
}

func TestSetOutputWhileLogging(t *testing.T) {
	var wg sync.WaitGroup
	for i := range 4 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 100 {
				Info("tick", "worker", i)
			}
		}()
		go func() {
			defer wg.Done()
			for range 100 {
				SetOutput(io.Discard)
			}
		}()
	}
	wg.Wait()

	var buf bytes.Buffer
	SetOutput(&buf)
	Warn("settled")
	assert.Contains(t, buf.String(), "level=WARN msg=settled")
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"debug":  LevelDebug,
		" WARN ": LevelWarn,
		"error":  LevelError,
		"info":   LevelInfo,
		"":       LevelInfo,
		"chatty": LevelInfo,
	} {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}
