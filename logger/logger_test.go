package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLoggerInTests(t *testing.T) {
	// Under `go test` the constructor returns the no-op implementation.
	log, err := NewLogger("development")
	assert.NoError(t, err)
	assert.IsType(t, &NoOpLogger{}, log)
}

func TestNoOpLoggerMethods(t *testing.T) {
	log := NewNoOpLogger()

	assert.NotPanics(t, func() {
		log.Info("info", "key", "value")
		log.Debug("debug")
		log.Warn("warn", "key", 1)
		log.Error("error", errors.New("boom"))
		log.Fatal("fatal", nil)
	})
}

func TestParseFields(t *testing.T) {
	tests := []struct {
		name     string
		kv       []interface{}
		expected int
	}{
		{name: "pairs", kv: []interface{}{"a", 1, "b", "two"}, expected: 2},
		{name: "odd trailing value dropped", kv: []interface{}{"a", 1, "b"}, expected: 1},
		{name: "non-string key skipped", kv: []interface{}{1, "a", "b", 2}, expected: 1},
		{name: "empty", kv: nil, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := parseFields(tt.kv...)
			assert.Len(t, fields, tt.expected)
		})
	}
}
