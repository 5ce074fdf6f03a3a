package cc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLogger_WritesAtConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, "debug")

	log.Debugf("hello %s", "world")
	assert.Contains(t, buf.String(), "hello world")
}

func TestNewLogger_SuppressesBelowConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, "warn")

	log.Debugf("should not appear")
	log.Infof("should not appear either")
	assert.Empty(t, buf.String())

	log.Warnf("this should appear")
	assert.Contains(t, buf.String(), "this should appear")
}

func TestNewLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, "nonsense")

	log.Debugf("hidden")
	assert.Empty(t, buf.String())

	log.Infof("visible")
	assert.Contains(t, buf.String(), "visible")
}
