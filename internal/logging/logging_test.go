package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewWithOutput(t *testing.T) {
	var buf bytes.Buffer

	log := NewWithOutput("debug", &buf)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log.WithField("car_id", "abc").Debug("loaded car")
	assert.Contains(t, buf.String(), "car_id=abc")
}

func TestNewWithOutputInvalidLevel(t *testing.T) {
	var buf bytes.Buffer

	log := NewWithOutput("loud", &buf)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.Contains(t, buf.String(), "invalid log level")
}
