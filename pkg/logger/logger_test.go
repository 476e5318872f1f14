package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNewLogger_Success(t *testing.T) {
	logger, err := New("test-service", "info", true)
	assert.NoError(t, err)
	assert.NotNil(t, logger)
	_, ok := interface{}(logger).(*zap.Logger)
	assert.True(t, ok)
	assert.NotPanics(t, func() {
		logger.Info("Logger initialized successfully")
	})
}

func TestNewLogger_IndependentInstances(t *testing.T) {
	logger1, err1 := New("svc1", "info", true)
	logger2, err2 := New("svc2", "debug", false)

	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.NotNil(t, logger1)
	assert.NotNil(t, logger2)

	assert.NotEqual(t, logger1, logger2)
}

func TestNewLogger_InvalidLevelErrors(t *testing.T) {
	_, err := New("svc", "not-a-level", true)
	assert.Error(t, err)
}
