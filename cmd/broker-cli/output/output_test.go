package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(f func()) string {
	r, w, err := os.Pipe()
	if err != nil {
		panic(err)
	}

	stdout := os.Stdout
	defer func() { os.Stdout = stdout }()
	os.Stdout = w

	f()

	w.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		panic(err)
	}
	return string(out)
}

func buildExpectedString(title, colorCode, message string) string {
	return fmt.Sprintf("%s%s[%s]%s %s%s%s\n",
		colorCode, bold, title, reset, colorCode, message, reset,
	)
}

func TestPrintFunctions(t *testing.T) {
	const testMsg = "Test message content"

	tests := []struct {
		name          string
		callFunc      func(msg string)
		expectedTitle string
		expectedColor string
	}{
		{"Info", Info, "INFO", blue},
		{"Warn", Warn, "WARN", yellow},
		{"Error", Error, "ERROR", red},
		{"Success", Success, "SUCCESS", green},
		{"Debug", Debug, "DEBUG", cyan},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captured := captureOutput(func() { tt.callFunc(testMsg) })
			expected := buildExpectedString(tt.expectedTitle, tt.expectedColor, testMsg)
			assert.Equal(t, expected, captured)
			assert.True(t, strings.Contains(captured, testMsg))
			assert.True(t, strings.Contains(captured, fmt.Sprintf("[%s]", tt.expectedTitle)))
		})
	}
}

func TestDim(t *testing.T) {
	const testMsg = "Dim message content"
	captured := captureOutput(func() { Dim(testMsg) })
	expected := fmt.Sprintf("%s%s%s\n", grey, testMsg, reset)
	assert.Equal(t, expected, captured)
}

func TestBytes(t *testing.T) {
	assert.Equal(t, "1.0 kB", Bytes(1000))
}
