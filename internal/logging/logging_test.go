package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewWithOutput_Level(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  logrus.Level
	}{
		{name: "debug", level: "debug", want: logrus.DebugLevel},
		{name: "upper case warn", level: "WARN", want: logrus.WarnLevel},
		{name: "unknown falls back to info", level: "chatty", want: logrus.InfoLevel},
		{name: "empty falls back to info", level: "", want: logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewWithOutput(&bytes.Buffer{}, tt.level, "text")
			if logger.GetLevel() != tt.want {
				t.Errorf("level = %v, want %v", logger.GetLevel(), tt.want)
			}
		})
	}
}

func TestNewWithOutput_JSONComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(&buf, "info", "json")

	Component(logger, "match-engine").Info("hello")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["component"] != "match-engine" {
		t.Errorf("component = %v, want match-engine", entry["component"])
	}
	if entry["msg"] != "hello" {
		t.Errorf("msg = %v, want hello", entry["msg"])
	}
}

func TestNewWithOutput_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(&buf, "info", "text")
	logger.Debug("hidden")
	logger.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug line should be filtered at info level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("info line should be written")
	}
}
