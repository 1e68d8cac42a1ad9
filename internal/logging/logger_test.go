package logging

import (
	"path/filepath"
	"testing"

	"github.com/modserve/modserve/internal/config"
)

func TestInitLoggerRejectsBadLevel(t *testing.T) {
	_, err := InitLogger(config.GlobalConfig{LogLevel: "chatty"})
	if err == nil {
		t.Fatalf("expected error for unknown log level")
	}
}

func TestInitLoggerWithFileOutput(t *testing.T) {
	dir := t.TempDir()
	logger, err := InitLogger(config.GlobalConfig{
		LogLevel:    "debug",
		LogFilePath: filepath.Join(dir, "logs", "modserve.log"),
		LogMaxSize:  1,
	})
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	logger.Debug("boot")
}

func TestRequestFields(t *testing.T) {
	fields := RequestFields("module_download", "patient-basic", "req-1")
	if fields["action"] != "module_download" {
		t.Fatalf("unexpected action field: %v", fields["action"])
	}
	if fields["request_key"] != "patient-basic" {
		t.Fatalf("unexpected request_key field: %v", fields["request_key"])
	}
	if fields["request_id"] != "req-1" {
		t.Fatalf("unexpected request_id field: %v", fields["request_id"])
	}

	noID := RequestFields("module_download", "patient-basic", "")
	if _, ok := noID["request_id"]; ok {
		t.Fatalf("empty request id must not be emitted")
	}
}
