package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// useBufferWriters swaps stdOut/stdErr with in-memory buffers for the duration
// of a test, allowing assertions on CLI output without polluting test logs.
func useBufferWriters(t *testing.T) {
	t.Helper()

	outBuf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}

	prevOut := stdOut
	prevErr := stdErr

	stdOut = outBuf
	stdErr = errBuf

	t.Cleanup(func() {
		stdOut = prevOut
		stdErr = prevErr
	})
}

// stdOutBuffer returns the in-use stdout buffer when useBufferWriters is active.
func stdOutBuffer() *bytes.Buffer {
	buf, _ := stdOut.(*bytes.Buffer)
	return buf
}

// stdErrBuffer returns the in-use stderr buffer when useBufferWriters is active.
func stdErrBuffer() *bytes.Buffer {
	buf, _ := stdErr.(*bytes.Buffer)
	return buf
}

// configFixture lays out a minimal runnable tree (config + modules + templates)
// inside a temp dir and returns the config file path.
func configFixture(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	modulesDir := filepath.Join(root, "modules")
	templatesDir := filepath.Join(root, "templates")
	for _, dir := range []string{modulesDir, templatesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("创建目录失败: %v", err)
		}
	}

	manifest := "Key = \"patient-basic\"\nName = \"Patient basic\"\n"
	if err := os.WriteFile(filepath.Join(modulesDir, "patient-basic.module.toml"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("写入模块清单失败: %v", err)
	}
	template := "<html><body>{{.Name}}</body></html>"
	if err := os.WriteFile(filepath.Join(templatesDir, "module.html"), []byte(template), 0o644); err != nil {
		t.Fatalf("写入模板失败: %v", err)
	}

	config := "ModulesPath = \"" + modulesDir + "\"\nTemplatesPath = \"" + templatesDir + "\"\n"
	path := filepath.Join(root, "config.toml")
	if err := os.WriteFile(path, []byte(config), 0o644); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}
	return path
}
