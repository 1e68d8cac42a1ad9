// Package editor opens a module's backing file in a local editor. It backs
// the edit route and stays out of the packaging pipeline entirely.
package editor

import (
	"errors"
	"os"
	"os/exec"
	"runtime"
)

// Launcher 打开模块清单文件；接口化便于在测试中注入假实现。
type Launcher interface {
	Launch(path string) error
}

// CommandLauncher starts the configured editor command; when none is
// configured it falls back to $EDITOR and then the platform opener.
type CommandLauncher struct {
	command string
	run     func(name string, args ...string) error
}

// NewCommandLauncher 创建 Launcher；command 为空时走平台默认打开方式。
func NewCommandLauncher(command string) *CommandLauncher {
	return &CommandLauncher{
		command: command,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Start()
		},
	}
}

// Launch opens path without waiting for the editor to exit.
func (l *CommandLauncher) Launch(path string) error {
	if path == "" {
		return errors.New("module file path is empty")
	}

	command := l.command
	if command == "" {
		command = os.Getenv("EDITOR")
	}
	if command != "" {
		return l.run(command, path)
	}

	switch runtime.GOOS {
	case "darwin":
		return l.run("open", path)
	case "windows":
		return l.run("cmd", "/c", "start", "", path)
	default:
		return l.run("xdg-open", path)
	}
}
