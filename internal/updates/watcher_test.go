package updates

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherBroadcastsOnChange(t *testing.T) {
	root := t.TempDir()

	channel := NewChannel(nil)
	conn := &fakeConn{}
	session := newSession(conn, nil)
	channel.sessions.Store(session, struct{}{})

	watcher, err := NewWatcher(root, channel, nil)
	if err != nil {
		t.Fatalf("start watcher: %v", err)
	}
	defer watcher.Close()

	if err := os.WriteFile(filepath.Join(root, "patient-basic.module.toml"), []byte("Key = \"patient-basic\"\n"), 0o644); err != nil {
		t.Fatalf("write module file: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if frames := conn.sentFrames(); len(frames) > 0 {
			if frames[0] != UpdateMessage {
				t.Fatalf("unexpected broadcast payload: %v", frames)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("no update broadcast observed")
}
