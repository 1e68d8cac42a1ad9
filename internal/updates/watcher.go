package updates

import (
	"io/fs"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// UpdateMessage 是模块文件发生变化时推送给所有会话的文本帧。
const UpdateMessage = "update"

// Watcher 监听模块目录并将文件变化广播到更新通道。默认关闭，仅在配置
// 打开 WatchModules 时启用，保持监听端默认只收不发的行为。
type Watcher struct {
	watcher *fsnotify.Watcher
	channel *Channel
	logger  *logrus.Logger
	done    chan struct{}
}

// NewWatcher 递归注册 root 下的所有目录并启动事件循环。
func NewWatcher(root string, channel *Channel, logger *logrus.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return fsWatcher.Add(path)
		}
		return nil
	})
	if err != nil {
		fsWatcher.Close()
		return nil, err
	}

	w := &Watcher{
		watcher: fsWatcher,
		channel: channel,
		logger:  logger,
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Create) {
				// new directories need their own watch to keep recursion alive
				_ = w.watcher.Add(event.Name)
			}
			if w.logger != nil {
				w.logger.WithFields(logrus.Fields{
					"action": "module_change",
					"path":   event.Name,
					"op":     event.Op.String(),
				}).Debug("broadcasting module update")
			}
			w.channel.Broadcast(UpdateMessage)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.WithFields(logrus.Fields{"action": "module_watch"}).WithError(err).Warn("watcher error")
			}
		}
	}
}

// Close stops the watcher and waits for the event loop to drain.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
