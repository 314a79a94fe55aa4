// monitor.go
package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileMonitor 监控数据目录，数据集文件被创建或写入时触发处理
type FileMonitor struct {
	watchDir string
	target   string // 只关注的文件名，为空时关注目录内所有文件
	watcher  *fsnotify.Watcher
	lastMod  map[string]time.Time
	mu       sync.Mutex
}

func NewFileMonitor(dir, target string) (*FileMonitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	return &FileMonitor{
		watchDir: dir,
		target:   filepath.Base(target),
		watcher:  watcher,
		lastMod:  make(map[string]time.Time),
	}, nil
}

// Close 停止监控
func (m *FileMonitor) Close() error {
	return m.watcher.Close()
}

// Watch 阻塞直到 ctx 结束或监控出错。handler 在当前 goroutine 中调用，
// 同一文件修改时间未变化时不重复触发。
func (m *FileMonitor) Watch(ctx context.Context, handler func(string)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !m.matches(event.Name) {
				continue
			}
			if m.changed(event.Name) {
				handler(event.Name)
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

func (m *FileMonitor) matches(name string) bool {
	return m.target == "" || m.target == "." || filepath.Base(name) == m.target
}

func (m *FileMonitor) changed(name string) bool {
	info, err := os.Stat(name)
	if err != nil || info.IsDir() {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !info.ModTime().After(m.lastMod[name]) {
		return false
	}
	m.lastMod[name] = info.ModTime()
	return true
}
