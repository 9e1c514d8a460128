package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveLogFilePathFallsBackToDefaultDir(t *testing.T) {
	workDir := t.TempDir()
	previousWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("get wd failed: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(previousWD)
	})
	if err := os.Chdir(workDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}

	resolved, err := resolveLogFilePath(Options{})
	if err != nil {
		t.Fatalf("resolve default log path failed: %v", err)
	}

	// macOS 下 TempDir 带符号链接，先归一化再比较
	realWorkDir, err := filepath.EvalSymlinks(workDir)
	if err != nil {
		t.Fatalf("resolve work dir symlink failed: %v", err)
	}
	realResolvedDir, err := filepath.EvalSymlinks(filepath.Dir(resolved))
	if err != nil {
		t.Fatalf("resolve log dir symlink failed: %v", err)
	}
	if realResolvedDir != filepath.Join(realWorkDir, defaultLogDirName) {
		t.Fatalf("unexpected log dir: %s", realResolvedDir)
	}
	if filepath.Base(resolved) != defaultLogFilename {
		t.Fatalf("unexpected log filename: %s", filepath.Base(resolved))
	}
	if _, err := os.Stat(filepath.Dir(resolved)); err != nil {
		t.Fatalf("expected log dir to be created: %v", err)
	}
}

func TestNewReleaseWritesToConfiguredFile(t *testing.T) {
	logDir := t.TempDir()
	log := New("release", Options{
		Dir:      logDir,
		Filename: "buildhub-api.log",
	})
	log.Sugar().Infow("order_placed", "order_no", "BH20260825093000AB12CD")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(logDir, "buildhub-api.log"))
	if err != nil {
		t.Fatalf("read log file failed: %v", err)
	}
	if !strings.Contains(string(content), "order_placed") || !strings.Contains(string(content), "BH20260825093000AB12CD") {
		t.Fatalf("expected structured event in log file, got=%s", string(content))
	}
}

func TestNewDebugSkipsFileOutput(t *testing.T) {
	logDir := t.TempDir()
	log := New("debug", Options{
		Dir:      logDir,
		Filename: "buildhub-debug.log",
	})
	log.Sugar().Infow("delivery_assigned", "agent_id", 3)
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(logDir, "buildhub-debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode should not create log file")
	}
}
