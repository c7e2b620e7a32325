package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	logger, err := newLogger(&out, "warn", "json")
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "key", "value")
	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), `"level":"WARN"`)
	assert.Contains(t, out.String(), `"key":"value"`)

	out.Reset()
	logger, err = newLogger(&out, "DEBUG", "TEXT")
	require.NoError(t, err)
	logger.Debug("detail")
	assert.Contains(t, out.String(), "level=DEBUG msg=detail")

	_, err = newLogger(&out, "loud", "text")
	require.Error(t, err)
	_, err = newLogger(&out, "info", "xml")
	require.Error(t, err)
}

func TestBuildCommand(t *testing.T) {
	dir := t.TempDir()
	contentDir := filepath.Join(dir, "content")
	outputDir := filepath.Join(dir, "public")
	writeFile(t, filepath.Join(contentDir, "site.yaml"), "name: Jr Blog\n")
	writeFile(t, filepath.Join(contentDir, "posts", "hello.md"), "---\ntitle: Hello\ndate: 2024-05-01\n---\nHello there.\n")
	writeFile(t, filepath.Join(contentDir, "pages", "about.md"), "---\ntitle: About\n---\nAbout us.\n")
	writeFile(t, filepath.Join(dir, "theme", "style.css"), "body{}")
	configPath := filepath.Join(dir, "jrblog.yaml")
	writeFile(t, configPath, `site:
  base_url: http://example.com
theme:
  fonts: "off"
  asset_dir: `+filepath.Join(dir, "theme")+`
content:
  dir: `+contentDir+`
  output_dir: `+filepath.Join(dir, "unused")+`
`)

	var stdout, stderr bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"build", "--config", configPath, "--output", outputDir, "--log-level", "error"})
	require.NoError(t, cmd.ExecuteContext(context.Background()), stderr.String())

	assert.Equal(t, "Wrote 5 files to "+outputDir+"\n", stdout.String())
	for _, file := range []string{"index.html", "404.html", "posts/hello/index.html", "about/index.html", "feed.xml", "theme/style.css"} {
		assert.FileExists(t, filepath.Join(outputDir, filepath.FromSlash(file)))
	}
	assert.NoDirExists(t, filepath.Join(dir, "unused"))
}

func TestBuildCommandBadConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "jrblog.yaml")
	writeFile(t, configPath, "theme:\n  fonts: sometimes\n")

	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"build", "--config", configPath})
	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "theme.fonts")
}

func TestWatcherReloads(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	reloads := make(chan struct{}, 10)
	w, err := newWatcher([]string{dir}, func(context.Context) error {
		reloads <- struct{}{}
		return nil
	})
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	w.delay = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Run(ctx)

	wait := func() {
		t.Helper()
		select {
		case <-reloads:
		case <-time.After(5 * time.Second):
			t.Fatal("no reload")
		}
	}

	writeFile(t, filepath.Join(dir, "site.yaml"), "name: Changed\n")
	wait()

	require.NoError(t, os.Mkdir(filepath.Join(dir, "posts"), 0o755))
	wait()
	// give the watcher a moment to add the new directory
	time.Sleep(100 * time.Millisecond)
	for len(reloads) > 0 {
		<-reloads
	}
	writeFile(t, filepath.Join(dir, "posts", "new.md"), "---\ntitle: New\n---\n")
	wait()
}
