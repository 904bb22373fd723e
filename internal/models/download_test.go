package models

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDownload(t *testing.T) {
	body := strings.Repeat("w", 4096)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "nested", "yolo11n.pt")
	var progress bytes.Buffer

	n, err := Download(context.Background(), srv.URL, dest, &progress)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if n != int64(len(body)) {
		t.Errorf("Download() n = %d, want %d", n, len(body))
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading dest: %v", err)
	}
	if string(got) != body {
		t.Error("downloaded content mismatch")
	}
	if _, err := os.Stat(dest + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should be renamed away")
	}
	if !strings.Contains(progress.String(), "yolo11n.pt") {
		t.Errorf("progress output = %q, want label", progress.String())
	}
}

func TestDownloadHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "model.bin")
	if _, err := Download(context.Background(), srv.URL, dest, nil); err == nil {
		t.Fatal("Download() should fail on 404")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("no file should be left behind on failure")
	}
}

func TestDownloadCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Download(ctx, srv.URL, filepath.Join(t.TempDir(), "m"), nil); err == nil {
		t.Fatal("Download() should fail with a canceled context")
	}
}

func TestDownloadYOLORejectsBadName(t *testing.T) {
	for _, name := range []string{"yolo11n.onnx", "../yolo11n.pt", ""} {
		if _, err := DownloadYOLO(context.Background(), name, t.TempDir()); err == nil {
			t.Errorf("DownloadYOLO(%q) should fail", name)
		}
	}
}

func TestDownloadYOLOExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "yolo11n.pt")
	if err := os.WriteFile(path, []byte("weights"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := DownloadYOLO(context.Background(), "yolo11n.pt", dir)
	if err != nil {
		t.Fatalf("DownloadYOLO() error = %v", err)
	}
	if got != path {
		t.Errorf("DownloadYOLO() = %q, want %q", got, path)
	}
}

func TestRunInteractiveDownloadInvalidChoice(t *testing.T) {
	err := RunInteractiveDownload(context.Background(), strings.NewReader("9\n"))
	if err == nil || !strings.Contains(err.Error(), "invalid choice") {
		t.Fatalf("RunInteractiveDownload() error = %v, want invalid choice", err)
	}
}

func TestInstall(t *testing.T) {
	tmpDir := t.TempDir()

	pkg := filepath.Join(tmpDir, "yolo11m.mlpackage")
	if err := os.MkdirAll(filepath.Join(pkg, "Data"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(pkg, "Data", "model.mlmodel"), []byte("m"), 0o644); err != nil {
		t.Fatal(err)
	}

	dst, err := Install(pkg, filepath.Join(tmpDir, "models"))
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "Data", "model.mlmodel")); err != nil {
		t.Errorf("installed package missing contents: %v", err)
	}
}

func TestCopyFile(t *testing.T) {
	tmpDir := t.TempDir()

	src := filepath.Join(tmpDir, "src.txt")
	dst := filepath.Join(tmpDir, "dst.txt")

	content := []byte("hello world")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := copyFile(src, dst); err != nil {
		t.Fatalf("copyFile() error = %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("reading dst: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("copyFile() content = %q, want %q", got, content)
	}
}

func TestProgressWriter(t *testing.T) {
	var sink, out bytes.Buffer
	pw := &progressWriter{writer: &sink, out: &out, total: 100, label: "test"}

	n, err := pw.Write(make([]byte, 50))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != 50 {
		t.Errorf("Write() n = %d, want 50", n)
	}
	if pw.written != 50 {
		t.Errorf("written = %d, want 50", pw.written)
	}
	if !strings.Contains(out.String(), "50%") {
		t.Errorf("progress = %q, want 50%%", out.String())
	}
}
