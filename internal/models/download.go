// Package models downloads and installs the speech and detection models.
package models

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/chaz8081/saywatch/internal/config"
)

const (
	whisperModelURL  = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base.bin"
	whisperModelName = "ggml-base.bin"
	yoloReleaseURL   = "https://github.com/ultralytics/assets/releases/download/v8.3.0/"
)

// Download fetches url into dest, writing to a temp file first and renaming
// it into place once the body has been read completely. Progress goes to out
// when it is non-nil.
func Download(ctx context.Context, url, dest string, out io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("models: building request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("models: downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("models: download failed: HTTP %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("models: creating models dir: %w", err)
	}

	tmpPath := dest + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("models: creating temp file: %w", err)
	}

	var w io.Writer = f
	if out != nil {
		w = &progressWriter{writer: f, out: out, total: resp.ContentLength, label: filepath.Base(dest)}
	}

	written, err := io.Copy(w, resp.Body)
	f.Close()
	if err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("models: writing %s: %w", filepath.Base(dest), err)
	}
	if resp.ContentLength > 0 && written != resp.ContentLength {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("models: short download: got %d of %d bytes", written, resp.ContentLength)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("models: moving model file: %w", err)
	}
	return written, nil
}

// DownloadWhisper downloads the multilingual whisper base model into dir.
func DownloadWhisper(ctx context.Context, dir string) (string, error) {
	return fetch(ctx, whisperModelURL, filepath.Join(dir, whisperModelName))
}

// DownloadYOLO downloads pretrained YOLO weights such as "yolo11n.pt" into dir.
func DownloadYOLO(ctx context.Context, name, dir string) (string, error) {
	if filepath.Ext(name) != ".pt" || filepath.Base(name) != name {
		return "", fmt.Errorf("models: %q is not a weights file name like yolo11n.pt", name)
	}
	return fetch(ctx, yoloReleaseURL+name, filepath.Join(dir, name))
}

func fetch(ctx context.Context, url, dest string) (string, error) {
	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		fmt.Printf("  Model already exists: %s (%.1f MB)\n", dest, float64(info.Size())/(1024*1024))
		return dest, nil
	}

	fmt.Printf("  URL: %s\n", url)
	fmt.Printf("  Destination: %s\n", dest)

	written, err := Download(ctx, url, dest, os.Stdout)
	if err != nil {
		return "", err
	}
	fmt.Printf("\n  Downloaded %.1f MB\n", float64(written)/(1024*1024))
	return dest, nil
}

// Install copies an exported model (a file, or a directory such as an
// .mlpackage) into dir and returns the new path.
func Install(src, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("models: creating models dir: %w", err)
	}
	dst := filepath.Join(dir, filepath.Base(src))
	if err := copyFileOrDir(src, dst); err != nil {
		return "", fmt.Errorf("models: installing %s: %w", filepath.Base(src), err)
	}
	return dst, nil
}

// copyFileOrDir copies a file or directory recursively.
func copyFileOrDir(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	if info.IsDir() {
		return copyDir(src, dst)
	}
	return copyFile(src, dst)
}

func copyDir(src, dst string) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := copyFileOrDir(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// progressWriter wraps an io.Writer and prints download progress to out.
type progressWriter struct {
	writer  io.Writer
	out     io.Writer
	total   int64
	written int64
	label   string
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.writer.Write(p)
	pw.written += int64(n)
	if pw.total > 0 {
		pct := float64(pw.written) / float64(pw.total) * 100
		fmt.Fprintf(pw.out, "\r  %s: %.1f MB / %.1f MB (%.0f%%)",
			pw.label,
			float64(pw.written)/(1024*1024),
			float64(pw.total)/(1024*1024),
			pct)
	} else {
		fmt.Fprintf(pw.out, "\r  %s: %.1f MB downloaded",
			pw.label,
			float64(pw.written)/(1024*1024))
	}
	return n, err
}

// RunInteractiveDownload prompts for which models to fetch and downloads
// them into the default models directory.
func RunInteractiveDownload(ctx context.Context, in io.Reader) error {
	dir := config.DefaultModelsDir()

	fmt.Println("=== Model Download ===")
	fmt.Println()
	fmt.Printf("Models will be downloaded to: %s\n", dir)
	fmt.Println()
	fmt.Println("Which models would you like to download?")
	fmt.Println("  [1] Whisper (base, ~142 MB) - speech transcription")
	fmt.Println("  [2] YOLO11 nano weights (~6 MB) - export to ONNX with yolo-export")
	fmt.Println("  [3] Both")
	fmt.Println()
	fmt.Print("Choice [1/2/3]: ")

	choice, _ := bufio.NewReader(in).ReadString('\n')
	choice = strings.TrimSpace(choice)

	fmt.Println()

	switch choice {
	case "1":
		fmt.Println("Downloading Whisper model...")
		_, err := DownloadWhisper(ctx, dir)
		return err
	case "2":
		fmt.Println("Downloading YOLO weights...")
		return downloadYOLOWithHint(ctx, dir)
	case "3":
		fmt.Println("[1/2] Whisper model:")
		if _, err := DownloadWhisper(ctx, dir); err != nil {
			return fmt.Errorf("whisper download failed: %w", err)
		}
		fmt.Println()
		fmt.Println("[2/2] YOLO weights:")
		if err := downloadYOLOWithHint(ctx, dir); err != nil {
			return fmt.Errorf("yolo download failed: %w", err)
		}
		fmt.Println()
		fmt.Println("All models downloaded successfully!")
		return nil
	default:
		return fmt.Errorf("invalid choice: %q (expected 1, 2, or 3)", choice)
	}
}

func downloadYOLOWithHint(ctx context.Context, dir string) error {
	path, err := DownloadYOLO(ctx, "yolo11n.pt", dir)
	if err != nil {
		return err
	}
	fmt.Printf("  Convert it for the detector with:\n    yolo-export -model %s -format onnx -int8=false -nms=false -imgsz 640 -install\n", path)
	return nil
}
