package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Transcribe TranscribeConfig `yaml:"transcribe"`
	Match      MatchConfig      `yaml:"match"`
	Detect     DetectConfig     `yaml:"detect"`
	Camera     CameraConfig     `yaml:"camera"`
	Listen     ListenConfig     `yaml:"listen"`
	Export     ExportConfig     `yaml:"export"`
	LogLevel   string           `yaml:"log_level"`
}

// TranscribeConfig selects the speech-to-text backend and its model.
type TranscribeConfig struct {
	Backend     string `yaml:"backend"`      // "whisper", "faster-whisper" or "openai"
	ModelPath   string `yaml:"model_path"`   // whisper.cpp ggml model
	Model       string `yaml:"model"`        // faster-whisper model size or OpenAI model name
	ComputeType string `yaml:"compute_type"` // faster-whisper only
	Language    string `yaml:"language"`     // empty means auto-detect
	AudioPath   string `yaml:"audio_path"`
	Python      string `yaml:"python"`
}

// MatchConfig controls how spoken words are matched against class names.
type MatchConfig struct {
	Tokenizer     string `yaml:"tokenizer"` // "word" or "whitespace"
	Strategy      string `yaml:"strategy"`  // "first" or "last"
	CaseSensitive bool   `yaml:"case_sensitive"`
	Highlight     string `yaml:"highlight"` // "one" (the matched class) or "all" (every spoken class)
}

// DetectConfig holds object detector settings.
type DetectConfig struct {
	ModelPath   string  `yaml:"model_path"`
	NamesPath   string  `yaml:"names_path"`
	LibraryPath string  `yaml:"onnxruntime_library"`
	InputSize   int     `yaml:"input_size"`
	Confidence  float32 `yaml:"confidence"`
	IoU         float32 `yaml:"iou"`
}

// CameraConfig holds frame source and preview window settings.
type CameraConfig struct {
	Source        string `yaml:"source"` // "webcam" or "screen"
	Device        int    `yaml:"device"`
	WindowTitle   string `yaml:"window_title"`
	QuitKey       string `yaml:"quit_key"`
	ToggleKey     string `yaml:"toggle_key"`      // shows or hides the boxes
	NextCameraKey string `yaml:"next_camera_key"` // switches to the next webcam
}

// ListenConfig holds the push-to-talk settings used to change the active class live.
type ListenConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Keys       []string `yaml:"keys"`
	Mode       string   `yaml:"mode"` // "hold" or "toggle"
	SampleRate uint32   `yaml:"sample_rate"`
	Channels   uint32   `yaml:"channels"`
}

// ExportConfig holds model export settings.
type ExportConfig struct {
	Command string   `yaml:"command"`
	Family  string   `yaml:"family"`
	Model   string   `yaml:"model"`
	Sizes   []string `yaml:"sizes"`
	Format  string   `yaml:"format"`
	Int8    bool     `yaml:"int8"`
	NMS     bool     `yaml:"nms"`
	ImgSize int      `yaml:"imgsz"`
	Dir     string   `yaml:"dir"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "saywatch")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DefaultModelsDir returns the directory downloaded models are stored in.
func DefaultModelsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "models"
	}
	return filepath.Join(home, ".local", "share", "saywatch", "models")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Transcribe: TranscribeConfig{
			Backend:     "whisper",
			ModelPath:   filepath.Join(DefaultModelsDir(), "ggml-base.bin"),
			Model:       "base",
			ComputeType: "float32",
			AudioPath:   "./Recording.m4a",
			Python:      "python3",
		},
		Match: MatchConfig{
			Tokenizer:     "word",
			Strategy:      "first",
			CaseSensitive: true,
			Highlight:     "one",
		},
		Detect: DetectConfig{
			ModelPath:  "yolo11n.onnx",
			InputSize:  640,
			Confidence: 0.25,
			IoU:        0.45,
		},
		Camera: CameraConfig{
			Source:        "webcam",
			Device:        0,
			WindowTitle:   "YOLO Camera Feed",
			QuitKey:       "q",
			ToggleKey:     "b",
			NextCameraKey: "c",
		},
		Listen: ListenConfig{
			Keys:       []string{"ctrl", "shift", "r"},
			Mode:       "hold",
			SampleRate: 16000,
			Channels:   1,
		},
		Export: ExportConfig{
			Command: "yolo",
			Family:  "yolo11",
			Model:   "yolo11m.pt",
			Format:  "coreml",
			Int8:    true,
			NMS:     true,
			ImgSize: 1280,
		},
		LogLevel: "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in paths is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Transcribe.ModelPath = expandTilde(cfg.Transcribe.ModelPath)
	cfg.Transcribe.AudioPath = expandTilde(cfg.Transcribe.AudioPath)
	cfg.Detect.ModelPath = expandTilde(cfg.Detect.ModelPath)
	cfg.Detect.NamesPath = expandTilde(cfg.Detect.NamesPath)
	cfg.Detect.LibraryPath = expandTilde(cfg.Detect.LibraryPath)
	cfg.Export.Dir = expandTilde(cfg.Export.Dir)

	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	switch c.Transcribe.Backend {
	case "whisper":
		if c.Transcribe.ModelPath == "" {
			return errors.New("transcribe.model_path must not be empty for the whisper backend")
		}
	case "faster-whisper", "openai":
		if c.Transcribe.Model == "" {
			return fmt.Errorf("transcribe.model must not be empty for the %s backend", c.Transcribe.Backend)
		}
	default:
		return fmt.Errorf("transcribe.backend must be whisper, faster-whisper, or openai, got %q", c.Transcribe.Backend)
	}

	switch c.Match.Tokenizer {
	case "word", "whitespace":
	default:
		return fmt.Errorf("match.tokenizer must be \"word\" or \"whitespace\", got %q", c.Match.Tokenizer)
	}

	switch c.Match.Strategy {
	case "first", "last":
	default:
		return fmt.Errorf("match.strategy must be \"first\" or \"last\", got %q", c.Match.Strategy)
	}

	switch c.Match.Highlight {
	case "one", "all":
	default:
		return fmt.Errorf("match.highlight must be \"one\" or \"all\", got %q", c.Match.Highlight)
	}

	if c.Detect.ModelPath == "" {
		return errors.New("detect.model_path must not be empty")
	}
	if c.Detect.InputSize <= 0 || c.Detect.InputSize%32 != 0 {
		return fmt.Errorf("detect.input_size must be a positive multiple of 32, got %d", c.Detect.InputSize)
	}
	if c.Detect.Confidence < 0 || c.Detect.Confidence > 1 {
		return fmt.Errorf("detect.confidence must be within [0, 1], got %v", c.Detect.Confidence)
	}
	if c.Detect.IoU <= 0 || c.Detect.IoU > 1 {
		return fmt.Errorf("detect.iou must be within (0, 1], got %v", c.Detect.IoU)
	}

	switch c.Camera.Source {
	case "webcam", "screen":
	default:
		return fmt.Errorf("camera.source must be \"webcam\" or \"screen\", got %q", c.Camera.Source)
	}
	if c.Camera.Device < 0 {
		return fmt.Errorf("camera.device must be >= 0, got %d", c.Camera.Device)
	}
	keys := map[string]string{}
	for _, k := range []struct{ field, key string }{
		{"camera.quit_key", c.Camera.QuitKey},
		{"camera.toggle_key", c.Camera.ToggleKey},
		{"camera.next_camera_key", c.Camera.NextCameraKey},
	} {
		if !isWindowKey(k.key) {
			return fmt.Errorf("%s must be a single printable ASCII character, got %q", k.field, k.key)
		}
		if other, dup := keys[k.key]; dup {
			return fmt.Errorf("%s and %s are both bound to %q", other, k.field, k.key)
		}
		keys[k.key] = k.field
	}

	if c.Listen.Enabled {
		if len(c.Listen.Keys) == 0 {
			return errors.New("listen.keys must not be empty")
		}
		switch c.Listen.Mode {
		case "hold", "toggle":
		default:
			return fmt.Errorf("listen.mode must be \"hold\" or \"toggle\", got %q", c.Listen.Mode)
		}
		if c.Listen.SampleRate == 0 {
			return errors.New("listen.sample_rate must be > 0")
		}
		if c.Listen.Channels == 0 {
			return errors.New("listen.channels must be > 0")
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// ValidateExport checks the export section. It is separate from Validate
// because the exporter does not need the demo settings to be usable.
func (c *Config) ValidateExport() error {
	if c.Export.Command == "" {
		return errors.New("export.command must not be empty")
	}
	if len(c.Export.Sizes) == 0 && c.Export.Model == "" {
		return errors.New("export.model must not be empty when export.sizes is empty")
	}
	if len(c.Export.Sizes) > 0 && c.Export.Family == "" {
		return errors.New("export.family must not be empty when export.sizes is set")
	}
	for _, s := range c.Export.Sizes {
		switch s {
		case "n", "s", "m", "l", "x":
		default:
			return fmt.Errorf("export.sizes entries must be one of n, s, m, l, x, got %q", s)
		}
	}
	if c.Export.Format == "" {
		return errors.New("export.format must not be empty")
	}
	if c.Export.ImgSize < 0 {
		return fmt.Errorf("export.imgsz must be >= 0, got %d", c.Export.ImgSize)
	}
	return nil
}

// ParseLogLevel maps a log_level string to a slog.Level. Unknown values map to info.
func ParseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const defaultHeader = `# saywatch configuration
# Generated with default values. Edit and restart to apply.
`

// WriteDefault writes the default config to DefaultConfigPath. It returns
// ("", nil) without touching anything if a config file already exists.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return "", nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("encoding default config: %w", err)
	}

	if err := os.WriteFile(path, append([]byte(defaultHeader), data...), 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}

// isWindowKey reports whether s is one printable ASCII character. The
// preview window reports key presses as single bytes.
func isWindowKey(s string) bool {
	return len(s) == 1 && s[0] > ' ' && s[0] < 0x7f
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
