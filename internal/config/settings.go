package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	ioutils "github.com/handiism/comic-downloader/internal/io"
)

// DownloadFormat is the image format pages are stored in.
type DownloadFormat string

const (
	FormatWebp DownloadFormat = "webp"
	FormatJpeg DownloadFormat = "jpeg"
)

// ImageFormat maps the download format to the image codec that produces it.
func (f DownloadFormat) ImageFormat() ioutils.ImageFormat {
	return ioutils.ParseImageFormat(string(f))
}

// Extension returns the page file extension, without the dot.
func (f DownloadFormat) Extension() string {
	return f.ImageFormat().Extension()
}

// Settings holds all configuration options.
type Settings struct {
	// Download settings
	DownloadDir                string         `json:"download_dir" env:"DOWNLOAD_DIR"`
	DownloadFormat             DownloadFormat `json:"download_format" env:"DOWNLOAD_FORMAT"`
	ChapterConcurrency         int            `json:"chapter_concurrency" env:"CHAPTER_CONCURRENCY"`
	ChapterDownloadIntervalSec int            `json:"chapter_download_interval_sec" env:"CHAPTER_DOWNLOAD_INTERVAL_SEC"`
	ImgConcurrency             int            `json:"img_concurrency" env:"IMG_CONCURRENCY"`
	ImgDownloadIntervalSec     int            `json:"img_download_interval_sec" env:"IMG_DOWNLOAD_INTERVAL_SEC"`

	// Directory naming
	ComicDirFmt         string `json:"comic_dir_fmt" env:"COMIC_DIR_FMT"`
	ChapterDirFmt       string `json:"chapter_dir_fmt" env:"CHAPTER_DIR_FMT"`
	SeparateChapterType bool   `json:"separate_chapter_type" env:"SEPARATE_CHAPTER_TYPE"`

	// Upstream API
	APIDomain string `json:"api_domain" env:"API_DOMAIN"`
	Token     string `json:"token" env:"TOKEN"`

	// Logging and persistence
	LogLevel         string `json:"log_level" env:"LOG_LEVEL"`
	EnableFileLogger bool   `json:"enable_file_logger" env:"ENABLE_FILE_LOGGER"`
	HistoryPath      string `json:"history_path" env:"HISTORY_PATH"`

	// Control API, disabled when empty
	ListenAddr string `json:"listen_addr" env:"LISTEN_ADDR"`
}

// EnvPrefix prefixes every environment override, e.g. COMIC_IMG_CONCURRENCY.
const EnvPrefix = "COMIC_"

// Dir returns the directory holding the config file, history and logs.
func Dir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "comic-downloader")
	}
	return ".comic-downloader"
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.json")
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	return &Settings{
		DownloadDir:                filepath.Join(homeDir, "Comics"),
		DownloadFormat:             FormatWebp,
		ChapterConcurrency:         3,
		ChapterDownloadIntervalSec: 0,
		ImgConcurrency:             30,
		ImgDownloadIntervalSec:     0,

		ComicDirFmt:         "{comic_title}",
		ChapterDirFmt:       "{group_title}/{order} {chapter_title}",
		SeparateChapterType: false,

		APIDomain: "api.mangacopy.com",

		LogLevel:         "info",
		EnableFileLogger: true,
		HistoryPath:      filepath.Join(Dir(), "history.db"),
	}
}

// Load reads settings from a JSON file.
//
// Keys missing from the file keep their defaults. A missing file yields the
// defaults unchanged.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return settings, nil
}

// LoadWithEnv loads path and then applies COMIC_* environment overrides.
// A .env file in the working directory is read first when present.
func LoadWithEnv(path string) (*Settings, error) {
	settings, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := settings.ApplyEnv(); err != nil {
		return nil, err
	}
	return settings, nil
}

// ApplyEnv overrides settings from COMIC_* environment variables.
func (s *Settings) ApplyEnv() error {
	if err := env.ParseWithOptions(s, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ValidationError reports an unusable setting.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid setting %s: %s", e.Field, e.Reason)
}

// Validate checks that the settings can drive a download.
func (s *Settings) Validate() error {
	var errs []error
	if s.ChapterConcurrency < 1 {
		errs = append(errs, &ValidationError{"chapter_concurrency", "must be at least 1"})
	}
	if s.ImgConcurrency < 1 {
		errs = append(errs, &ValidationError{"img_concurrency", "must be at least 1"})
	}
	if s.ChapterDownloadIntervalSec < 0 {
		errs = append(errs, &ValidationError{"chapter_download_interval_sec", "must not be negative"})
	}
	if s.ImgDownloadIntervalSec < 0 {
		errs = append(errs, &ValidationError{"img_download_interval_sec", "must not be negative"})
	}
	if s.DownloadFormat != FormatWebp && s.DownloadFormat != FormatJpeg {
		errs = append(errs, &ValidationError{"download_format", fmt.Sprintf("%q is not webp or jpeg", s.DownloadFormat)})
	}
	if strings.TrimSpace(s.ComicDirFmt) == "" {
		errs = append(errs, &ValidationError{"comic_dir_fmt", "must not be empty"})
	}
	if strings.TrimSpace(s.ChapterDirFmt) == "" {
		errs = append(errs, &ValidationError{"chapter_dir_fmt", "must not be empty"})
	}
	if s.DownloadDir == "" {
		errs = append(errs, &ValidationError{"download_dir", "must not be empty"})
	}
	return errors.Join(errs...)
}
