package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	require.Equal(t, DefaultSettings(), settings)
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"img_concurrency": 5, "download_format": "jpeg"}`), 0644))

	settings, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 5, settings.ImgConcurrency)
	require.Equal(t, FormatJpeg, settings.DownloadFormat)
	require.Equal(t, 3, settings.ChapterConcurrency)
	require.Equal(t, "{comic_title}", settings.ComicDirFmt)
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	settings := DefaultSettings()
	settings.ChapterDownloadIntervalSec = 7
	settings.SeparateChapterType = true

	require.NoError(t, settings.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings, loaded)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("COMIC_IMG_CONCURRENCY", "12")
	t.Setenv("COMIC_DOWNLOAD_FORMAT", "jpeg")
	t.Setenv("COMIC_SEPARATE_CHAPTER_TYPE", "true")

	settings := DefaultSettings()
	require.NoError(t, settings.ApplyEnv())
	require.Equal(t, 12, settings.ImgConcurrency)
	require.Equal(t, FormatJpeg, settings.DownloadFormat)
	require.True(t, settings.SeparateChapterType)
	require.Equal(t, 3, settings.ChapterConcurrency)
}

func TestApplyEnv_BadValue(t *testing.T) {
	t.Setenv("COMIC_CHAPTER_CONCURRENCY", "many")
	require.Error(t, DefaultSettings().ApplyEnv())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Settings)
		field  string
	}{
		{"defaults are valid", func(s *Settings) {}, ""},
		{"zero chapter concurrency", func(s *Settings) { s.ChapterConcurrency = 0 }, "chapter_concurrency"},
		{"zero img concurrency", func(s *Settings) { s.ImgConcurrency = 0 }, "img_concurrency"},
		{"negative interval", func(s *Settings) { s.ImgDownloadIntervalSec = -1 }, "img_download_interval_sec"},
		{"png format", func(s *Settings) { s.DownloadFormat = "png" }, "download_format"},
		{"empty chapter fmt", func(s *Settings) { s.ChapterDirFmt = " " }, "chapter_dir_fmt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(s)
			err := s.Validate()
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestDownloadFormat_Extension(t *testing.T) {
	require.Equal(t, "webp", FormatWebp.Extension())
	require.Equal(t, "jpg", FormatJpeg.Extension())
}
