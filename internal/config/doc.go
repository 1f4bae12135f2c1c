// Package config provides configuration management for comic-downloader.
//
// This package handles:
//   - Loading and saving settings from JSON files
//   - Default configuration values
//   - COMIC_* environment overrides (and an optional .env file)
//   - Validation of concurrency limits, intervals and formats
//
// # Default Settings
//
//	settings := config.DefaultSettings()
//	// Downloads to ~/Comics/{comic_title}/{group_title}/{order} {chapter_title}
//	// 3 chapters and 30 images in flight, pages stored as webp
//
// # Loading from File
//
//	settings, err := config.LoadWithEnv(config.DefaultPath())
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//	if err := settings.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Environment Overrides
//
// Every setting can be overridden by an environment variable named after
// its JSON key, upper-cased and prefixed with COMIC_:
//
//	COMIC_IMG_CONCURRENCY=10 COMIC_DOWNLOAD_FORMAT=jpeg comic-dl -comic name
package config
