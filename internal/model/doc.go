// Package model defines the core data structures used throughout
// the comic-downloader application.
//
// # Comic
//
// Comic holds a comic's metadata and its chapters, grouped by group path word:
//
//	comic.ResolveDirs(downloadDir, settings.ComicDirFmt, settings.ChapterDirFmt, false)
//	fmt.Println(comic.ComicDownloadDir) // Where the comic lives
//
// # ChapterInfo
//
// ChapterInfo is a single chapter. Its ChapterDownloadDir is the committed
// location; StagingDir is where pages accumulate until the chapter is complete:
//
//	chapter, ok := comic.Chapter(uuid)
//	staging, err := chapter.StagingDir()
//
// # Directory Templates
//
// Templates are "/" separated and use {name} or {name:spec} placeholders:
//
//	"{comic_title}"
//	"{group_title}/{order:0>4} {chapter_title}"
//
// Available placeholders: {comic_uuid}, {comic_path_word}, {comic_title},
// {author}, {comic_status}, {group_path_word}, {group_title}, {chapter_uuid},
// {chapter_title}, {order}
//
// # Metadata
//
// Comics and chapters persist themselves as metadata.json and
// chapter_metadata.json. LoadComicMetadata, MarkDownloaded and ScanLibrary
// read them back to tell which chapters are already on disk.
package model
