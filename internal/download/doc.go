// Package download runs chapter downloads with pause, resume and cancel.
//
// # Manager
//
// The Manager keeps one Task per chapter uuid. Each task:
//
//  1. Waits for a chapter permit (ChapterConcurrency)
//  2. Saves the comic metadata
//  3. Fetches the page list, cooling down on risk control
//  4. Downloads every page into a hidden staging directory, each page
//     holding an image permit (ImgConcurrency)
//  5. Renames the staging directory to the chapter directory once every
//     page is saved
//  6. Sleeps ChapterDownloadIntervalSec before giving up its permit
//
// # Basic Usage
//
//	manager := download.NewManager(settings, client, func(e download.Event) {
//	    fmt.Println(e.EventType())
//	})
//	go manager.Run(ctx)
//
//	if err := manager.CreateTask(comic, chapterUUID); err != nil {
//	    log.Fatal(err)
//	}
//
// # States
//
// A task starts Pending and moves to Downloading once it holds a chapter
// permit. PauseTask, ResumeTask and CancelTask write Paused, Pending and
// Cancelled; the task and its pages observe the change at their next
// suspension point. A paused task holds no permits. Completed, Failed and
// Cancelled are final and ignore further signals.
//
// # Events
//
// Progress is reported through an EventSink as TaskCreateEvent,
// TaskUpdateEvent, SpeedEvent, RiskControlEvent and SleepingEvent.
package download
