// Package api serves the download engine over HTTP.
//
// # Routes
//
//	GET  /healthz
//	GET  /metrics                                      Prometheus metrics
//	GET  /events                                       websocket stream of engine events
//	GET  /api/tasks                                    every task snapshot
//	GET  /api/tasks/{chapterUUID}                      one task snapshot
//	GET  /api/history?limit=N                          finished downloads, newest first
//	POST /api/comics/{pathWord}/chapters/{chapterUUID} fetch the comic and download a chapter
//	POST /api/tasks/{chapterUUID}/pause
//	POST /api/tasks/{chapterUUID}/resume
//	POST /api/tasks/{chapterUUID}/cancel
//
// Events are sent as JSON objects {"type": "...", "data": {...}} where type
// is the event's EventType.
//
// # Basic Usage
//
//	hub := api.NewHub(logger)
//	manager := download.NewManager(settings, client, hub.Publish)
//	srv := api.NewServer(manager, client, api.WithHub(hub), api.WithHistory(store))
//	http.ListenAndServe(":8080", srv.Router())
package api
