// Package source implements the client for the comic API.
//
// Every API response is an envelope of the form
//
//	{"code": 200, "message": "请求成功", "results": {...}}
//
// and the Client maps it onto Go errors:
//
//   - code 200 decodes results
//   - code 210 returns *RiskControlError; the caller should cool down
//   - other codes return *APIError, which matches ErrPermanent
//   - undecodable bodies and 4xx statuses (except 429) match ErrPermanent
//   - transport failures, 429 and 5xx are returned as is and may be retried
//
// # Basic Usage
//
//	client := source.NewClient(http.NewClient(), settings.APIDomain, settings.Token,
//	    source.WithLibrary(settings.DownloadDir))
//
//	comic, err := client.FetchComic(ctx, "pathword")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Client satisfies download.Client through FetchChapterPages and FetchImage.
package source
