package download

import (
	"context"
	"path/filepath"
	"time"

	ioutils "github.com/handiism/comic-downloader/internal/io"
	"github.com/handiism/comic-downloader/internal/metrics"
	"github.com/handiism/comic-downloader/internal/model"
)

// imgTask downloads a single page of its parent chapter into the staging dir.
type imgTask struct {
	task   *Task
	page   model.Page
	dir    string
	format ioutils.ImageFormat
	ext    string
}

type fetchedImage struct {
	data   []byte
	format ioutils.ImageFormat
}

func (it *imgTask) path() string {
	return filepath.Join(it.dir, it.page.FileName(it.ext))
}

// run waits for an image permit and saves the page. Failures are logged and
// left for the chapter to detect as a short count.
func (it *imgTask) run(ctx context.Context) {
	ctrl := newController(it.task.state, it.task.m.imgSem, imageRole)
	defer ctrl.release()

	if err := ctrl.await(ctx, nil); err != nil {
		return
	}
	it.download(ctx, ctrl)
}

func (it *imgTask) download(ctx context.Context, ctrl *controller) {
	t := it.task
	path := it.path()
	logger := t.logger.With("page", it.page.Index+1, "url", it.page.URL)

	if ioutils.Exists(path) {
		logger.Debug("page already saved, skipping", "path", path)
		it.saved()
		return
	}

	img, err := call(ctx, ctrl, func(ctx context.Context) (fetchedImage, error) {
		data, format, err := t.m.client.FetchImage(ctx, it.page.URL, t.m.received)
		return fetchedImage{data, format}, err
	})
	if err != nil {
		if ctx.Err() == nil && t.State() != StateCancelled {
			logger.Warn("failed to fetch page", "err", err)
			metrics.ImageFailures.WithLabelValues("fetch").Inc()
		}
		return
	}

	data, err := t.m.images.Convert(img.data, img.format, it.format)
	if err != nil {
		logger.Error("failed to convert page", "from", img.format, "to", it.format, "err", err)
		metrics.ImageFailures.WithLabelValues("convert").Inc()
		return
	}

	if err := ioutils.WriteFile(path, data); err != nil {
		logger.Error("failed to save page", "path", path, "err", err)
		metrics.ImageFailures.WithLabelValues("save").Inc()
		return
	}

	metrics.ImagesDownloaded.Inc()
	it.saved()

	interval := time.Duration(t.m.settings.ImgDownloadIntervalSec) * t.m.tick
	if err := ctrl.sleep(ctx, interval); err != nil {
		logger.Debug("page interval interrupted", "err", err)
	}
}

func (it *imgTask) saved() {
	it.task.downloaded.Add(1)
	it.task.emitUpdate()
}
