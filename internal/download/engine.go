package download

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hlsget/hls-downloader/internal/model"
	"github.com/hlsget/hls-downloader/internal/playlist"
)

// Worker strategy tuning
const (
	// SequentialThreshold is the segment count below which a single worker
	// downloads everything in order
	SequentialThreshold = 10

	// MinChunkWorkers and MaxChunkWorkers clamp the parallel worker count,
	// which otherwise grows with one worker per ten segments
	MinChunkWorkers = 4
	MaxChunkWorkers = 8
)

// workerCount picks the number of parallel workers for segmentCount segments
func workerCount(segmentCount int) int {
	n := segmentCount / 10
	if n < MinChunkWorkers {
		n = MinChunkWorkers
	}
	if n > MaxChunkWorkers {
		n = MaxChunkWorkers
	}
	return n
}

// execute fetches and parses the playlist, downloads every segment,
// decrypts when keyed, and merges the result into the final artifact.
func (s *Service) execute(ctx context.Context, task *model.DownloadTask) error {
	pl, mediaURL, err := s.fetchMediaPlaylist(ctx, task.DownloadURL)
	if err != nil {
		return err
	}
	if len(pl.Segments) == 0 {
		return fmt.Errorf("playlist has no segments: %s", mediaURL)
	}
	if err := s.store.SetDuration(task.ID, pl.TotalDuration()); err != nil {
		return fmt.Errorf("failed to record media duration: %w", err)
	}

	var key []byte
	if pl.KeyURL != "" {
		keyURL := playlist.ResolveURL(mediaURL, pl.KeyURL)
		key, err = s.fetcher.Get(ctx, keyURL)
		if err != nil {
			return fmt.Errorf("failed to fetch decryption key: %w", err)
		}
	}

	segments := make([]model.Segment, len(pl.Segments))
	for i, seg := range pl.Segments {
		seg.URL = playlist.ResolveURL(mediaURL, seg.URL)
		segments[i] = seg
	}

	segmentsDir := filepath.Join(task.SavePath, SegmentsDirName)
	if err := os.MkdirAll(segmentsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create segment directory: %w", err)
	}

	estimated := estimatedTotal(segments)
	tracker := newProgressTracker(task.ID, s.store, estimated)

	stopReporter := s.startReporter(tracker)
	err = s.downloadAll(ctx, segments, segmentsDir, key, tracker)
	stopReporter()
	if err != nil {
		return err
	}

	outputPath := filepath.Join(task.SavePath, OutputFileName)
	total, err := mergeSegments(ctx, segmentsDir, outputPath, len(segments))
	if err != nil {
		return fmt.Errorf("failed to merge segments: %w", err)
	}

	// Record the real byte total before the terminal status write.
	s.store.UpdateProgress(task.ID, PercentCap, total, 0, total)
	return nil
}

// fetchMediaPlaylist fetches and parses the manifest at url, resolving a
// master playlist to its highest-bandwidth media rendition
func (s *Service) fetchMediaPlaylist(ctx context.Context, url string) (*model.Playlist, string, error) {
	content, err := s.fetcher.Get(ctx, url)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch playlist: %w", err)
	}
	pl, err := playlist.Parse(string(content))
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse playlist: %w", err)
	}
	if !pl.IsMaster() {
		return pl, url, nil
	}

	best, ok := pl.BestVariant()
	if !ok {
		return nil, "", fmt.Errorf("master playlist has no variants: %s", url)
	}
	mediaURL := playlist.ResolveURL(url, best.URL)
	s.log.Debug("selected variant", "bandwidth", best.Bandwidth, "url", mediaURL)

	content, err = s.fetcher.Get(ctx, mediaURL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch media playlist: %w", err)
	}
	media, err := playlist.Parse(string(content))
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse media playlist: %w", err)
	}
	if media.IsMaster() {
		return nil, "", fmt.Errorf("nested master playlist: %s", mediaURL)
	}
	return media, mediaURL, nil
}

// startReporter launches the periodic throughput sampler and returns a
// function that stops it
func (s *Service) startReporter(tracker *progressTracker) func() {
	done := make(chan struct{})
	var once sync.Once
	go func() {
		ticker := time.NewTicker(SampleInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case now := <-ticker.C:
				tracker.Sample(now)
			}
		}
	}()
	return func() { once.Do(func() { close(done) }) }
}

// downloadAll downloads every segment, sequentially for short playlists and
// with contiguous-chunk workers otherwise. Segment files are named by
// global index so workers never contend on the same file.
func (s *Service) downloadAll(ctx context.Context, segments []model.Segment, segmentsDir string, key []byte, tracker *progressTracker) error {
	if len(segments) < SequentialThreshold {
		return s.downloadRange(ctx, segments, 0, segmentsDir, key, tracker)
	}

	workers := workerCount(len(segments))
	chunkSize := (len(segments) + workers - 1) / workers

	dctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error

	for start := 0; start < len(segments); start += chunkSize {
		end := start + chunkSize
		if end > len(segments) {
			end = len(segments)
		}
		wg.Add(1)
		go func(chunk []model.Segment, offset int) {
			defer wg.Done()
			if err := s.downloadRange(dctx, chunk, offset, segmentsDir, key, tracker); err != nil {
				once.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}(segments[start:end], start)
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// downloadRange downloads one contiguous run of segments. The liveness
// check runs before each segment; an in-flight transfer is left to drain
// or fail on its own.
func (s *Service) downloadRange(ctx context.Context, segments []model.Segment, offset int, segmentsDir string, key []byte, tracker *progressTracker) error {
	for i, seg := range segments {
		if err := ctx.Err(); err != nil {
			return err
		}
		index := offset + i
		if err := s.downloadSegment(ctx, seg.URL, segmentPath(segmentsDir, index), index, key, tracker); err != nil {
			return fmt.Errorf("segment %d: %w", index, err)
		}
		tracker.MaybePersist(time.Now())
	}
	return nil
}

// downloadSegment streams one segment to disk and decrypts it in place
// right after its bytes finish writing
func (s *Service) downloadSegment(ctx context.Context, url, path string, index int, key []byte, tracker *progressTracker) error {
	body, _, err := s.fetcher.GetStream(ctx, url)
	if err != nil {
		return err
	}
	defer body.Close()

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	_, err = io.Copy(&countingWriter{w: out, tracker: tracker}, body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	if len(key) > 0 {
		return decryptSegmentFile(path, key, s.ivProvider(index))
	}
	return nil
}

// estimatedTotal sums the per-segment byte estimates used to drive the
// percentage bar; the true size is unknown until merge
func estimatedTotal(segments []model.Segment) int64 {
	var total int64
	for _, seg := range segments {
		if seg.EstimatedBytes > 0 {
			total += seg.EstimatedBytes
		} else {
			total += playlist.SegmentSizeEstimate
		}
	}
	return total
}

// countingWriter feeds every written byte into the shared progress tracker
type countingWriter struct {
	w       io.Writer
	tracker *progressTracker
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	if n > 0 {
		cw.tracker.Add(int64(n))
	}
	return n, err
}
