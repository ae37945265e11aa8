package download

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// On-disk layout under a task's save path
const (
	SegmentsDirName   = "segments"
	SegmentFilePrefix = "segment_"
	SegmentFileExt    = ".ts"
	OutputFileName    = "video.mp4"
)

// segmentPath returns the file path for the segment with the given global index
func segmentPath(segmentsDir string, index int) string {
	return filepath.Join(segmentsDir, fmt.Sprintf("%s%d%s", SegmentFilePrefix, index, SegmentFileExt))
}

// mergeSegments concatenates segment files 0..count-1 in strict index order
// into outputPath, deleting each segment right after it is appended and
// removing the then-empty segment directory. Index order is the one
// non-negotiable ordering invariant of the engine. Cancellation is checked
// between segments so a cancelled job never finalizes its artifact.
func mergeSegments(ctx context.Context, segmentsDir, outputPath string, count int) (int64, error) {
	out, err := os.Create(outputPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}

	total, err := appendSegments(ctx, out, segmentsDir, count)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return total, err
	}

	if err := os.Remove(segmentsDir); err != nil {
		return total, fmt.Errorf("failed to remove segment directory: %w", err)
	}
	return total, nil
}

func appendSegments(ctx context.Context, out *os.File, segmentsDir string, count int) (int64, error) {
	var total int64
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		path := segmentPath(segmentsDir, i)
		n, err := appendFile(out, path)
		if err != nil {
			return total, fmt.Errorf("failed to merge segment %d: %w", i, err)
		}
		total += n
		if err := os.Remove(path); err != nil {
			return total, fmt.Errorf("failed to remove merged segment %d: %w", i, err)
		}
	}
	return total, nil
}

func appendFile(out *os.File, path string) (int64, error) {
	in, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer in.Close()
	return io.Copy(out, in)
}

// removeArtifacts deletes everything a task has written under savePath:
// the segment directory with any partial files plus the merged output.
// Used by cancellation, which must leave zero residual files.
func removeArtifacts(savePath string) error {
	if err := os.RemoveAll(filepath.Join(savePath, SegmentsDirName)); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(savePath, OutputFileName)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
