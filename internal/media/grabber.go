package media

import (
	"context"
	"fmt"
	"strconv"
)

// CaptureFrame seeks ffmpeg to the playhead and pipes a single mjpeg frame.
// -ss before -i uses keyframe seeking, which is fast on long files.
func (g *implGrabber) CaptureFrame(ctx context.Context) ([]byte, error) {
	pos := g.player.Position()

	args := []string{
		"-loglevel", "error",
		"-ss", strconv.FormatFloat(pos, 'f', 3, 64),
		"-i", g.opts.Source,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", strconv.Itoa(g.opts.Quality),
		"pipe:1",
	}

	out, err := g.executor.Execute(ctx, g.opts.FFmpeg, args...)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg grab frame at %.1fs: %w", pos, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("ffmpeg grab frame at %.1fs: no data", pos)
	}

	g.logger.Debug(ctx, "Captured frame at %.1fs (%d bytes)", pos, len(out))
	return out, nil
}
