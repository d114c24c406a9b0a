package transcript

import (
	"context"

	"github.com/nguyentantai21042004/video-narrator/internal/narrator"
)

// Writer saves session reports as a markdown transcript and a styled docx
type Writer interface {
	Record(ctx context.Context, report narrator.Report) error
}
