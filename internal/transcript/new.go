package transcript

import (
	"github.com/nguyentantai21042004/video-narrator/internal/logger"
)

type implWriter struct {
	dir    string
	docx   bool
	logger logger.Logger
}

// New creates a Writer that stores transcripts in dir. The docx copy is
// skipped when withDocx is false.
func New(dir string, withDocx bool, log logger.Logger) Writer {
	return &implWriter{
		dir:    dir,
		docx:   withDocx,
		logger: log,
	}
}
