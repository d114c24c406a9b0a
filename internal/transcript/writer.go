package transcript

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/nguyentantai21042004/video-narrator/internal/narrator"
)

var reUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// Record writes <title>-<started>.md and, when enabled, the .docx next to it.
func (w *implWriter) Record(ctx context.Context, report narrator.Report) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("create transcript dir: %w", err)
	}

	base := filepath.Join(w.dir, fileName(report))
	md := renderMarkdown(report)

	mdPath := base + ".md"
	if err := os.WriteFile(mdPath, []byte(md), 0644); err != nil {
		return fmt.Errorf("write %s: %w", mdPath, err)
	}
	w.logger.Info(ctx, "Transcript saved: %s", mdPath)

	if !w.docx {
		return nil
	}

	docxPath := base + ".docx"
	if err := markdownToDocx(title(report), md, docxPath); err != nil {
		return fmt.Errorf("write %s: %w", docxPath, err)
	}
	w.logger.Info(ctx, "Transcript saved: %s", docxPath)
	return nil
}

func title(r narrator.Report) string {
	if strings.TrimSpace(r.Title) != "" {
		return r.Title
	}
	return "Narration"
}

func fileName(r narrator.Report) string {
	slug := strings.Trim(reUnsafe.ReplaceAllString(strings.ToLower(title(r)), "-"), "-")
	if slug == "" {
		slug = "narration"
	}
	return slug + "-" + r.StartedAt.Format("20060102-150405")
}

// renderMarkdown lists every narrated segment with its captions. The title
// is added by the docx writer, so it is not repeated as a heading here.
func renderMarkdown(r narrator.Report) string {
	var b strings.Builder

	status := "completed"
	if !r.Completed {
		status = "stopped"
	}
	fmt.Fprintf(&b, "_%s, %s, %d segments, %s_\n\n",
		r.StartedAt.Format("2006-01-02 15:04"), status, len(r.Segments), r.EndedAt.Sub(r.StartedAt).Round(time.Second))

	for _, s := range r.Segments {
		fmt.Fprintf(&b, "## Segment %d (%s - %s)\n\n",
			s.Index+1, clock(s.StartOffset), clock(s.StartOffset+s.DurationSeconds))

		summary := strings.TrimSpace(s.Summary)
		if s.Partial {
			summary = "**Partial:** " + summary
		}
		fmt.Fprintf(&b, "%s\n\n", summary)

		if len(s.Captions) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### Frames (%d of %d, %s mode)\n\n", len(s.Captions), s.ExpectedFrames, s.Mode)
		for i, c := range s.Captions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(c))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// clock formats seconds as m:ss or h:mm:ss
func clock(seconds float64) string {
	d := time.Duration(seconds) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
