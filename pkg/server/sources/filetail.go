package sources

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lanternhq/lantern/pkg/core"
)

// FileSource tails a log file, starting at the end.
type FileSource struct {
	id     string
	name   string
	path   string
	logger *slog.Logger
}

// NewFile creates a file tail source. Name falls back to the path.
func NewFile(id, name, path string, logger *slog.Logger) *FileSource {
	if name == "" {
		name = path
	}
	return &FileSource{id: id, name: name, path: path, logger: logger}
}

func (s *FileSource) ID() string   { return s.id }
func (s *FileSource) Name() string { return s.name }

// Tail streams appended lines, handling truncation (log rotation) by
// rewinding to the start.
func (s *FileSource) Tail(ctx context.Context) (<-chan core.LogLine, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}

	// Seek to end; only new lines are streamed.
	f.Seek(0, io.SeekEnd)

	ch := make(chan core.LogLine, 100)
	go func() {
		defer f.Close()
		defer close(ch)

		reader := bufio.NewReader(f)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			line, err := reader.ReadString('\n')
			if err != nil {
				// No new data yet -- poll
				time.Sleep(250 * time.Millisecond)
				info, serr := f.Stat()
				if serr != nil {
					continue
				}
				pos, _ := f.Seek(0, io.SeekCurrent)
				if info.Size() < pos {
					f.Seek(0, io.SeekStart)
					reader.Reset(f)
				}
				continue
			}

			entry := core.LogLine{
				SourceID: s.id,
				TsUnixMs: time.Now().UnixMilli(),
				Line:     strings.TrimSuffix(line, "\n"),
			}
			select {
			case ch <- entry:
			default:
			}
		}
	}()

	s.logger.Info("tailing file", "path", s.path, "source", s.id)
	return ch, nil
}
