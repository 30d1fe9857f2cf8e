package sources

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/coreos/go-systemd/v22/dbus"

	"github.com/lanternhq/lantern/pkg/core"
)

// JournalSource streams journald output for a systemd unit.
type JournalSource struct {
	id     string
	name   string
	unit   string
	logger *slog.Logger
}

// NewJournal creates a journald source for the given unit. Name falls
// back to the unit name.
func NewJournal(id, name, unit string, logger *slog.Logger) *JournalSource {
	if name == "" {
		name = unit
	}
	return &JournalSource{id: id, name: name, unit: unit, logger: logger}
}

func (s *JournalSource) ID() string   { return s.id }
func (s *JournalSource) Name() string { return s.name }

// Tail follows the unit's journal, including the last 50 lines of
// context.
func (s *JournalSource) Tail(ctx context.Context) (<-chan core.LogLine, error) {
	cmd := exec.CommandContext(ctx, "journalctl", "-f", "-u", s.unit, "-o", "cat", "-n", "50")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("journalctl pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("journalctl start: %w", err)
	}

	ch := make(chan core.LogLine, 100)
	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			line := core.LogLine{
				SourceID: s.id,
				TsUnixMs: time.Now().UnixMilli(),
				Line:     scanner.Text(),
			}
			select {
			case ch <- line:
			default:
			}
		}
		_ = cmd.Wait()
		close(ch)
	}()

	s.logger.Info("following journal", "unit", s.unit, "source", s.id)
	return ch, nil
}

// UnitState resolves a unit's active state via D-Bus, used at startup
// to warn about journal sources pointing at missing or inactive units.
func UnitState(ctx context.Context, unit string) (string, error) {
	conn, err := dbus.NewWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("dbus connect: %w", err)
	}
	defer conn.Close()

	units, err := conn.ListUnitsByNamesContext(ctx, []string{unit})
	if err != nil {
		return "", fmt.Errorf("list units: %w", err)
	}
	if len(units) == 0 {
		return "", fmt.Errorf("unit %s not found", unit)
	}
	return units[0].ActiveState, nil
}
