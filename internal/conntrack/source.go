// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package conntrack

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"grimm.is/firewatch/internal/config"
	"grimm.is/firewatch/internal/errors"
	"grimm.is/firewatch/internal/logging"
)

// Source yields a decorated, filtered snapshot of the connection table.
// An empty snapshot is a valid success.
type Source interface {
	Snapshot(ctx context.Context, f Filter) ([]Record, error)
}

// NewSource builds the source the config selects: netlink, proc, or exec.
// Anything else falls back to netlink.
func NewSource(cfg *config.Config, parser *Parser, logger *logging.Logger) Source {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.WithComponent("conntrack")

	ct := cfg.Conntrack
	if ct == nil {
		ct = &config.ConntrackConfig{}
	}
	switch ct.Source {
	case "proc":
		return &textSource{dump: procDump(ct.ProcPath), parser: parser, logger: logger}
	case "exec":
		return &textSource{dump: execDump(ct.Command, cfg.ConntrackTimeout()), parser: parser, logger: logger}
	default:
		return newNetlinkSource(parser, logger)
	}
}

// textSource parses a textual table dump, wherever it came from.
type textSource struct {
	dump   func(ctx context.Context) ([]string, error)
	parser *Parser
	logger *logging.Logger
}

func (s *textSource) Snapshot(ctx context.Context, f Filter) ([]Record, error) {
	lines, err := s.dump(ctx)
	if err != nil {
		return nil, err
	}
	records := s.parser.Parse(lines, f)
	s.logger.Debug("connection table dumped", "lines", len(lines), "records", len(records))
	return records, nil
}

// procDump reads the nf_conntrack proc file.
func procDump(path string) func(context.Context) ([]string, error) {
	return func(context.Context) ([]string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, errors.KindUnavailable, "reading connection table %s", path)
		}
		return strings.Split(string(data), "\n"), nil
	}
}

// execDump runs the external dump command under a bounded timeout. Only
// stdout is parsed; the conntrack tool prints its entry count to stderr.
func execDump(command string, timeout time.Duration) func(context.Context) ([]string, error) {
	return func(ctx context.Context) ([]string, error) {
		argv := strings.Fields(command)
		if len(argv) == 0 {
			return nil, errors.New(errors.KindUnavailable, "connection table command not configured")
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).Output()
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Errorf(errors.KindTimeout, "connection table dump exceeded %s", timeout)
		}
		if err != nil {
			return nil, errors.Wrapf(err, errors.KindUnavailable, "running %s", argv[0])
		}
		return strings.Split(string(out), "\n"), nil
	}
}
