// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build !linux
// +build !linux

package conntrack

import (
	"context"

	"grimm.is/firewatch/internal/errors"
	"grimm.is/firewatch/internal/logging"
)

// newNetlinkSource is a stub for non-Linux platforms. The netlink source
// is only supported on Linux; configure the proc or exec source elsewhere.
func newNetlinkSource(_ *Parser, _ *logging.Logger) Source {
	return unsupportedSource{}
}

type unsupportedSource struct{}

func (unsupportedSource) Snapshot(context.Context, Filter) ([]Record, error) {
	return nil, errors.New(errors.KindUnavailable, "netlink conntrack not supported on this platform")
}
