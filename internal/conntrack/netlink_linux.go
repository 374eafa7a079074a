// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build linux
// +build linux

package conntrack

import (
	"context"
	"fmt"
	"strconv"

	ct "github.com/ti-mo/conntrack"
	"golang.org/x/sys/unix"

	"grimm.is/firewatch/internal/errors"
	"grimm.is/firewatch/internal/logging"
)

// netlinkSource dumps the kernel table over netlink. A connection is dialed
// per snapshot; the reader is poll-driven and holds no socket between
// requests.
type netlinkSource struct {
	parser *Parser
	logger *logging.Logger
}

func newNetlinkSource(p *Parser, logger *logging.Logger) Source {
	return &netlinkSource{parser: p, logger: logger}
}

func (s *netlinkSource) Snapshot(ctx context.Context, f Filter) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.KindTimeout, "connection table dump")
	}
	conn, err := ct.Dial(nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindUnavailable, "dialing netlink conntrack")
	}
	defer conn.Close()

	flows, err := conn.Dump(nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindUnavailable, "dumping connection table")
	}

	records := make([]Record, 0, len(flows))
	for i := range flows {
		rec, ok := flowRecord(&flows[i])
		if !ok {
			continue
		}
		if rec, keep := s.parser.finish(rec, f); keep {
			records = append(records, rec)
		}
	}
	sortRecords(records)
	s.logger.Debug("connection table dumped", "flows", len(flows), "records", len(records))
	return records, nil
}

// flowRecord converts one netlink flow into the shared record shape.
func flowRecord(f *ct.Flow) (Record, bool) {
	src := f.TupleOrig.IP.SourceAddress
	dst := f.TupleOrig.IP.DestinationAddress
	if !src.IsValid() || !dst.IsValid() {
		return Record{}, false
	}
	r := Record{
		Protocol:   protocolName(f.TupleOrig.Proto.Protocol),
		State:      flowState(f),
		TTLSeconds: int(f.Timeout),
		SrcIP:      src.Unmap().String(),
		DstIP:      dst.Unmap().String(),
		BytesOut:   f.CountersOrig.Bytes,
		BytesIn:    f.CountersReply.Bytes,
	}
	r.SrcPort, r.DstPort = flowPorts(&f.TupleOrig.Proto)
	return r, true
}

// flowPorts mirrors the text form: numeric ports for port-bearing
// protocols, "type/code" for ICMP.
func flowPorts(p *ct.ProtoTuple) (string, string) {
	switch p.Protocol {
	case unix.IPPROTO_ICMP, unix.IPPROTO_ICMPV6:
		tc := fmt.Sprintf("%d/%d", p.ICMPType, p.ICMPCode)
		return tc, tc
	default:
		return strconv.Itoa(int(p.SourcePort)), strconv.Itoa(int(p.DestinationPort))
	}
}

// tcpStates maps the kernel's numeric TCP conntrack states to the names
// the text dump prints.
var tcpStates = [...]string{
	"NONE", "SYN_SENT", "SYN_RECV", "ESTABLISHED", "FIN_WAIT",
	"CLOSE_WAIT", "LAST_ACK", "TIME_WAIT", "CLOSE", "SYN_SENT2",
}

func flowState(f *ct.Flow) string {
	if f.ProtoInfo.TCP == nil {
		return StateNone
	}
	if st := int(f.ProtoInfo.TCP.State); st < len(tcpStates) {
		return tcpStates[st]
	}
	return StateNone
}

// protocolName renders the IP protocol number the way the text dump spells
// it. Unlisted protocols keep their number.
func protocolName(p uint8) string {
	switch p {
	case unix.IPPROTO_TCP:
		return "tcp"
	case unix.IPPROTO_UDP:
		return "udp"
	case unix.IPPROTO_ICMP:
		return "icmp"
	case unix.IPPROTO_ICMPV6:
		return "ipv6-icmp"
	case unix.IPPROTO_GRE:
		return "gre"
	case unix.IPPROTO_SCTP:
		return "sctp"
	case unix.IPPROTO_UDPLITE:
		return "udplite"
	case unix.IPPROTO_DCCP:
		return "dccp"
	default:
		return strconv.Itoa(int(p))
	}
}
