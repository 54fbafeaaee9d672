package scripting

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// REBInfo is one readout electronics board's identity.
type REBInfo struct {
	DeviceName   string
	HwVersion    uint64
	SerialNumber string
}

// WriteREBInfo writes the REB device names, firmware versions, and
// manufacturer serial numbers to w, one board per line, for persisting to
// the traveler tables.
func WriteREBInfo(ctx context.Context, sub Subsystem, w io.Writer) error {
	names, err := commandFields(ctx, sub, "getREBDeviceNames")
	if err != nil {
		return err
	}
	versions, err := commandUints(ctx, sub, "getREBHwVersions")
	if err != nil {
		return err
	}
	serials, err := commandUints(ctx, sub, "getREBSerialNumbers")
	if err != nil {
		return err
	}
	if len(versions) != len(names) || len(serials) != len(names) {
		return fmt.Errorf("scripting: mismatched REB info lengths: %d names, %d versions, %d serials",
			len(names), len(versions), len(serials))
	}
	for i, name := range names {
		if _, err := fmt.Fprintf(w, "%s  %x  %x\n", name, versions[i], serials[i]); err != nil {
			return err
		}
	}
	return nil
}

// GetREBInfo returns device name, firmware version, and serial number for
// one REB ID. Reported ids are reduced modulo 4 the way the raft numbers
// its boards.
func GetREBInfo(ctx context.Context, sub Subsystem, rebID int) (REBInfo, error) {
	ids, err := commandUints(ctx, sub, "getREBIds")
	if err != nil {
		return REBInfo{}, err
	}
	index := -1
	for i, id := range ids {
		if int(id%4) == rebID {
			index = i
			break
		}
	}
	if index < 0 {
		return REBInfo{}, fmt.Errorf("scripting: no REB with id %d (known ids %v)", rebID, ids)
	}

	names, err := commandFields(ctx, sub, "getREBDevices")
	if err != nil {
		return REBInfo{}, err
	}
	versions, err := commandUints(ctx, sub, "getREBHwVersions")
	if err != nil {
		return REBInfo{}, err
	}
	serials, err := commandUints(ctx, sub, "getREBSerialNumbers")
	if err != nil {
		return REBInfo{}, err
	}
	if index >= len(names) || index >= len(versions) || index >= len(serials) {
		return REBInfo{}, fmt.Errorf("scripting: REB index %d out of range", index)
	}
	return REBInfo{
		DeviceName:   names[index],
		HwVersion:    versions[index],
		SerialNumber: fmt.Sprintf("%x", serials[index]),
	}, nil
}

func commandFields(ctx context.Context, sub Subsystem, args ...string) ([]string, error) {
	reply, err := sub.SyncCommand(ctx, args...)
	if err != nil {
		return nil, err
	}
	return strings.Fields(reply), nil
}

func commandUints(ctx context.Context, sub Subsystem, args ...string) ([]uint64, error) {
	fields, err := commandFields(ctx, sub, args...)
	if err != nil {
		return nil, err
	}
	out := make([]uint64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("scripting: parse %q reply %q: %w", strings.Join(args, " "), f, err)
		}
		out = append(out, v)
	}
	return out, nil
}
