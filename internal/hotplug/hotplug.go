// Package hotplug parses a streamed udev-style event log into DeviceEvent
// values, per spec.md §4.14, using a line-oriented bufio.Scanner reader
// over a header-plus-properties block grammar.
package hotplug

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// DeviceEvent is one parsed add/remove/change block.
type DeviceEvent struct {
	Action      string
	Kind        string
	DevicePath  string
	DeviceID    string
	TimestampSec int64
}

var headerLine = regexp.MustCompile(`^(UDEV|KERNEL)\s+\[(\d+)(?:\.\d+)?\]\s+(\S+)\s+(\S+)\s+\((\S+)\)\s*$`)

// Handler receives one DeviceEvent per completed block.
type Handler func(DeviceEvent)

// Parse scans r line by line, accumulating header + KEY=VALUE property
// blocks terminated by a blank line, and invokes handle once per
// completed UDEV block. KERNEL header lines and blocks with an unknown
// action keyword are ignored (their property lines are still consumed,
// but no event is emitted).
func Parse(r io.Reader, handle Handler) error {
	scanner := bufio.NewScanner(r)

	var (
		inBlock  bool
		emit     bool
		action   string
		kind     string
		devPath  string
		tsSec    int64
		props    map[string]string
	)

	reset := func() {
		inBlock = false
		emit = false
		action = ""
		kind = ""
		devPath = ""
		tsSec = 0
		props = nil
	}
	reset()

	flush := func() {
		if inBlock && emit {
			handle(DeviceEvent{
				Action:       action,
				Kind:         kind,
				DevicePath:   devPath,
				DeviceID:     composeDeviceID(devPath, props),
				TimestampSec: tsSec,
			})
		}
		reset()
	}

	for scanner.Scan() {
		line := scanner.Text()

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		if m := headerLine.FindStringSubmatch(line); m != nil {
			flush() // a new header with no blank line before it starts a fresh block
			inBlock = true
			props = map[string]string{}

			kw, secs, act, path, subsystem := m[1], m[2], m[3], m[4], m[5]
			tsSec, _ = strconv.ParseInt(secs, 10, 64)
			devPath = path
			kind = subsystem

			if kw == "KERNEL" {
				continue // KERNEL header lines are ignored
			}
			switch act {
			case "add", "remove", "change":
				action = act
				emit = true
			default:
				// unknown action keyword: ignored, but property lines still consumed
			}
			continue
		}

		if inBlock {
			if key, val, ok := strings.Cut(line, "="); ok {
				props[key] = val
			}
		}
	}
	flush() // tolerate a final block with no trailing blank line

	return scanner.Err()
}

// composeDeviceID builds "<VID>:<PID> <MODEL>" when ID_VENDOR_ID is
// present, substituting "0000" for a missing ID_MODEL_ID/ID_PRODUCT_ID,
// or falls back to the raw device path when ID_VENDOR_ID is absent, per
// spec.md §4.14.
func composeDeviceID(devPath string, props map[string]string) string {
	vendor, ok := props["ID_VENDOR_ID"]
	if !ok || vendor == "" {
		return devPath
	}
	product := props["ID_MODEL_ID"]
	if product == "" {
		product = props["ID_PRODUCT_ID"]
	}
	if product == "" {
		product = "0000"
	}
	model := props["ID_MODEL"]
	return vendor + ":" + product + " " + model
}
