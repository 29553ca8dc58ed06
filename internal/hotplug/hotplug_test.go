package hotplug

import (
	"strings"
	"testing"
)

func TestParse_UdevAddEventNoVendorProps(t *testing.T) {
	input := "UDEV  [1234.567890] add      /devices/pci0000:00/0000:00:14.0/usb1/1-1 (usb)\n\n"

	var events []DeviceEvent
	if err := Parse(strings.NewReader(input), func(e DeviceEvent) { events = append(events, e) }); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	got := events[0]
	if got.Action != "add" || got.Kind != "usb" || got.DevicePath != "/devices/pci0000:00/0000:00:14.0/usb1/1-1" || got.TimestampSec != 1234 {
		t.Errorf("got %+v", got)
	}
	if got.DeviceID != got.DevicePath {
		t.Errorf("DeviceID = %q, want fallback to device path %q", got.DeviceID, got.DevicePath)
	}
}

func TestParse_ComposesDeviceIDFromVendorAndModelProps(t *testing.T) {
	input := strings.Join([]string{
		"UDEV  [42.0] add      /devices/pci0000:00/usb2/2-1 (usb)",
		"ID_VENDOR_ID=046d",
		"ID_MODEL_ID=c52b",
		"ID_MODEL=Unifying_Receiver",
		"",
		"",
	}, "\n")

	var events []DeviceEvent
	if err := Parse(strings.NewReader(input), func(e DeviceEvent) { events = append(events, e) }); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	want := "046d:c52b Unifying_Receiver"
	if events[0].DeviceID != want {
		t.Errorf("DeviceID = %q, want %q", events[0].DeviceID, want)
	}
}

func TestParse_MissingProductIDSubstitutesZeros(t *testing.T) {
	input := strings.Join([]string{
		"UDEV  [1.0] change   /devices/foo (usb)",
		"ID_VENDOR_ID=1234",
		"",
		"",
	}, "\n")

	var events []DeviceEvent
	Parse(strings.NewReader(input), func(e DeviceEvent) { events = append(events, e) })
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].DeviceID != "1234:0000 " {
		t.Errorf("DeviceID = %q, want %q", events[0].DeviceID, "1234:0000 ")
	}
}

func TestParse_KernelHeaderIsIgnored(t *testing.T) {
	input := strings.Join([]string{
		"KERNEL [1.0] add      /devices/foo (usb)",
		"ID_VENDOR_ID=1234",
		"",
		"",
	}, "\n")

	var events []DeviceEvent
	Parse(strings.NewReader(input), func(e DeviceEvent) { events = append(events, e) })
	if len(events) != 0 {
		t.Errorf("got %d events, want 0 (KERNEL lines ignored)", len(events))
	}
}

func TestParse_UnknownActionIsIgnored(t *testing.T) {
	input := "UDEV  [1.0] move      /devices/foo (usb)\n\n"

	var events []DeviceEvent
	Parse(strings.NewReader(input), func(e DeviceEvent) { events = append(events, e) })
	if len(events) != 0 {
		t.Errorf("got %d events, want 0 (unknown action ignored)", len(events))
	}
}

func TestParse_MultipleBlocksInOneStream(t *testing.T) {
	input := strings.Join([]string{
		"UDEV  [1.0] add      /devices/a (usb)",
		"",
		"UDEV  [2.0] remove   /devices/b (block)",
		"",
	}, "\n")

	var events []DeviceEvent
	Parse(strings.NewReader(input), func(e DeviceEvent) { events = append(events, e) })
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Action != "add" || events[1].Action != "remove" {
		t.Errorf("got %+v", events)
	}
}

func TestParse_NoTrailingBlankLineStillFlushesFinalBlock(t *testing.T) {
	input := "UDEV  [1.0] add      /devices/a (usb)"

	var events []DeviceEvent
	Parse(strings.NewReader(input), func(e DeviceEvent) { events = append(events, e) })
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
}
