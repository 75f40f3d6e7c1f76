package serialport

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadSysfsFile(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		expected string
		setup    func(string) error
	}{
		{
			name:     "normal file",
			expected: "1234",
			setup: func(path string) error {
				return os.WriteFile(path, []byte("1234\n"), 0644)
			},
		},
		{
			name:     "file with spaces",
			expected: "test value",
			setup: func(path string) error {
				return os.WriteFile(path, []byte("  test value  \n"), 0644)
			},
		},
		{
			name:     "nonexistent file",
			expected: "",
			setup:    func(path string) error { return nil },
		},
		{
			name:     "empty file",
			expected: "",
			setup: func(path string) error {
				return os.WriteFile(path, []byte(""), 0644)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testFile := filepath.Join(tmpDir, tt.name)
			if err := tt.setup(testFile); err != nil {
				t.Fatalf("Setup failed: %v", err)
			}
			if result := readSysfsFile(testFile); result != tt.expected {
				t.Errorf("readSysfsFile() = %q, expected %q", result, tt.expected)
			}
		})
	}
}

// mockSysfs builds a sysfs tree for a tty under a USB interface and points
// sysfsRoot at it for the duration of the test.
//
//	<root>/devices/usb1/1-1/{idVendor,idProduct,serial,manufacturer,product}
//	<root>/devices/usb1/1-1/1-1:1.0/bInterfaceNumber
//	<root>/devices/usb1/1-1/1-1:1.0/<tty>        (ttyUSB layout)
//	<root>/class/tty/<tty>/device -> tty dir or interface dir
func mockSysfs(t *testing.T, tty string, underInterface bool, attrs map[string]string) {
	t.Helper()

	root := t.TempDir()
	usbDevice := filepath.Join(root, "devices", "usb1", "1-1")
	iface := filepath.Join(usbDevice, "1-1:1.0")

	target := iface
	if underInterface {
		target = filepath.Join(iface, tty)
	}
	if err := os.MkdirAll(target, 0755); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(iface, "bInterfaceNumber"), []byte("00\n"), 0644); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	for name, value := range attrs {
		if err := os.WriteFile(filepath.Join(usbDevice, name), []byte(value+"\n"), 0644); err != nil {
			t.Fatalf("Setup failed: %v", err)
		}
	}

	classDir := filepath.Join(root, "class", "tty", tty)
	if err := os.MkdirAll(classDir, 0755); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := os.Symlink(target, filepath.Join(classDir, "device")); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	prev := sysfsRoot
	sysfsRoot = root
	t.Cleanup(func() { sysfsRoot = prev })
}

func TestEnrichUSBInfoSweep(t *testing.T) {
	mockSysfs(t, "ttyUSB0", true, map[string]string{
		"idVendor":     "0403",
		"idProduct":    "6015",
		"serial":       "DN00ABCD",
		"manufacturer": "FTDI",
		"product":      "FT230X Basic UART",
	})

	info := &PortInfo{Name: "ttyUSB0"}
	enrichUSBInfo(info)

	if info.VendorID != "0403" {
		t.Errorf("VendorID = %q, expected 0403", info.VendorID)
	}
	if info.ProductID != "6015" {
		t.Errorf("ProductID = %q, expected 6015", info.ProductID)
	}
	if info.SerialNumber != "DN00ABCD" {
		t.Errorf("SerialNumber = %q, expected DN00ABCD", info.SerialNumber)
	}
	if info.Manufacturer != "FTDI" {
		t.Errorf("Manufacturer = %q, expected FTDI", info.Manufacturer)
	}
	if info.Product != "FT230X Basic UART" {
		t.Errorf("Product = %q", info.Product)
	}
	if info.InterfaceNumber != "00" {
		t.Errorf("InterfaceNumber = %q, expected 00", info.InterfaceNumber)
	}
	if !info.IsSweep() {
		t.Error("Expected port to identify as a Sweep")
	}
}

func TestEnrichUSBInfoACM(t *testing.T) {
	mockSysfs(t, "ttyACM0", false, map[string]string{
		"idVendor":  "2341",
		"idProduct": "0043",
	})

	info := &PortInfo{Name: "ttyACM0"}
	enrichUSBInfo(info)

	if info.VendorID != "2341" || info.ProductID != "0043" {
		t.Errorf("Got %s:%s, expected 2341:0043", info.VendorID, info.ProductID)
	}
	if info.InterfaceNumber != "00" {
		t.Errorf("InterfaceNumber = %q, expected 00", info.InterfaceNumber)
	}
	if info.IsSweep() {
		t.Error("ACM device should not identify as a Sweep")
	}
}

func TestEnrichUSBInfoMissingDevice(t *testing.T) {
	prev := sysfsRoot
	sysfsRoot = t.TempDir()
	t.Cleanup(func() { sysfsRoot = prev })

	info := &PortInfo{Name: "ttyUSB9"}
	enrichUSBInfo(info)

	if info.VendorID != "" || info.ProductID != "" || info.SerialNumber != "" {
		t.Errorf("Expected empty USB info, got %+v", info)
	}
}
