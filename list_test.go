package serial

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestListPorts(t *testing.T) {
	ports, err := ListPorts()
	if err != nil {
		t.Errorf("ListPorts failed: %v", err)
	}

	for _, port := range ports {
		if !strings.HasPrefix(port, "/dev/") {
			t.Errorf("Port path doesn't start with /dev/: %s", port)
		}

		if !isCharacterDevice(port) {
			t.Errorf("Port is not a character device: %s", port)
		}
	}

	for i := 1; i < len(ports); i++ {
		if ports[i-1] > ports[i] {
			t.Errorf("Ports are not sorted: %s > %s", ports[i-1], ports[i])
		}
	}
}

func TestListPortsInSkipsRegularFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"ttyUSB0", "ttyS1", "tty1"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	ports, err := listPortsIn(dir)
	if err != nil {
		t.Fatalf("listPortsIn failed: %v", err)
	}
	if len(ports) != 0 {
		t.Errorf("Expected no ports from regular files, got %v", ports)
	}

	if _, err := listPortsIn(filepath.Join(dir, "missing")); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestIsCharacterDevice(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"/dev/null", true},
		{"/dev/zero", true},
		{"/tmp", false},
		{"/nonexistent", false},
	}

	for _, test := range tests {
		result := isCharacterDevice(test.path)
		if result != test.expected {
			t.Errorf("isCharacterDevice(%s) = %v, expected %v", test.path, result, test.expected)
		}
	}
}

func TestGetPortDescription(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"ttyUSB0", "USB Serial Port"},
		{"ttyACM0", "USB CDC/ACM Device"},
		{"ttyS0", "Standard Serial Port"},
		{"ttyAMA0", "ARM Serial Port"},
		{"ttymxc0", "i.MX Serial Port"},
		{"ttyO0", "OMAP Serial Port"},
		{"ttySAC0", "Samsung Serial Port"},
		{"ttyTHS0", "Tegra Serial Port"},
		{"unknown", "Serial Port"},
	}

	for _, test := range tests {
		result := getPortDescription(test.name)
		if result != test.expected {
			t.Errorf("getPortDescription(%s) = %s, expected %s", test.name, result, test.expected)
		}
	}
}

func TestGetPortInfo(t *testing.T) {
	info, err := GetPortInfo("/dev/null")
	if err != nil {
		t.Fatalf("GetPortInfo failed for /dev/null: %v", err)
	}

	if info.Name != "null" {
		t.Errorf("Expected name 'null', got '%s'", info.Name)
	}

	if info.Path != "/dev/null" {
		t.Errorf("Expected path '/dev/null', got '%s'", info.Path)
	}

	if info.Description == "" {
		t.Error("Description should not be empty")
	}

	_, err = GetPortInfo("/dev/nonexistent")
	if err != ErrDeviceNotFound {
		t.Errorf("Expected ErrDeviceNotFound, got %v", err)
	}
}

func TestPortFiltering(t *testing.T) {
	testDevices := []struct {
		name        string
		shouldMatch bool
	}{
		{"ttyUSB0", true},
		{"ttyUSB1", true},
		{"ttyACM0", true},
		{"ttyS0", true},
		{"ttyAMA0", true},
		{"ttyTHS2", true},
		{"tty1", false},    // virtual terminal
		{"tty2", false},    // virtual terminal
		{"console", false}, // console
		{"ptmx", false},    // pty multiplexer
		{"ptyp0", false},   // pseudo-terminal
		{"random", false},
		{"urandom", false},
	}

	for _, device := range testDevices {
		matched := isSerialName(device.name) && !isExcludedName(device.name)
		if matched != device.shouldMatch {
			t.Errorf("Device %s: expected match=%v, got %v", device.name, device.shouldMatch, matched)
		}
	}
}

func TestReadSysfsFile(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "idVendor")
	if err := os.WriteFile(testFile, []byte("0403\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if got := readSysfsFile(testFile); got != "0403" {
		t.Errorf("Expected '0403', got '%s'", got)
	}

	if got := readSysfsFile(filepath.Join(tmpDir, "missing")); got != "" {
		t.Errorf("Expected empty string for missing file, got '%s'", got)
	}
}

func TestEnrichUSBInfo(t *testing.T) {
	tmpDir := t.TempDir()

	// devices/usb5/5-2.3.1/5-2.3.1:1.0/ttyUSB0 mirrors an FTDI adapter
	usbDevice := filepath.Join(tmpDir, "devices", "usb5", "5-2.3.1")
	usbInterface := filepath.Join(usbDevice, "5-2.3.1:1.0")
	ttyDevice := filepath.Join(usbInterface, "ttyUSB0")
	if err := os.MkdirAll(ttyDevice, 0o755); err != nil {
		t.Fatal(err)
	}

	attrs := map[string]string{
		"idVendor":     "0403",
		"idProduct":    "6001",
		"serial":       "FT123456",
		"manufacturer": "FTDI",
		"product":      "FT232R USB UART",
		"busnum":       "5",
		"devnum":       "12",
	}
	for name, value := range attrs {
		if err := os.WriteFile(filepath.Join(usbDevice, name), []byte(value+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(usbInterface, "bInterfaceNumber"), []byte("00\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	classDir := filepath.Join(tmpDir, "class", "tty", "ttyUSB0")
	if err := os.MkdirAll(classDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(ttyDevice, filepath.Join(classDir, "device")); err != nil {
		t.Fatal(err)
	}

	info := &PortInfo{Name: "ttyUSB0", Path: "/dev/ttyUSB0"}
	enrichUSBInfo(info, tmpDir)

	expected := PortInfo{
		Name:            "ttyUSB0",
		Path:            "/dev/ttyUSB0",
		VendorID:        "0403",
		ProductID:       "6001",
		SerialNumber:    "FT123456",
		Manufacturer:    "FTDI",
		Product:         "FT232R USB UART",
		InterfaceNumber: "00",
		BusNumber:       "5",
		DeviceNumber:    "12",
	}
	if *info != expected {
		t.Errorf("enrichUSBInfo mismatch:\n got %+v\nwant %+v", *info, expected)
	}
}

func TestEnrichUSBInfoMissingDevice(t *testing.T) {
	info := &PortInfo{Name: "ttyUSB9"}
	enrichUSBInfo(info, t.TempDir())

	if info.VendorID != "" || info.SerialNumber != "" {
		t.Errorf("Expected empty USB fields, got %+v", *info)
	}
}

func BenchmarkListPorts(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, err := ListPorts()
		if err != nil {
			b.Errorf("ListPorts failed: %v", err)
		}
	}
}

func TestListPortsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ports, err := ListPorts()
	if err != nil {
		t.Fatalf("ListPorts failed: %v", err)
	}

	t.Logf("Found %d serial ports:", len(ports))
	for i, port := range ports {
		info, err := GetPortInfo(port)
		if err != nil {
			t.Logf("  %d. %s (error getting info: %v)", i+1, port, err)
		} else {
			t.Logf("  %d. %s (%s)", i+1, port, info.Description)
		}
	}
}
