// Package serial provides raw termios access to serial ports on Linux.
//
// It is the transport underneath the serterm session engine: ports are
// opened in raw mode with non-blocking reads so a polling loop can ask how
// many bytes are waiting and read exactly those without stalling.
//
// # Basic Usage
//
// Open a serial port with default configuration (9600 8N1, non-blocking):
//
//	port, err := serial.Open("/dev/ttyUSB0")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	n, err := port.Write([]byte("Hello"))
//
//	waiting, err := port.InWaiting()
//	buffer := make([]byte, waiting)
//	n, err = port.Read(buffer)
//
// # Configuration Options
//
//	port, err := serial.Open("/dev/ttyUSB0",
//	    serial.WithBaudRate(115200),
//	    serial.WithStopBits(2),
//	    serial.WithParity(serial.ParityEven),
//	)
//
// WithReadTimeout sets VTIME for callers that prefer a blocking read with
// a timeout over polling.
//
// # Port Discovery
//
//	ports, err := serial.ListPorts()
//	for _, portPath := range ports {
//	    info, _ := serial.GetPortInfo(portPath)
//	    fmt.Printf("%s: %s (VID=%s PID=%s)\n",
//	        info.Path, info.Description, info.VendorID, info.ProductID)
//	}
//
// # Error Handling
//
// Open classifies failures so callers can use errors.Is:
//
//	if errors.Is(err, serial.ErrDeviceNotFound) {
//	    // unplugged or misspelled
//	}
//
// Flow control and modem signal lines are not managed; CLOCAL is always set.
package serial
