package transport

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// OpenSerial opens device at baud with 8N1 framing.
func OpenSerial(device string, baud int) (io.ReadWriteCloser, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("transport: open serial %s: %w", device, err)
	}
	return port, nil
}

// SerialPorts lists the serial devices visible to the host.
func SerialPorts() ([]string, error) {
	return serial.GetPortsList()
}
