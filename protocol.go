package sweep

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// command is a two-letter Sweep command mnemonic.
type command [2]byte

func (c command) String() string {
	return string(c[:])
}

var (
	cmdStartScan        = command{'D', 'S'}
	cmdStopScan         = command{'D', 'X'}
	cmdMotorSpeedAdjust = command{'M', 'S'}
	cmdMotorReady       = command{'M', 'Z'}
	cmdMotorInfo        = command{'M', 'I'}
	cmdSampleRateAdjust = command{'L', 'R'}
	cmdSampleRateInfo   = command{'L', 'I'}
	cmdVersionInfo      = command{'I', 'V'}
	cmdDeviceInfo       = command{'I', 'D'}
	cmdReset            = command{'R', 'R'}
)

// Wire sizes in bytes
const (
	headerSize        = 6  // cmd(2) status(2) sum term
	paramResponseSize = 9  // cmd(2) param(2) term status(2) sum term
	infoResponseSize  = 5  // cmd(2) value(2) term
	versionInfoSize   = 21 // cmd(2) model(5) proto(2) fw(2) hw serial(8) term
	deviceInfoSize    = 18 // cmd(2) bitrate(6) laser mode diag speed(2) rate(4) term
	scanPacketSize    = 7  // sync/error angle(2) distance(2) signal checksum
)

const terminator = '\n'

// Status codes carried in response headers
const (
	statusInvalidParameter = 11
	statusNotStabilized    = 12
	statusMotorStationary  = 13
)

const (
	syncBit   = 0x01
	errorBits = 0xFE
)

func encodeCommand(cmd command) []byte {
	return []byte{cmd[0], cmd[1], terminator}
}

func encodeCommandParam(cmd command, arg int) ([]byte, error) {
	digits, err := encodeDigits(arg)
	if err != nil {
		return nil, err
	}
	return []byte{cmd[0], cmd[1], digits[0], digits[1], terminator}, nil
}

// encodeDigits renders v as two ASCII digits.
func encodeDigits(v int) ([2]byte, error) {
	if v < 0 || v > 99 {
		return [2]byte{}, fmt.Errorf("parameter %d out of range", v)
	}
	return [2]byte{byte('0' + v/10), byte('0' + v%10)}, nil
}

// decodeDigits parses a run of ASCII digits.
func decodeDigits(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, fmt.Errorf("%w: empty numeric field", ErrUnexpectedResponse)
	}
	v := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: non-digit %q in numeric field", ErrUnexpectedResponse, c)
		}
		v = v*10 + int(c-'0')
	}
	return v, nil
}

func statusChecksum(s1, s2 byte) byte {
	return ((s1 + s2) & 0x3F) + 0x30
}

func expectCommand(buf []byte, cmd command) error {
	if buf[0] != cmd[0] || buf[1] != cmd[1] {
		return fmt.Errorf("%w: expected %s, got %q", ErrUnexpectedResponse, cmd, buf[:2])
	}
	return nil
}

// parseHeader decodes a status response and returns its status code.
func parseHeader(buf []byte, cmd command) (int, error) {
	if len(buf) != headerSize {
		return 0, fmt.Errorf("%w: header is %d bytes", ErrUnexpectedResponse, len(buf))
	}
	if statusChecksum(buf[2], buf[3]) != buf[4] {
		return 0, fmt.Errorf("%w: response header", ErrChecksum)
	}
	if err := expectCommand(buf, cmd); err != nil {
		return 0, err
	}
	return decodeDigits(buf[2:4])
}

// parseParamResponse decodes the echo of a command that carried a parameter.
func parseParamResponse(buf []byte, cmd command) (int, error) {
	if len(buf) != paramResponseSize {
		return 0, fmt.Errorf("%w: param response is %d bytes", ErrUnexpectedResponse, len(buf))
	}
	if statusChecksum(buf[5], buf[6]) != buf[7] {
		return 0, fmt.Errorf("%w: param response", ErrChecksum)
	}
	if err := expectCommand(buf, cmd); err != nil {
		return 0, err
	}
	return decodeDigits(buf[5:7])
}

// parseInfoResponse decodes a two-digit query response (MZ, MI, LI).
func parseInfoResponse(buf []byte, cmd command) (int, error) {
	if len(buf) != infoResponseSize {
		return 0, fmt.Errorf("%w: info response is %d bytes", ErrUnexpectedResponse, len(buf))
	}
	if err := expectCommand(buf, cmd); err != nil {
		return 0, err
	}
	return decodeDigits(buf[2:4])
}

// VersionInfo is the response to the IV command.
type VersionInfo struct {
	Model           string
	ProtocolMajor   int
	ProtocolMinor   int
	FirmwareMajor   int
	FirmwareMinor   int
	HardwareVersion int
	SerialNumber    string
}

func (v VersionInfo) Protocol() string {
	return fmt.Sprintf("%d.%d", v.ProtocolMajor, v.ProtocolMinor)
}

func (v VersionInfo) Firmware() string {
	return fmt.Sprintf("%d.%d", v.FirmwareMajor, v.FirmwareMinor)
}

func parseVersionInfo(buf []byte) (VersionInfo, error) {
	if len(buf) != versionInfoSize {
		return VersionInfo{}, fmt.Errorf("%w: version info is %d bytes", ErrUnexpectedResponse, len(buf))
	}
	if err := expectCommand(buf, cmdVersionInfo); err != nil {
		return VersionInfo{}, err
	}

	var info VersionInfo
	info.Model = string(buf[2:7])
	fields := []*int{&info.ProtocolMajor, &info.ProtocolMinor, &info.FirmwareMajor, &info.FirmwareMinor, &info.HardwareVersion}
	for i, f := range fields {
		v, err := decodeDigits(buf[7+i : 8+i])
		if err != nil {
			return VersionInfo{}, err
		}
		*f = v
	}
	info.SerialNumber = string(buf[12:20])
	return info, nil
}

// DeviceInfo is the response to the ID command.
type DeviceInfo struct {
	BitRate    int
	LaserState byte
	Mode       byte
	Diagnostic byte
	MotorSpeed int // Hz
	SampleRate int // Hz
}

func parseDeviceInfo(buf []byte) (DeviceInfo, error) {
	if len(buf) != deviceInfoSize {
		return DeviceInfo{}, fmt.Errorf("%w: device info is %d bytes", ErrUnexpectedResponse, len(buf))
	}
	if err := expectCommand(buf, cmdDeviceInfo); err != nil {
		return DeviceInfo{}, err
	}

	bitRate, err := decodeDigits(buf[2:8])
	if err != nil {
		return DeviceInfo{}, err
	}
	speed, err := decodeDigits(buf[11:13])
	if err != nil {
		return DeviceInfo{}, err
	}
	code, err := decodeDigits(buf[13:17])
	if err != nil {
		return DeviceInfo{}, err
	}
	rate, ok := sampleRateFromCode(code)
	if !ok {
		rate = code
	}

	return DeviceInfo{
		BitRate:    bitRate,
		LaserState: buf[8],
		Mode:       buf[9],
		Diagnostic: buf[10],
		MotorSpeed: speed,
		SampleRate: rate,
	}, nil
}

// Sample rate codes used by LR and LI
func sampleRateFromCode(code int) (int, bool) {
	switch code {
	case 1:
		return 500, true
	case 2:
		return 750, true
	case 3:
		return 1000, true
	default:
		return 0, false
	}
}

func sampleRateCode(hz int) (int, bool) {
	switch hz {
	case 500:
		return 1, true
	case 750:
		return 2, true
	case 1000:
		return 3, true
	default:
		return 0, false
	}
}

// scanPacket is one 7-byte reading from the scan stream.
type scanPacket struct {
	syncError      byte
	angle          uint16 // 1/16 degree
	distance       uint16 // cm
	signalStrength byte
}

func (p scanPacket) isSync() bool {
	return p.syncError&syncBit != 0
}

func (p scanPacket) hasError() bool {
	return p.syncError&errorBits != 0
}

func (p scanPacket) sample() Sample {
	return Sample{
		Angle:          angleToMillidegrees(p.angle),
		Distance:       int32(p.distance),
		SignalStrength: int32(p.signalStrength),
	}
}

// scanChecksum is the byte sum of the first six packet bytes modulo 255.
func scanChecksum(buf []byte) byte {
	var sum uint32
	for _, b := range buf[:scanPacketSize-1] {
		sum += uint32(b)
	}
	return byte(sum % 255)
}

func parseScanPacket(buf []byte) (scanPacket, error) {
	if len(buf) != scanPacketSize {
		return scanPacket{}, fmt.Errorf("%w: scan packet is %d bytes", ErrUnexpectedResponse, len(buf))
	}
	if scanChecksum(buf) != buf[6] {
		return scanPacket{}, fmt.Errorf("%w: scan packet", ErrChecksum)
	}
	return scanPacket{
		syncError:      buf[0],
		angle:          binary.LittleEndian.Uint16(buf[1:3]),
		distance:       binary.LittleEndian.Uint16(buf[3:5]),
		signalStrength: buf[5],
	}, nil
}

func encodeScanPacket(p scanPacket) []byte {
	buf := make([]byte, scanPacketSize)
	buf[0] = p.syncError
	binary.LittleEndian.PutUint16(buf[1:3], p.angle)
	binary.LittleEndian.PutUint16(buf[3:5], p.distance)
	buf[5] = p.signalStrength
	buf[6] = scanChecksum(buf)
	return buf
}

// angleToMillidegrees converts a fixed-point angle with four fractional bits.
func angleToMillidegrees(raw uint16) int32 {
	return int32(raw>>4)*1000 + int32(raw&0x0F)*1000/16
}

// readFull reads exactly len(buf) bytes. A read that returns no data and no
// error means the port's read timeout expired.
func readFull(r io.Reader, buf []byte) error {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if total == len(buf) {
			return nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		if n == 0 {
			return ErrReadTimeout
		}
	}
	return nil
}
