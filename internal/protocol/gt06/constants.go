// Package gt06 implements decoders for the GT06 / GT100 GPS protocol
package gt06

// ProtocolName is the family name used in messages and the registry.
const ProtocolName = "gt06"

// Protocol constants
const (
	startByte1 = 0x78
	startByte2 = 0x78
	endByte1   = 0x0D
	endByte2   = 0x0A

	magic = uint16(startByte1)<<8 | startByte2

	// Message types
	loginMsg       = 0x01
	locationMsg    = 0x12
	statusMsg      = 0x13
	alarmMsg       = 0x16
	gt100LocMsg    = 0x22
	onlineCommand  = 0x80
	commandReply   = 0x15

	// Alarm types
	sosAlarm        = 0x01
	powerCutAlarm   = 0x02
	vibrationAlarm  = 0x03
	fenceInAlarm    = 0x04
	fenceOutAlarm   = 0x05
	overspeedAlarm  = 0x06
	AccOnAlarm      = 0xFE
	AccOffAlarm     = 0xFF
	lowBatteryAlarm = 0x19

	// start(2) + len(1) + type(1) ... serial(2) + checksum(2) + end(2)
	frameOverhead = 10

	loginContentLen    = 8
	statusContentLen   = 5
	locationContentLen = 26
	alarmContentLen    = 32
	gt100ContentLen    = 33
	commandContentLen  = 5
)
