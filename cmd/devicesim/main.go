// Command devicesim connects to the TCP gateway as a tracking terminal and
// sends location reports in one of the supported protocols.
package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"math"
	"net"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"telematics/internal/protocol/gt06"
)

type report struct {
	at        time.Time
	lat, lon  float64
	speed     float64 // km/h
	course    float64
	distance  int
	alarmCode int
}

func main() {
	var (
		addr     = flag.String("addr", "localhost:5023", "gateway TCP address")
		proto    = flag.String("protocol", "gt06", "gt06, xtakip or h02")
		deviceID = flag.String("device", "123456789012345", "device identifier (15 digit IMEI for gt06)")
		count    = flag.Int("count", 5, "number of location reports")
		interval = flag.Duration("interval", 2*time.Second, "delay between reports")
		lat      = flag.Float64("lat", 41.0082, "start latitude")
		lon      = flag.Float64("lon", 28.9784, "start longitude")
		alarm    = flag.Int("alarm", 0, "alarm code sent with the last report")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", *addr).Msg("failed to connect")
	}
	defer conn.Close()

	sim, err := newSimulator(*proto, *deviceID)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid simulator settings")
	}

	if login := sim.login(); login != nil {
		send(conn, "login", login)
	}

	r := report{lat: *lat, lon: *lon, speed: 42, course: 90}
	for i := 0; i < *count; i++ {
		r.at = time.Now().UTC()
		r.alarmCode = 0
		if i == *count-1 {
			r.alarmCode = *alarm
		}
		send(conn, "location", sim.location(r))

		// drift east at the reported speed
		r.lon += r.speed / 3600 * interval.Seconds() / (111.32 * math.Cos(r.lat*math.Pi/180))
		r.distance += int(r.speed / 3.6 * interval.Seconds())
		time.Sleep(*interval)
	}

	if hb := sim.heartbeat(); hb != nil {
		send(conn, "heartbeat", hb)
	}
}

func send(conn net.Conn, what string, frame []byte) {
	if _, err := conn.Write(frame); err != nil {
		log.Fatal().Err(err).Str("frame", what).Msg("write failed")
	}
	log.Info().Str("frame", what).Str("data", printable(frame)).Msg("sent")

	conn.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	var netErr net.Error
	switch {
	case err == nil:
		log.Info().Str("data", printable(buf[:n])).Msg("received")
	case errors.As(err, &netErr) && netErr.Timeout():
	default:
		log.Fatal().Err(err).Msg("read failed")
	}
}

func printable(b []byte) string {
	for _, c := range b {
		if c < 0x20 || c > 0x7E {
			return strings.ToUpper(hex.EncodeToString(b))
		}
	}
	return string(b)
}

type simulator struct {
	protocol string
	deviceID string
	serial   uint16
}

func newSimulator(protocolName, deviceID string) (*simulator, error) {
	switch protocolName {
	case "gt06":
		if len(deviceID) != 15 || strings.Trim(deviceID, "0123456789") != "" {
			return nil, fmt.Errorf("gt06 device id must be a 15 digit IMEI, got %q", deviceID)
		}
	case "xtakip", "h02":
		if deviceID == "" || strings.ContainsAny(deviceID, ",#$*") {
			return nil, fmt.Errorf("invalid device id %q", deviceID)
		}
	default:
		return nil, fmt.Errorf("unknown protocol %q", protocolName)
	}
	return &simulator{protocol: protocolName, deviceID: deviceID}, nil
}

func (s *simulator) login() []byte {
	if s.protocol != "gt06" {
		return nil
	}
	terminal, _ := hex.DecodeString("0" + s.deviceID)
	return s.gt06Packet(0x01, terminal)
}

func (s *simulator) heartbeat() []byte {
	now := time.Now().UTC()
	switch s.protocol {
	case "xtakip":
		return []byte(fmt.Sprintf("$$HX,%s,%s##", s.deviceID, now.Format("020106150405")))
	case "h02":
		return []byte(fmt.Sprintf("*HQ,%s,HTBT#", s.deviceID))
	default:
		return nil
	}
}

func (s *simulator) location(r report) []byte {
	switch s.protocol {
	case "xtakip":
		return []byte(fmt.Sprintf("$$L,%s,%s,%s,%s,%d,%d,%d,A,%d,0--##",
			s.deviceID, r.at.Format("020106150405"),
			nmea(r.lat, 2, "N", "S"), nmea(r.lon, 3, "E", "W"),
			int(r.speed), int(r.course), r.distance, r.alarmCode))
	case "h02":
		status := "FFFFFBFF"
		if r.alarmCode == 1 {
			status = "FFFFFBFD" // SOS bit cleared
		}
		return []byte(fmt.Sprintf("*HQ,%s,V1,%s,A,%s,%s,%.2f,%d,%s,%s#",
			s.deviceID, r.at.Format("150405"),
			nmea(r.lat, 2, "N", "S"), nmea(r.lon, 3, "E", "W"),
			r.speed/1.852, int(r.course), r.at.Format("020106"), status))
	default:
		return s.gt06Location(r)
	}
}

func (s *simulator) gt06Location(r report) []byte {
	content := []byte{
		byte(r.at.Year() - 2000), byte(r.at.Month()), byte(r.at.Day()),
		byte(r.at.Hour()), byte(r.at.Minute()), byte(r.at.Second()),
		0xC9,
	}
	content = appendUint32(content, uint32(math.Abs(r.lat)*1800000))
	content = appendUint32(content, uint32(math.Abs(r.lon)*1800000))
	content = append(content, byte(r.speed))

	courseStatus := uint16(r.course) & 0x03FF
	courseStatus |= 0x1000 // positioned
	if r.lat >= 0 {
		courseStatus |= 0x0400
	}
	if r.lon < 0 {
		courseStatus |= 0x0800
	}
	content = append(content, byte(courseStatus>>8), byte(courseStatus))

	if r.alarmCode == 0 {
		content = append(content, 0x01, 0xCC, 0x00, 0x28, 0x7D, 0x00, 0x1F, 0xB8)
		return s.gt06Packet(0x12, content)
	}

	// alarm packet: LBS length, LBS, terminal info, voltage, GSM, alarm, language
	content = append(content, 0x09, 0x01, 0xCC, 0x00, 0x28, 0x7D, 0x00, 0x1F, 0xB8)
	content = append(content, 0x46, 0x04, 0x04, byte(r.alarmCode), 0x02)
	return s.gt06Packet(0x16, content)
}

func (s *simulator) gt06Packet(typ byte, content []byte) []byte {
	s.serial++
	pkt := []byte{0x78, 0x78, byte(len(content) + 5), typ}
	pkt = append(pkt, content...)
	pkt = append(pkt, byte(s.serial>>8), byte(s.serial))
	crc := gt06.CalculateChecksum(pkt[2:])
	return append(pkt, byte(crc>>8), byte(crc), 0x0D, 0x0A)
}

func appendUint32(b []byte, v uint32) []byte {
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// nmea formats a coordinate as DDMM.MMMM or DDDMM.MMMM plus its hemisphere.
func nmea(v float64, degDigits int, positive, negative string) string {
	hemi := positive
	if v < 0 {
		hemi = negative
		v = -v
	}
	deg := math.Floor(v)
	minutes := (v - deg) * 60
	return fmt.Sprintf("%0*d%07.4f,%s", degDigits, int(deg), minutes, hemi)
}
