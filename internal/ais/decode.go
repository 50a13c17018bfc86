package ais

import (
	"fmt"
	"strconv"

	"ais_parser/internal/sixbit"
)

// Decode unpacks the record's armored payload and fills in the fields for
// its message type. Types outside the supported set keep envelope fields
// and the type number only. Short payloads read as zero bits, so decoding
// never fails; trailing text fields come out empty and trailing numeric
// fields zero.
func Decode(r *PositionReport) {
	bs := sixbit.Decode(r.RawPayload)
	r.MessageType = bs.Uint(0, 6)

	switch r.MessageType {
	case 1, 2, 3: // Position Report Class A
		r.MMSI = strconv.FormatUint(bs.Uint(8, 30), 10)
		r.NavigationStatus = strconv.FormatUint(bs.Uint(38, 4), 10)
		r.SpeedOverGround = strconv.FormatUint(bs.Uint(50, 10), 10)
		r.PositionAccuracy = strconv.FormatUint(bs.Uint(60, 1), 10)
		r.Longitude = float64(bs.Int(61, 28)) / 600000.0
		r.Latitude = float64(bs.Int(89, 27)) / 600000.0
		r.CourseOverGround = strconv.FormatUint(bs.Uint(116, 12), 10)

	case 5: // Static and Voyage Related Data
		r.MMSI = strconv.FormatUint(bs.Uint(8, 30), 10)
		r.IMO = strconv.FormatUint(bs.Uint(40, 30), 10)
		r.CallSign = bs.Text(70, 42)
		r.Name = bs.Text(112, 120)
		r.ShipType = strconv.FormatUint(bs.Uint(232, 8), 10)
		r.ETA = fmt.Sprintf("%02d-%02d %02d:%02d",
			bs.Uint(274, 4), bs.Uint(278, 5), bs.Uint(283, 5), bs.Uint(288, 6))
		r.Draught = strconv.FormatUint(bs.Uint(294, 8), 10)
		r.Destination = bs.Text(302, 120)

	case 18: // Standard Class B CS Position Report
		r.MMSI = strconv.FormatUint(bs.Uint(8, 30), 10)
		r.SpeedOverGround = strconv.FormatUint(bs.Uint(46, 10), 10)
		r.PositionAccuracy = strconv.FormatUint(bs.Uint(56, 1), 10)
		r.Longitude = float64(bs.Int(57, 28)) / 600000.0
		r.Latitude = float64(bs.Int(85, 27)) / 600000.0
		r.CourseOverGround = strconv.FormatUint(bs.Uint(112, 12), 10)

	case 19: // Extended Class B CS Position Report
		r.MMSI = strconv.FormatUint(bs.Uint(8, 30), 10)
		r.SpeedOverGround = strconv.FormatUint(bs.Uint(46, 10), 10)
		r.PositionAccuracy = strconv.FormatUint(bs.Uint(56, 1), 10)
		r.Longitude = float64(bs.Int(57, 28)) / 600000.0
		r.Latitude = float64(bs.Int(85, 27)) / 600000.0
		r.CourseOverGround = strconv.FormatUint(bs.Uint(112, 12), 10)
		r.Name = bs.Text(143, 120)
		r.ShipType = strconv.FormatUint(bs.Uint(263, 8), 10)
	}
}

// Kinetic reports whether the message type carries a position fix.
func Kinetic(messageType uint64) bool {
	switch messageType {
	case 1, 2, 3, 18, 19:
		return true
	}
	return false
}
