// Package ais provides the decoded position report record and the bit-field
// decoders for the supported AIS message types.
package ais

import (
	"bytes"
	"encoding/json"
)

// Message classes.
const (
	ClassSingleline = "singleline"
	ClassMultiline  = "multiline"
)

// PositionReport carries one decoded logical AIS message. It is created with
// envelope fields only, filled in by Decode, and serialized once. Fields that
// do not apply to a message type keep their zero values. Numeric-domain
// fields stay strings to match the established output schema.
type PositionReport struct {
	Sentence                 string  `json:"sentence"`
	LandfallTime             string  `json:"landfall_time"`
	Group                    string  `json:"group"`
	SatelliteAcquisitionTime string  `json:"satellite_acquisition_time"`
	Source                   string  `json:"source"`
	Channel                  string  `json:"channel"`
	RawPayload               string  `json:"raw_payload"`
	MessageType              uint64  `json:"message_type"`
	MessageClass             string  `json:"message_class"`
	MMSI                     string  `json:"mmsi"`
	Latitude                 float64 `json:"latitude"`
	Longitude                float64 `json:"longitude"`
	CallSign                 string  `json:"call_sign"`
	Destination              string  `json:"destination"`
	Name                     string  `json:"name"`
	ShipType                 string  `json:"ship_type"`
	ETA                      string  `json:"eta"`
	Draught                  string  `json:"draught"`
	IMO                      string  `json:"imo"`
	CourseOverGround         string  `json:"course_over_ground"`
	PositionAccuracy         string  `json:"position_accuracy"`
	SpeedOverGround          string  `json:"speed_over_ground"`
	NavigationStatus         string  `json:"navigation_status"`
}

// AppendJSON appends the record serialized as a single JSON line, including
// the trailing newline. HTML escaping is off so the armored payload appears
// verbatim.
func (r *PositionReport) AppendJSON(buf []byte) ([]byte, error) {
	w := bytes.NewBuffer(buf)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return buf, err
	}
	return w.Bytes(), nil
}
