package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/cognicore/chatpulse/pkg/chatpulse/internalerr"
	"github.com/cognicore/chatpulse/pkg/chatpulse/store"
)

// Format names a payload encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// ParseFormat maps a config or flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatMsgpack:
		return f, nil
	case "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", internalerr.ErrUnknownFormat, s)
	}
}

// Encode serializes r in the given format.
func Encode(r WeeklyReport, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return json.Marshal(r)
	case FormatMsgpack:
		return msgpack.Marshal(r)
	default:
		return nil, fmt.Errorf("%w: %q", internalerr.ErrUnknownFormat, f)
	}
}

// Decode parses a payload produced by Encode.
func Decode(data []byte, f Format) (WeeklyReport, error) {
	var r WeeklyReport
	var err error
	switch f {
	case FormatJSON:
		err = json.Unmarshal(data, &r)
	case FormatMsgpack:
		err = msgpack.Unmarshal(data, &r)
	default:
		return WeeklyReport{}, fmt.Errorf("%w: %q", internalerr.ErrUnknownFormat, f)
	}
	if err != nil {
		return WeeklyReport{}, fmt.Errorf("decode %s report: %w", f, err)
	}
	return r, nil
}

// ToRecord encodes r into the row the store persists.
func ToRecord(r WeeklyReport, f Format) (store.Report, error) {
	payload, err := Encode(r, f)
	if err != nil {
		return store.Report{}, err
	}
	return store.Report{
		ID:          r.ID,
		ServerID:    r.ServerID,
		WeekStart:   r.WeekStart,
		GeneratedAt: r.GeneratedAt,
		Format:      string(f),
		Payload:     payload,
	}, nil
}

// FromRecord decodes a stored row.
func FromRecord(rec store.Report) (WeeklyReport, error) {
	f, err := ParseFormat(rec.Format)
	if err != nil {
		return WeeklyReport{}, err
	}
	return Decode(rec.Payload, f)
}
