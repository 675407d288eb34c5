package poller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is a single vehicle entry/exit event as returned by the records
// endpoint. Absent and null fields decode to the empty string.
type Record struct {
	VehicleNumber Text `json:"vehicle_number"`
	Camera        Text `json:"camera"`
	EntryTime     Text `json:"entry_time"`
	ExitTime      Text `json:"exit_time"`
	Employee      Text `json:"employee"`
}

// Text is a loosely typed field. Strings decode as-is. null, false and
// numeric zero decode to "" and so display as "N/A". Other numbers and true
// keep their JSON literal, and objects and arrays keep their compacted JSON.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*t = Text(buf.String())
	case 'f':
		*t = ""
	case 't':
		*t = Text(data)
	default:
		if f, err := strconv.ParseFloat(string(data), 64); err == nil && f == 0 {
			*t = ""
			return nil
		}
		*t = Text(data)
	}
	return nil
}

// String returns the field value.
func (t Text) String() string {
	return string(t)
}

// decodeRecords decodes a JSON array of records.
func decodeRecords(body []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: expected JSON array", ErrMalformedBody)
	}

	var records []Record
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}
