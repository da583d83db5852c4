package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// MFAStatus is the per-account summary as last reported by the identity
// service. It is never constructed or mutated client-side beyond caching the
// most recent server response.
type MFAStatus struct {
	Enabled    bool
	EnrolledAt *time.Time
}

// Consistent checks the server contract: enrolled_at is set iff enabled.
func (s MFAStatus) Consistent() bool {
	return s.Enabled == (s.EnrolledAt != nil)
}

// MFAStatusResponse is the wire form of MFAStatus. The enabled flag has been
// observed arriving as bool, string and number depending on the serving
// backend, so it is normalized exactly once here at the API boundary.
type MFAStatusResponse struct {
	Enabled    FlexBool   `json:"enabled"`
	EnrolledAt *time.Time `json:"enrolled_at"`
}

func (r MFAStatusResponse) ToStatus() MFAStatus {
	return MFAStatus{
		Enabled:    bool(r.Enabled),
		EnrolledAt: r.EnrolledAt,
	}
}

// FlexBool accepts bool, string ("true"/"false"/"1"/"0") and number (0/1)
// encodings of a boolean flag.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*b = false
		return nil
	}

	switch data[0] {
	case 't', 'f':
		var v bool
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*b = FlexBool(v)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("flexbool: unrecognized string %q", s)
		}
		*b = FlexBool(v)
		return nil
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("flexbool: unrecognized value %s", data)
		}
		*b = n != 0
		return nil
	}
}

func (b FlexBool) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(b))
}
