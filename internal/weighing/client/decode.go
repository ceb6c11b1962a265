package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// optionalInt decodes a weight that may arrive as a number, a numeric
// string, null, "" or "na". The last three mean unknown.
type optionalInt struct {
	Value *int64
}

func (o *optionalInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(s, "na") {
			o.Value = nil
			return nil
		}
		v, err := parseWeight(s)
		if err != nil {
			return err
		}
		o.Value = &v
		return nil
	}

	v, err := parseWeight(string(data))
	if err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func parseWeight(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("weight %q is not numeric", s)
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("weight %q is not a whole number", s)
	}
	return int64(f), nil
}

// flexID decodes identifiers the weighing service emits as either numbers or
// strings.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id %s is neither string nor number", string(data))
	}
	*f = flexID(n.String())
	return nil
}

// idList decodes a list of ids, or a single comma separated string of ids.
type idList []string

func (l *idList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		out := idList{}
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*l = out
		return nil
	}

	var raw []flexID
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(idList, 0, len(raw))
	for _, id := range raw {
		if id != "" {
			out = append(out, string(id))
		}
	}
	*l = out
	return nil
}

type transactionPayload struct {
	ID         flexID      `json:"id"`
	Direction  string      `json:"direction"`
	Bruto      optionalInt `json:"bruto"`
	Produce    string      `json:"produce"`
	Containers idList      `json:"containers"`
}

type itemPayload struct {
	ID       flexID      `json:"id"`
	Tara     optionalInt `json:"tara"`
	Sessions idList      `json:"sessions"`
}

type sessionPayload struct {
	ID        flexID      `json:"id"`
	Truck     flexID      `json:"truck"`
	Bruto     optionalInt `json:"bruto"`
	Neto      optionalInt `json:"neto"`
	TruckTara optionalInt `json:"truckTara"`
}
