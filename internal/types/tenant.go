package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

const (
	ColumnID   = "id"
	ColumnName = "name"
	ColumnHost = "host"
)

// TenantRecord is one row of the tenant table. The columns the clone flow
// overrides are typed fields; every other column is carried verbatim.
type TenantRecord struct {
	ID      string
	Name    string
	Host    string
	Columns map[string]json.RawMessage
}

// ParseTenantRecord decodes a row_to_json object.
func ParseTenantRecord(data []byte) (*TenantRecord, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse tenant metadata: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("tenant metadata is not a JSON object")
	}

	rec := &TenantRecord{Columns: make(map[string]json.RawMessage, len(raw))}
	for col, val := range raw {
		switch col {
		case ColumnID:
			if err := json.Unmarshal(val, &rec.ID); err != nil {
				return nil, fmt.Errorf("tenant id: %w", err)
			}
		case ColumnName:
			if !isNull(val) {
				if err := json.Unmarshal(val, &rec.Name); err != nil {
					return nil, fmt.Errorf("tenant name: %w", err)
				}
			}
		case ColumnHost:
			if err := json.Unmarshal(val, &rec.Host); err != nil {
				return nil, fmt.Errorf("tenant host: %w", err)
			}
		default:
			rec.Columns[col] = val
		}
	}
	if rec.ID == "" {
		return nil, fmt.Errorf("tenant metadata has no id")
	}
	if rec.Host == "" {
		return nil, fmt.Errorf("tenant metadata has no host")
	}
	return rec, nil
}

// MarshalJSON writes the record back as a flat column object.
func (t *TenantRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(t.Columns)+3)
	for col, val := range t.Columns {
		out[col] = val
	}
	for col, val := range map[string]string{ColumnID: t.ID, ColumnName: t.Name, ColumnHost: t.Host} {
		b, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		out[col] = b
	}
	return json.Marshal(out)
}

// ColumnNames lists every column, sorted.
func (t *TenantRecord) ColumnNames() []string {
	names := []string{ColumnID, ColumnName, ColumnHost}
	for col := range t.Columns {
		names = append(names, col)
	}
	sort.Strings(names)
	return names
}

// CloneOverrides are the fields a restored tenant does not inherit.
type CloneOverrides struct {
	ID               string
	Host             string
	NameSuffix       string
	Now              time.Time
	TimestampColumns []string
}

// Clone copies every column and applies the overrides. Timestamp columns
// missing from the source row are left out, not added.
func (t *TenantRecord) Clone(o CloneOverrides) *TenantRecord {
	next := &TenantRecord{
		ID:      o.ID,
		Name:    t.Name + o.NameSuffix,
		Host:    o.Host,
		Columns: make(map[string]json.RawMessage, len(t.Columns)),
	}
	for col, val := range t.Columns {
		next.Columns[col] = append(json.RawMessage(nil), val...)
	}

	stamp, _ := json.Marshal(o.Now.UTC().Format(time.RFC3339Nano))
	for _, col := range o.TimestampColumns {
		if _, ok := next.Columns[col]; ok {
			next.Columns[col] = stamp
		}
	}
	return next
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
