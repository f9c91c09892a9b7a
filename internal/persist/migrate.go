package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"playmap/internal/playmap"
)

// CurrentVersion is the schema version written by Save.
const CurrentVersion = "1.2.0"

// migration upgrades every record of an envelope from one schema version to
// the next. Records are decoded generically so fields that older versions
// stored differently (or not at all) can be rewritten before typed decoding.
type migration struct {
	from  string
	to    string
	apply func(record map[string]any) error
}

// chain is ordered oldest first; each step's to is the next step's from.
var chain = []migration{
	{from: "1.0.0", to: "1.1.0", apply: backfillNotesAndPhotos},
	{from: "1.1.0", to: "1.2.0", apply: reconstructDates},
}

// upgrade migrates doc in place to CurrentVersion.
func upgrade(doc map[string]any) error {
	version, _ := doc["version"].(string)

	for version != CurrentVersion {
		step, ok := findMigration(version)
		if !ok {
			return fmt.Errorf("unknown data version %q", version)
		}

		records, err := recordsOf(doc)
		if err != nil {
			return err
		}
		for i, record := range records {
			if err := step.apply(record); err != nil {
				return fmt.Errorf("migrating record %d to %s: %w", i, step.to, err)
			}
		}

		version = step.to
		doc["version"] = version
	}
	return nil
}

func findMigration(from string) (migration, bool) {
	for _, m := range chain {
		if m.from == from {
			return m, true
		}
	}
	return migration{}, false
}

// backfillNotesAndPhotos adds the notes and photos fields introduced in 1.1.0.
func backfillNotesAndPhotos(record map[string]any) error {
	if record["notes"] == nil {
		record["notes"] = ""
	}
	if record["photos"] == nil {
		record["photos"] = []any{}
	}
	return nil
}

// reconstructDates converts the epoch-millisecond dates of 1.1.0 to RFC 3339
// strings and backfills dateModified from dateAdded.
func reconstructDates(record map[string]any) error {
	for _, field := range []string{"dateAdded", "dateModified"} {
		v, err := toISODate(record[field])
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		if v != nil {
			record[field] = v
		}
	}

	if loc, ok := record["location"].(map[string]any); ok {
		v, err := toISODate(loc["timestamp"])
		if err != nil {
			return fmt.Errorf("location.timestamp: %w", err)
		}
		if v != nil {
			loc["timestamp"] = v
		}
	}

	if record["dateModified"] == nil {
		record["dateModified"] = record["dateAdded"]
	}
	return nil
}

// toISODate returns v as an RFC 3339 string. Strings pass through; numbers are
// epoch milliseconds; nil stays nil.
func toISODate(v any) (any, error) {
	switch d := v.(type) {
	case nil:
		return nil, nil
	case string:
		return d, nil
	case json.Number:
		if ms, err := d.Int64(); err == nil {
			return formatMillis(ms), nil
		}
		f, err := d.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q", d.String())
		}
		return formatMillis(int64(f)), nil
	case float64:
		return formatMillis(int64(d)), nil
	default:
		return nil, fmt.Errorf("unsupported date value of type %T", v)
	}
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339Nano)
}

// decodeDocument decodes raw into a generic JSON object, keeping numbers
// exact so millisecond timestamps survive.
func decodeDocument(raw string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.New("document is not a JSON object")
	}
	return doc, nil
}

// checkEnvelope verifies the shape of a document before it is migrated.
func checkEnvelope(doc map[string]any) error {
	if _, ok := doc["version"].(string); !ok {
		return errors.New("missing version string")
	}
	if _, ok := doc["playgrounds"].([]any); !ok {
		return errors.New("playgrounds is not an array")
	}
	return nil
}

// checkRecords rejects null entries, which decode to nil records.
func checkRecords(list []*playmap.Playground) error {
	for i, p := range list {
		if p == nil {
			return fmt.Errorf("playground %d is null", i)
		}
	}
	return nil
}

func recordsOf(doc map[string]any) ([]map[string]any, error) {
	raw, ok := doc["playgrounds"]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, errors.New("playgrounds is not an array")
	}

	records := make([]map[string]any, 0, len(list))
	for i, item := range list {
		record, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("playground %d is not an object", i)
		}
		records = append(records, record)
	}
	return records, nil
}

// documentToStoredData decodes a migrated document. Older envelopes stamped
// lastModified as epoch milliseconds; an unreadable stamp is dropped since
// Save rewrites it anyway.
func documentToStoredData(doc map[string]any) (StoredData, error) {
	if v, err := toISODate(doc["lastModified"]); err != nil || v == nil {
		delete(doc, "lastModified")
	} else {
		doc["lastModified"] = v
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return StoredData{}, err
	}
	var data StoredData
	if err := json.Unmarshal(b, &data); err != nil {
		return StoredData{}, err
	}
	return data, nil
}
