package checkpoint

import (
	"bytes"
	"fmt"
	"strconv"
)

// Record is the durable progress of a job: the accumulated value of every
// completed stage and the stage that runs next.
//
// NextStage is 1-based. A value one past the last stage index is the
// cycle-complete marker.
type Record struct {
	Value     int64
	NextStage int
}

// String returns the on-disk form without the trailing newline.
func (r Record) String() string {
	return strconv.FormatInt(r.Value, 10) + " " + strconv.Itoa(r.NextStage)
}

// MarshalText encodes the record as a single line: "<value> <next_stage>\n".
func (r Record) MarshalText() ([]byte, error) {
	return []byte(r.String() + "\n"), nil
}

// UnmarshalText parses the single-line form written by MarshalText.
// Fields after the second are ignored.
//
// Returns ErrNotFound for empty or whitespace-only input and an error
// wrapping ErrCorruptRecord when the line has fewer than two fields or
// either field is not an integer.
func (r *Record) UnmarshalText(text []byte) error {
	line := text
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		// Only the first line carries the record.
		line = line[:i]
	}
	fields := bytes.Fields(line)
	if len(fields) == 0 {
		if len(bytes.TrimSpace(text)) == 0 {
			return ErrNotFound
		}
		return fmt.Errorf("%w: empty first line", ErrCorruptRecord)
	}
	if len(fields) < 2 {
		return fmt.Errorf("%w: want 2 fields, got %d", ErrCorruptRecord, len(fields))
	}

	value, err := strconv.ParseInt(string(fields[0]), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: value %q: %v", ErrCorruptRecord, fields[0], err)
	}
	next, err := strconv.Atoi(string(fields[1]))
	if err != nil {
		return fmt.Errorf("%w: next stage %q: %v", ErrCorruptRecord, fields[1], err)
	}

	r.Value = value
	r.NextStage = next
	return nil
}

// Parse decodes a record from its text form.
func Parse(data []byte) (Record, error) {
	var r Record
	if err := r.UnmarshalText(data); err != nil {
		return Record{}, err
	}
	return r, nil
}
