package ntime

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// storageLayout matches the TEXT timestamps SQLite produces through
// CURRENT_TIMESTAMP column defaults.
const storageLayout = "2006-01-02 15:04:05"

// displayLayout is the human readable rendering feed rows and comments carry.
const displayLayout = "Jan 2, 2006 at 15:04"

// NTime represents a nullable instant stored as a SQLite TEXT timestamp.
// It can be used as a scan destination and can be marshalled to JSON.
type NTime struct {
	time    time.Time
	isValid bool // false when the column was null
}

// Parse reads a timestamp in the storage layout, mostly useful in tests.
func Parse(value string) (NTime, error) {
	parsed, err := time.Parse(storageLayout, value)
	if err != nil {
		return NTime{}, err
	}
	return NTime{parsed, true}, nil
}

// Formatted renders the instant for presentation; null values yield an empty string.
func (nt NTime) Formatted() string {
	if !nt.isValid {
		return ""
	}
	return nt.time.UTC().Format(displayLayout)
}

func (nt NTime) IsZero() bool {
	return !nt.isValid
}

func (nt *NTime) Before(compared NTime) bool {
	return nt.time.Before(compared.time)
}

// MarshalJSON operates on values rather than pointers, given NTime's heft.
func (nt NTime) MarshalJSON() ([]byte, error) {
	if nt.isValid {
		return []byte(fmt.Sprintf("%q", nt.time.UTC().Format(storageLayout))), nil
	}
	return []byte("null"), nil
}

// UnmarshalJSON parses a storage layout time string.
func (nt *NTime) UnmarshalJSON(b []byte) error {
	parsed, err := time.Parse(`"`+storageLayout+`"`, string(b))
	if err != nil {
		return err
	}
	*nt = NTime{parsed, true}
	return nil
}

// Scan implements the Scanner interface; the sqlite driver hands TEXT columns
// over as strings or byte slices depending on the query path.
func (nt *NTime) Scan(value any) error {
	switch typed := value.(type) {
	case nil:
		*nt = NTime{}
		return nil
	case time.Time:
		*nt = NTime{typed, true}
		return nil
	case string:
		return nt.parse(typed)
	case []byte:
		return nt.parse(string(typed))
	}
	return fmt.Errorf("cannot scan %T into NTime", value)
}

func (nt *NTime) parse(value string) error {
	parsed, err := time.Parse(storageLayout, value)
	if err != nil {
		return err
	}
	*nt = NTime{parsed, true}
	return nil
}

// Value implements the driver Valuer interface.
func (nt NTime) Value() (driver.Value, error) {
	if nt.isValid {
		return driver.Value(nt.time.UTC().Format(storageLayout)), nil
	}
	return nil, nil
}
