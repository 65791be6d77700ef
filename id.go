// Package flake - id.go provides the ID type with encoding and utility
// methods.
//
// ID wraps a uint64 flake ID and provides encoding formats, database and
// JSON integration, component extraction, and comparison. The timestamp
// field is relative to a generator's epoch, so the accessors that produce
// absolute time take the epoch as an argument.

package flake

import (
	"database/sql/driver"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strconv"
	"time"
)

// ID is a flake identifier.
//
// The underlying value is an unsigned 64-bit integer whose top bit is
// always zero (see layout.go), so conversion to int64 for database BIGINT
// columns and wire formats that lack unsigned types is exact.
//
// IDs generated by one instance are numerically ordered by generation
// time, so Before/After/Compare are time comparisons.
type ID uint64

// Uint64 returns the ID as a uint64.
func (id ID) Uint64() uint64 {
	return uint64(id)
}

// Int64 returns the ID as an int64. Always non-negative because the sign
// bit of a packed ID is zero.
func (id ID) Int64() int64 {
	return int64(id)
}

// String returns the decimal representation. Implements fmt.Stringer.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Base2 returns a binary string representation, mainly for debugging the
// bit layout.
func (id ID) Base2() string {
	return strconv.FormatUint(uint64(id), 2)
}

// Base32 returns a z-base-32 encoded string. Case-insensitive alphabet
// without visually similar characters; suited to IDs humans retype.
func (id ID) Base32() string {
	return encodeBase32(uint64(id))
}

// Base36 returns a base36 encoded string (0-9, a-z).
func (id ID) Base36() string {
	return strconv.FormatUint(uint64(id), 36)
}

// Base58 returns a Bitcoin-style base58 encoded string. Excludes the
// ambiguous characters 0, O, I, l.
func (id ID) Base58() string {
	return encodeBase58(uint64(id))
}

// Base62 returns a URL-safe base62 encoded string (0-9, a-z, A-Z). The
// recommended encoding for REST API and URL identifiers.
func (id ID) Base62() string {
	return encodeBase62(uint64(id))
}

// Base64 returns the standard base64 encoding of the decimal string form.
func (id ID) Base64() string {
	return base64.StdEncoding.EncodeToString(id.Bytes())
}

// Base64URL returns the URL-safe base64 encoding of the decimal string
// form.
func (id ID) Base64URL() string {
	return base64.URLEncoding.EncodeToString(id.Bytes())
}

// Hex returns the lowercase hexadecimal representation.
func (id ID) Hex() string {
	return encodeHex(uint64(id))
}

// Bytes returns the decimal string form as a byte slice. For the binary
// integer representation use IntBytes.
func (id ID) Bytes() []byte {
	return []byte(id.String())
}

// IntBytes returns the ID as an 8-byte big-endian integer, the most
// compact portable binary form.
func (id ID) IntBytes() [8]byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(id))
	return b
}

// MarshalBinary implements encoding.BinaryMarshaler as 8 big-endian bytes.
func (id ID) MarshalBinary() ([]byte, error) {
	b := id.IntBytes()
	return b[:], nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (id *ID) UnmarshalBinary(data []byte) error {
	if len(data) != 8 {
		return fmt.Errorf("invalid binary data length: %d", len(data))
	}
	*id = ID(binary.BigEndian.Uint64(data))
	return nil
}

// MarshalJSON implements json.Marshaler.
//
// The ID is emitted as a JSON string rather than a number: JavaScript
// numbers lose precision above 2^53, which flake IDs exceed within hours
// of any recent epoch.
func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler, accepting both string and
// number forms.
func (id *ID) UnmarshalJSON(data []byte) error {
	if len(data) < 1 {
		return fmt.Errorf("invalid JSON data: %s", string(data))
	}
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	u, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid flake ID: %w", err)
	}
	*id = ID(u)
	return nil
}

// MarshalText implements encoding.TextMarshaler (decimal form), used by
// XML, YAML, and TOML encoders.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	u, err := strconv.ParseUint(string(text), 10, 64)
	if err != nil {
		return err
	}
	*id = ID(u)
	return nil
}

// Scan implements sql.Scanner, accepting BIGINT, VARCHAR, and TEXT
// columns.
func (id *ID) Scan(value interface{}) error {
	if value == nil {
		*id = 0
		return nil
	}

	switch v := value.(type) {
	case int64:
		if v < 0 {
			return fmt.Errorf("cannot scan negative value %d into ID", v)
		}
		*id = ID(v)
	case []byte:
		u, err := strconv.ParseUint(string(v), 10, 64)
		if err != nil {
			return err
		}
		*id = ID(u)
	case string:
		u, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return err
		}
		*id = ID(u)
	default:
		return fmt.Errorf("cannot scan %T into ID", value)
	}
	return nil
}

// Value implements driver.Valuer, storing the ID as an int64 for BIGINT
// columns.
func (id ID) Value() (driver.Value, error) {
	return int64(id), nil
}

// ParseString parses a decimal string into an ID.
func ParseString(s string) (ID, error) {
	u, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return ID(u), nil
}

// ParseBase2 parses a binary string into an ID.
func ParseBase2(s string) (ID, error) {
	u, err := strconv.ParseUint(s, 2, 64)
	if err != nil {
		return 0, ErrInvalidBase2
	}
	return ID(u), nil
}

// ParseBase32 parses a z-base-32 string into an ID.
func ParseBase32(s string) (ID, error) {
	u, err := decodeBase32(s)
	if err != nil {
		return 0, err
	}
	return ID(u), nil
}

// ParseBase36 parses a base36 string into an ID.
func ParseBase36(s string) (ID, error) {
	u, err := strconv.ParseUint(s, 36, 64)
	if err != nil {
		return 0, ErrInvalidBase36
	}
	return ID(u), nil
}

// ParseBase58 parses a Bitcoin-style base58 string into an ID.
func ParseBase58(s string) (ID, error) {
	u, err := decodeBase58(s)
	if err != nil {
		return 0, err
	}
	return ID(u), nil
}

// ParseBase62 parses a URL-safe base62 string into an ID.
func ParseBase62(s string) (ID, error) {
	u, err := decodeBase62(s)
	if err != nil {
		return 0, err
	}
	return ID(u), nil
}

// ParseBase64 parses a standard base64 string into an ID.
func ParseBase64(s string) (ID, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return 0, ErrInvalidBase64
	}
	return ParseBytes(b)
}

// ParseBase64URL parses a URL-safe base64 string into an ID.
func ParseBase64URL(s string) (ID, error) {
	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return 0, ErrInvalidBase64
	}
	return ParseBytes(b)
}

// ParseHex parses a hexadecimal string (either case) into an ID.
func ParseHex(s string) (ID, error) {
	u, err := decodeHex(s)
	if err != nil {
		return 0, err
	}
	return ID(u), nil
}

// ParseBytes parses a byte slice holding the decimal form into an ID.
func ParseBytes(b []byte) (ID, error) {
	return ParseString(string(b))
}

// ParseIntBytes parses an 8-byte big-endian integer into an ID.
func ParseIntBytes(b [8]byte) ID {
	return ID(binary.BigEndian.Uint64(b[:]))
}

// Timestamp returns the timestamp field: milliseconds elapsed since the
// generating instance's epoch.
func (id ID) Timestamp() int64 {
	ts, _, _ := unpack(id)
	return ts
}

// Time returns the generation instant of the ID given the epoch it was
// generated against.
func (id ID) Time(epoch time.Time) time.Time {
	return epoch.Add(time.Duration(id.Timestamp()) * time.Millisecond)
}

// Machine returns the machine ID field (0-1023).
func (id ID) Machine() int64 {
	_, machine, _ := unpack(id)
	return machine
}

// Sequence returns the sequence field (0-4095).
func (id ID) Sequence() int64 {
	_, _, seq := unpack(id)
	return seq
}

// Components returns all three fields at once: milliseconds since the
// epoch, machine ID, and sequence.
func (id ID) Components() (timestamp, machineID, sequence int64) {
	return unpack(id)
}

// Before reports whether this ID was generated before other. Equivalent
// to numeric comparison because IDs are time-ordered.
func (id ID) Before(other ID) bool {
	return id < other
}

// After reports whether this ID was generated after other.
func (id ID) After(other ID) bool {
	return id > other
}

// Compare returns -1, 0, or 1 ordering this ID against other.
func (id ID) Compare(other ID) int {
	if id < other {
		return -1
	}
	if id > other {
		return 1
	}
	return 0
}

// Shard returns the shard in [0, numShards) this ID maps to under modulo
// distribution. Even spread, but not time-ordered within a shard.
func (id ID) Shard(numShards int64) int64 {
	if numShards <= 0 {
		return 0
	}
	return int64(uint64(id) % uint64(numShards))
}

// ShardByTime returns the time bucket this ID falls into, for time-series
// partitioning. Buckets count bucketSize intervals since the epoch.
// Durations shorter than a millisecond, the ID's timestamp resolution, are
// treated as one millisecond.
func (id ID) ShardByTime(epoch time.Time, bucketSize time.Duration) int64 {
	if bucketSize <= 0 {
		return 0
	}
	ms := bucketSize.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	return id.Time(epoch).UnixMilli() / ms
}
