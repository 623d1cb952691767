package storage

import (
	"encoding/json"
	"errors"

	"miniaevol/internal/snapshot"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("snapshot version mismatch")

// EncodeSnapshot marshals a world snapshot, stamping it with the current
// schema and codec versions.
func EncodeSnapshot(s snapshot.WorldSnapshot) ([]byte, error) {
	s.SchemaVersion = CurrentSchemaVersion
	s.CodecVersion = CurrentCodecVersion
	return json.Marshal(s)
}

// DecodeSnapshot unmarshals a world snapshot and rejects one written by an
// incompatible version.
func DecodeSnapshot(data []byte) (snapshot.WorldSnapshot, error) {
	var s snapshot.WorldSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return snapshot.WorldSnapshot{}, err
	}
	if s.SchemaVersion != CurrentSchemaVersion || s.CodecVersion != CurrentCodecVersion {
		return snapshot.WorldSnapshot{}, ErrVersionMismatch
	}
	return s, nil
}
