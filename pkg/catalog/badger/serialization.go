package badger

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/filedepot/filedepot/pkg/catalog"
)

// Serialization Strategy
// ======================
//
// BadgerDB stores raw bytes, so records are serialized before storing.
//
//  1. JSON for records (FileRecord, FolderRecord): human-readable, easy to
//     debug, tolerant of schema evolution.
//  2. Raw UUID strings for index values: compact and trivially decoded.

func encodeFile(file *catalog.FileRecord) ([]byte, error) {
	bytes, err := json.Marshal(file)
	if err != nil {
		return nil, fmt.Errorf("failed to encode file record: %w", err)
	}
	return bytes, nil
}

func decodeFile(bytes []byte) (*catalog.FileRecord, error) {
	var file catalog.FileRecord
	if err := json.Unmarshal(bytes, &file); err != nil {
		return nil, fmt.Errorf("failed to decode file record: %w", err)
	}
	return &file, nil
}

func encodeFolder(folder *catalog.FolderRecord) ([]byte, error) {
	bytes, err := json.Marshal(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to encode folder record: %w", err)
	}
	return bytes, nil
}

func decodeFolder(bytes []byte) (*catalog.FolderRecord, error) {
	var folder catalog.FolderRecord
	if err := json.Unmarshal(bytes, &folder); err != nil {
		return nil, fmt.Errorf("failed to decode folder record: %w", err)
	}
	return &folder, nil
}

func encodeID(id uuid.UUID) []byte {
	return []byte(id.String())
}

func decodeID(bytes []byte) (uuid.UUID, error) {
	id, err := uuid.Parse(string(bytes))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to decode uuid: %w", err)
	}
	return id, nil
}
