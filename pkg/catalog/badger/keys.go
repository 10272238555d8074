package badger

import (
	"github.com/google/uuid"
)

// Database Key Namespace Design
// ==============================
//
// BadgerDB is a key-value store, so prefixed keys organize the catalog into
// logical namespaces. This design:
//   - Prevents key collisions between different record types
//   - Enables efficient range scans (e.g., all files in a folder)
//   - Makes the database structure self-documenting
//
// Key Namespace Prefixes:
//
// Record Type          Prefix   Key Format                        Value Type
// ============================================================================
// Folder Data          "o:"     o:<folderUUID>                    FolderRecord (JSON)
// Folder Children      "c:"     c:<parentUUID>:<name>             folderUUID (bytes)
// File Data            "f:"     f:<fileUUID>                      FileRecord (JSON)
// File Name Index      "n:"     n:<folderUUID>:<name>             fileUUID (bytes)
// Folder Membership    "m:"     m:<folderUUID>:<fileUUID>         fileUUID (bytes)
//
// The name and membership indexes only track live files: soft deletion
// removes the index entries but keeps the "f:" record, so deleted files
// stay visible to GetFile and AllContentHashes while vanishing from
// listings and name lookups.
//
// Folder counters (FileCount, SubfolderCount) live inside the FolderRecord
// JSON and are updated in the same transaction as the index mutation, so a
// crash can never leave them out of step.

const (
	// prefixFolder is the key prefix for folder records
	prefixFolder = "o:"

	// prefixChild is the key prefix for folder child entries (parent:name → folderUUID)
	prefixChild = "c:"

	// prefixFile is the key prefix for file records
	prefixFile = "f:"

	// prefixName is the key prefix for live file name lookups (folder:name → fileUUID)
	prefixName = "n:"

	// prefixMember is the key prefix for live folder membership (folder:fileUUID)
	prefixMember = "m:"
)

// keyFolder generates a key for folder data.
//
// Format: "o:<uuid>"
func keyFolder(id uuid.UUID) []byte {
	return []byte(prefixFolder + id.String())
}

// keyChild generates a key for a subfolder entry under a parent.
//
// Format: "c:<parentUUID>:<name>"
func keyChild(parentID uuid.UUID, name string) []byte {
	return []byte(prefixChild + parentID.String() + ":" + name)
}

// keyChildPrefix generates the range-scan prefix for a folder's subfolders.
//
// Format: "c:<parentUUID>:"
func keyChildPrefix(parentID uuid.UUID) []byte {
	return []byte(prefixChild + parentID.String() + ":")
}

// keyFile generates a key for file data.
//
// Format: "f:<uuid>"
func keyFile(id uuid.UUID) []byte {
	return []byte(prefixFile + id.String())
}

// keyName generates a key for the live file name index.
//
// Format: "n:<folderUUID>:<name>"
func keyName(folderID uuid.UUID, name string) []byte {
	return []byte(prefixName + folderID.String() + ":" + name)
}

// keyMember generates a key for live folder membership.
//
// Format: "m:<folderUUID>:<fileUUID>"
func keyMember(folderID, fileID uuid.UUID) []byte {
	return []byte(prefixMember + folderID.String() + ":" + fileID.String())
}

// keyMemberPrefix generates the range-scan prefix for a folder's live files.
//
// Format: "m:<folderUUID>:"
func keyMemberPrefix(folderID uuid.UUID) []byte {
	return []byte(prefixMember + folderID.String() + ":")
}
