// Package drive abstracts the document store that holds the review
// folders and artifacts. Folders carry per-address access lists.
package drive

import "context"

// ACL is the access list of one folder. Owner always keeps access.
type ACL struct {
	Owner   string   `json:"owner"`
	Readers []string `json:"readers"`
	Writers []string `json:"writers"`
}

// Store is the folder/file contract of the document store.
type Store interface {
	// EnsureFolder returns the id of the named folder under parentID,
	// creating it when missing.
	EnsureFolder(ctx context.Context, parentID, name string) (string, error)

	// UploadFile writes a file into a folder, overwriting any previous
	// version, and returns its id.
	UploadFile(ctx context.Context, folderID, name string, content []byte, contentType string) (string, error)

	// GrantRead adds reader addresses to a folder's access list.
	GrantRead(ctx context.Context, folderID string, emails []string) error

	// GrantWrite adds a writer address to a folder's access list.
	GrantWrite(ctx context.Context, folderID, email string) error

	// StripPermissions removes every non-owner entry from the access
	// lists of the folder and all folders below it.
	StripPermissions(ctx context.Context, folderID string) error

	// FolderLink returns a browse URL for a folder.
	FolderLink(folderID string) string
}
