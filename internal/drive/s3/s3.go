// Package s3 implements the document store on an S3-compatible object
// store. A folder is a key prefix holding a marker object and a JSON
// access-list sidecar; files are plain objects under the prefix.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/fairview/review-cycle-service/internal/config"
	"github.com/fairview/review-cycle-service/internal/drive"
)

const (
	markerObject = ".folder"
	aclObject    = ".acl.json"
)

type Store struct {
	client *minio.Client
	bucket string
	base   string
	owner  string
	log    *slog.Logger
}

func NewStore(cfg config.Storage, owner string, log *slog.Logger) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("can't create storage client: %w", err)
	}

	return &Store{
		client: client,
		bucket: cfg.Bucket,
		base:   cfg.Endpoint,
		owner:  owner,
		log:    log,
	}, nil
}

// EnsureBucket creates the backing bucket when it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	const op = "internal.drive.s3.EnsureBucket"

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("%s: failed to check bucket: %w", op, err)
	}

	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("%s: failed to create bucket: %w", op, err)
	}

	return nil
}

func (s *Store) EnsureFolder(ctx context.Context, parentID, name string) (string, error) {
	const op = "internal.drive.s3.EnsureFolder"

	folderID := path.Join(parentID, name)
	marker := path.Join(folderID, markerObject)

	if _, err := s.client.StatObject(ctx, s.bucket, marker, minio.StatObjectOptions{}); err == nil {
		return folderID, nil
	}

	if _, err := s.client.PutObject(ctx, s.bucket, marker,
		bytes.NewReader(nil), 0, minio.PutObjectOptions{}); err != nil {
		return "", fmt.Errorf("%s: failed to create folder marker: %w", op, err)
	}

	if err := s.writeACL(ctx, folderID, &drive.ACL{Owner: s.owner}); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return folderID, nil
}

func (s *Store) UploadFile(ctx context.Context, folderID, name string, content []byte, contentType string) (string, error) {
	const op = "internal.drive.s3.UploadFile"

	fileID := path.Join(folderID, name)

	_, err := s.client.PutObject(ctx, s.bucket, fileID,
		bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("%s: failed to upload '%s': %w", op, name, err)
	}

	return fileID, nil
}

func (s *Store) GrantRead(ctx context.Context, folderID string, emails []string) error {
	const op = "internal.drive.s3.GrantRead"

	acl, err := s.readACL(ctx, folderID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	acl.Readers = mergeAddresses(acl.Readers, emails)

	if err := s.writeACL(ctx, folderID, acl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Store) GrantWrite(ctx context.Context, folderID, email string) error {
	const op = "internal.drive.s3.GrantWrite"

	acl, err := s.readACL(ctx, folderID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	acl.Writers = mergeAddresses(acl.Writers, []string{email})

	if err := s.writeACL(ctx, folderID, acl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Store) StripPermissions(ctx context.Context, folderID string) error {
	const op = "internal.drive.s3.StripPermissions"

	prefix := strings.TrimSuffix(folderID, "/") + "/"

	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return fmt.Errorf("%s: failed to list folder: %w", op, obj.Err)
		}

		if path.Base(obj.Key) != aclObject {
			continue
		}

		folder := path.Dir(obj.Key)

		acl, err := s.readACL(ctx, folder)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if len(acl.Readers) == 0 && len(acl.Writers) == 0 {
			continue
		}

		acl.Readers = nil
		acl.Writers = nil

		if err := s.writeACL(ctx, folder, acl); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		s.log.Info("stripped folder permissions", slog.String("folder", folder))
	}

	return nil
}

func (s *Store) FolderLink(folderID string) string {
	return fmt.Sprintf("https://%s/%s/%s/", s.base, s.bucket, folderID)
}

func (s *Store) readACL(ctx context.Context, folderID string) (*drive.ACL, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, path.Join(folderID, aclObject), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to read acl of '%s': %w", folderID, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		// A folder created out of band has no sidecar yet.
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return &drive.ACL{Owner: s.owner}, nil
		}

		return nil, fmt.Errorf("failed to read acl of '%s': %w", folderID, err)
	}

	var acl drive.ACL
	if err := json.Unmarshal(data, &acl); err != nil {
		return nil, fmt.Errorf("failed to decode acl of '%s': %w", folderID, err)
	}

	return &acl, nil
}

func (s *Store) writeACL(ctx context.Context, folderID string, acl *drive.ACL) error {
	data, err := json.Marshal(acl)
	if err != nil {
		return fmt.Errorf("failed to encode acl of '%s': %w", folderID, err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, path.Join(folderID, aclObject),
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to write acl of '%s': %w", folderID, err)
	}

	return nil
}

func mergeAddresses(existing, add []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		seen[strings.ToLower(e)] = struct{}{}
	}

	for _, a := range add {
		if a == "" {
			continue
		}

		if _, ok := seen[strings.ToLower(a)]; ok {
			continue
		}

		seen[strings.ToLower(a)] = struct{}{}
		existing = append(existing, a)
	}

	return existing
}
