package upload

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xtergo/dnaresearch/pkg/apperr"
)

// Coordinator owns every issued upload ticket and the secret used to
// sign presigned URLs.
type Coordinator struct {
	mu sync.Mutex

	logger *log.Logger
	secret string

	uploads map[string]*Upload
}

// Option configures a Coordinator at construction time.
type Option func(*Coordinator)

func WithLogger(logger *log.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// New creates a Coordinator signing presigned URLs with secret.
func New(secret string, opts ...Option) *Coordinator {
	c := &Coordinator{
		logger:  log.New(log.Writer(), "[Upload] ", log.LstdFlags),
		secret:  secret,
		uploads: make(map[string]*Upload),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreatePresigned validates filename/type/size and issues a signed,
// expiring upload ticket.
func (c *Coordinator) CreatePresigned(filename string, size int64, fileType FileType, checksum, userID string, ttlHours int) (*Upload, error) {
	maxSize, ok := maxSizeBytes[fileType]
	if !ok {
		return nil, errUnsupportedType(string(fileType))
	}

	lowerName := strings.ToLower(filename)
	validExt := false
	for _, ext := range allowedExtensions[fileType] {
		if strings.HasSuffix(lowerName, ext) {
			validExt = true
			break
		}
	}
	if !validExt {
		return nil, errBadExtension(filename, fileType)
	}

	if size > maxSize {
		return nil, errSizeExceeded(fileType, size, maxSize)
	}

	now := time.Now().UTC()
	if ttlHours <= 0 {
		ttlHours = 24
	}
	expiresAt := now.Add(time.Duration(ttlHours) * time.Hour)

	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d|%s", filename, userID, now.UnixNano(), uuid.NewString())))
	uploadID := hex.EncodeToString(sum[:])[:16]

	presignedURL := c.sign(uploadID, filename, expiresAt)

	u := &Upload{
		UploadID:     uploadID,
		UserID:       userID,
		Filename:     filename,
		FileType:     fileType,
		Size:         size,
		Checksum:     checksum,
		Status:       StatusPending,
		CreatedAt:    now,
		ExpiresAt:    expiresAt,
		PresignedURL: presignedURL,
	}

	c.mu.Lock()
	c.uploads[uploadID] = u
	c.mu.Unlock()

	c.logger.Printf("issued upload ticket %s (%s, %d bytes, expires %s)", uploadID, fileType, size, expiresAt.Format(time.RFC3339))
	return u, nil
}

// sign builds the presigned URL's HMAC signature:
// HMAC(secret, "PUT\nupload_id\nfilename\nexpires").
func (c *Coordinator) sign(uploadID, filename string, expiresAt time.Time) string {
	expires := expiresAt.Unix()
	msg := fmt.Sprintf("PUT\n%s\n%s\n%d", uploadID, filename, expires)
	mac := hmac.New(sha256.New, []byte(c.secret))
	mac.Write([]byte(msg))
	sig := hex.EncodeToString(mac.Sum(nil))
	return fmt.Sprintf("/files/%s?expires=%d&signature=%s", uploadID, expires, sig)
}

// Complete validates actual_checksum against the upload's expiry and
// reported checksum.
func (c *Coordinator) Complete(uploadID, actualChecksum string) (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	u, ok := c.uploads[uploadID]
	if !ok {
		return "", errUploadNotFound(uploadID)
	}

	if time.Now().UTC().After(u.ExpiresAt) {
		u.Status = StatusExpired
		return u.Status, nil
	}

	u.ActualChecksum = actualChecksum
	if u.Checksum != "" && u.Checksum != actualChecksum {
		u.Status = StatusFailed
		return u.Status, nil
	}

	u.Status = StatusCompleted
	return u.Status, nil
}

// Get returns a copy of the upload ticket, or NotFound.
func (c *Coordinator) Get(uploadID string) (*Upload, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.uploads[uploadID]
	if !ok {
		return nil, apperr.Newf(apperr.NotFound, "upload %q not found", uploadID)
	}
	cp := *u
	return &cp, nil
}
