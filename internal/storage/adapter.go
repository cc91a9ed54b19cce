package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"regexp"
	"strings"
	"time"

	"gamehost/internal/config"
	"gamehost/internal/monitor"

	"github.com/google/uuid"
)

var (
	ErrFileTooLarge = errors.New("file size exceeds maximum allowed size")

	ErrExtensionNotAllowed = errors.New("file extension not allowed")
)

// FileInfo describes one stored progress artifact.
type FileInfo struct {
	Filename     string    `json:"filename"`
	Path         string    `json:"path"`
	URL          string    `json:"url"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// SessionStorage gives every session its own isolated file namespace on top
// of the blob store: company_{c}/workspace_{w}/session_{s}/{filename}. No
// artifact is visible across sessions or companies.
type SessionStorage struct {
	store  Store
	cfg    config.StorageConfig
	logger *slog.Logger
}

func NewSessionStorage(store Store, cfg config.StorageConfig, logger *slog.Logger) *SessionStorage {
	return &SessionStorage{
		store:  store,
		cfg:    cfg,
		logger: logger.With("component", "session-storage"),
	}
}

func (s *SessionStorage) Upload(ctx context.Context, companyID, workspaceID int64, sessionID, filename string, r io.Reader, size int64) (*FileInfo, error) {
	if size > s.cfg.MaxUploadBytes {
		monitor.ProgressUploadErrors.Inc()
		return nil, fmt.Errorf("%w: %d MB", ErrFileTooLarge, s.cfg.MaxUploadBytes/1024/1024)
	}

	sanitized := SanitizeFilename(filename)
	if err := s.checkExtension(sanitized); err != nil {
		monitor.ProgressUploadErrors.Inc()
		return nil, err
	}

	key := s.fileKey(companyID, workspaceID, sessionID, sanitized)

	// 再限制一次实际字节数，防止声明的 size 与内容不符
	written, err := s.store.Put(ctx, key, io.LimitReader(r, s.cfg.MaxUploadBytes+1))
	if err != nil {
		monitor.ProgressUploadErrors.Inc()
		return nil, fmt.Errorf("store progress file: %w", err)
	}
	if written > s.cfg.MaxUploadBytes {
		monitor.ProgressUploadErrors.Inc()
		return nil, fmt.Errorf("%w: %d MB", ErrFileTooLarge, s.cfg.MaxUploadBytes/1024/1024)
	}

	monitor.ProgressUploadBytes.Add(float64(written))

	s.logger.Info("Progress file stored",
		"session_id", sessionID,
		"workspace_id", workspaceID,
		"filename", sanitized,
		"size", written,
	)

	return &FileInfo{
		Filename:     sanitized,
		Path:         key,
		URL:          s.store.URL(key),
		Size:         written,
		LastModified: time.Now(),
	}, nil
}

func (s *SessionStorage) List(ctx context.Context, companyID, workspaceID int64, sessionID string) ([]FileInfo, error) {
	objects, err := s.store.List(ctx, s.sessionKey(companyID, workspaceID, sessionID))
	if err != nil {
		return nil, fmt.Errorf("list progress files: %w", err)
	}

	files := make([]FileInfo, 0, len(objects))
	for _, obj := range objects {
		files = append(files, FileInfo{
			Filename:     path.Base(obj.Key),
			Path:         obj.Key,
			URL:          obj.URL,
			Size:         obj.Size,
			LastModified: obj.ModTime,
		})
	}
	return files, nil
}

// Open returns the artifact's bytes and metadata; callers own the closer.
func (s *SessionStorage) Open(ctx context.Context, companyID, workspaceID int64, sessionID, filename string) (io.ReadCloser, *FileInfo, error) {
	key := s.fileKey(companyID, workspaceID, sessionID, SanitizeFilename(filename))

	info, err := s.store.Stat(ctx, key)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.store.Open(ctx, key)
	if err != nil {
		return nil, nil, err
	}

	return rc, &FileInfo{
		Filename:     path.Base(key),
		Path:         key,
		URL:          info.URL,
		Size:         info.Size,
		LastModified: info.ModTime,
	}, nil
}

func (s *SessionStorage) sessionKey(companyID, workspaceID int64, sessionID string) string {
	return fmt.Sprintf("company_%d/workspace_%d/session_%s", companyID, workspaceID, sessionID)
}

func (s *SessionStorage) fileKey(companyID, workspaceID int64, sessionID, filename string) string {
	return s.sessionKey(companyID, workspaceID, sessionID) + "/" + filename
}

func (s *SessionStorage) checkExtension(filename string) error {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	for _, allowed := range s.cfg.AllowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: allowed extensions: %s", ErrExtensionNotAllowed, strings.Join(s.cfg.AllowedExtensions, ", "))
}

var unsafeFilenameChars = regexp.MustCompile(`[/\\:*?"<>|]`)

// SanitizeFilename strips path separators and other dangerous characters,
// refuses hidden files, and caps the length at 100 keeping the extension.
func SanitizeFilename(filename string) string {
	filename = unsafeFilenameChars.ReplaceAllString(filename, "")
	filename = strings.TrimLeft(filename, ".")

	if filename == "" {
		filename = "unnamed_" + uuid.NewString()[:8]
	}

	if len(filename) > 100 {
		ext := path.Ext(filename)
		name := strings.TrimSuffix(filename, ext)
		keep := 95 - len(ext)
		if keep < 1 {
			keep = 1
		}
		if len(name) > keep {
			name = name[:keep]
		}
		filename = name + ext
	}

	return filename
}
