package uploadsvc

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/pkg/errors"

	"github.com/Smarcastic/studesq-mvp/core"
)

// Error codes
const (
	CodeFileTooLarge = "FILE_TOO_LARGE"
	CodeInvalidType  = "INVALID_TYPE"
	CodeUploadFailed = "UPLOAD_FAILED"
)

// PublicPath is the URL prefix uploaded files are served under.
const PublicPath = "/api/uploads"

var (
	// errors
	ErrInvalidPath  = errors.New("invalid file path")
	ErrFileNotFound = errors.New("file not found")

	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)
	underscores = regexp.MustCompile(`_{2,}`)

	allowedMimeTypes = []string{"application/pdf", "image/jpeg", "image/jpg", "image/png"}
	contentTypes     = map[string]string{
		".pdf":  "application/pdf",
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
	}
)

// Error is a rejected upload.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// File describes a stored upload.
type File struct {
	Filename         string `json:"filename"`
	OriginalFilename string `json:"originalFilename"`
	Path             string `json:"-"`
	PublicURL        string `json:"publicUrl"`
	Size             int64  `json:"size"`
	MimeType         string `json:"mimetype"`
}

type Service struct {
	dir               string
	maxSize           int64
	allowedExtensions []string
	node              *snowflake.Node
}

func NewService(conf *core.Config) (*Service, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, errors.Wrap(err, "creating snowflake node")
	}
	exts := make([]string, 0, len(conf.Uploads.AllowedExtensions))
	for _, ext := range conf.Uploads.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if ext != "" {
			exts = append(exts, ext)
		}
	}
	return &Service{
		dir:               conf.Uploads.Dir,
		maxSize:           conf.Uploads.MaxSize,
		allowedExtensions: exts,
		node:              node,
	}, nil
}

// Validate checks size, MIME type and extension, in that order.
func (svc *Service) Validate(filename string, size int64, mimeType string) error {
	if size > svc.maxSize {
		return &Error{
			Code:    CodeFileTooLarge,
			Message: fmt.Sprintf("File size exceeds %dMB limit", svc.maxSize/1024/1024),
		}
	}
	if !contains(allowedMimeTypes, mimeType) {
		return &Error{
			Code:    CodeInvalidType,
			Message: fmt.Sprintf("File type %s not allowed. Allowed types: %s", mimeType, strings.Join(allowedMimeTypes, ", ")),
		}
	}
	ext := strings.ToLower(path.Ext(filename))
	if !contains(svc.allowedExtensions, ext) {
		return &Error{
			Code:    CodeInvalidType,
			Message: fmt.Sprintf("File extension %s not allowed. Allowed extensions: %s", ext, strings.Join(svc.allowedExtensions, ", ")),
		}
	}
	return nil
}

// SafeFilename strips directories and unsafe characters from original and makes it unique.
func (svc *Service) SafeFilename(original string) string {
	base := path.Base(strings.ReplaceAll(original, `\`, "/"))
	sanitized := underscores.ReplaceAllString(unsafeChars.ReplaceAllString(base, "_"), "_")
	ext := path.Ext(sanitized)
	name := strings.TrimSuffix(sanitized, ext)
	return fmt.Sprintf("%s_%s%s", name, svc.node.Generate().String(), ext)
}

// studentDir returns the upload directory of studentID, rejecting ids which are not a single path element.
func (svc *Service) studentDir(studentID string) (string, error) {
	if studentID == "" || studentID == "." || studentID == ".." || strings.ContainsAny(studentID, `/\`) {
		return "", ErrInvalidPath
	}
	return filepath.Join(svc.dir, studentID), nil
}

// Save validates and stores fh under the directory of studentID.
func (svc *Service) Save(studentID string, fh *multipart.FileHeader) (File, error) {
	mimeType := fh.Header.Get("Content-Type")
	if err := svc.Validate(fh.Filename, fh.Size, mimeType); err != nil {
		return File{}, err
	}
	dir, err := svc.studentDir(studentID)
	if err != nil {
		return File{}, err
	}

	safeName := svc.SafeFilename(fh.Filename)
	dst := filepath.Join(dir, safeName)
	if err = svc.write(dir, dst, fh); err != nil {
		return File{}, &Error{Code: CodeUploadFailed, Message: "Failed to save file"}
	}

	return File{
		Filename:         safeName,
		OriginalFilename: fh.Filename,
		Path:             dst,
		PublicURL:        path.Join(PublicPath, studentID, safeName),
		Size:             fh.Size,
		MimeType:         mimeType,
	}, nil
}

func (svc *Service) write(dir, dst string, fh *multipart.FileHeader) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "creating upload directory")
	}
	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = src.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.Wrap(err, "creating file")
	}
	if _, err = io.Copy(out, src); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return errors.Wrap(err, "writing file")
	}
	return errors.Wrap(out.Close(), "closing file")
}

// Remove deletes a stored upload. A file already gone is not an error.
func (svc *Service) Remove(f File) error {
	if f.Path == "" {
		return nil
	}
	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing file")
	}
	return nil
}

// Open opens the file at relPath inside the directory of studentID.
// The caller must close the returned file.
func (svc *Service) Open(studentID, relPath string) (*os.File, string, error) {
	dir, err := svc.studentDir(studentID)
	if err != nil {
		return nil, "", err
	}
	full := filepath.Join(dir, filepath.FromSlash(relPath))
	rel, err := filepath.Rel(dir, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, "", ErrInvalidPath
	}

	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrFileNotFound
		}
		return nil, "", errors.Wrap(err, "opening file")
	}
	if info, err := f.Stat(); err != nil || info.IsDir() {
		_ = f.Close()
		return nil, "", ErrFileNotFound
	}
	return f, ContentType(full), nil
}

// ContentType maps a file name to the content type it is served with.
func ContentType(filename string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
