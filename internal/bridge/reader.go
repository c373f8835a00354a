package bridge

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrUnsupportedFile is returned for files the open flow does not accept.
var ErrUnsupportedFile = errors.New("unsupported file type")

// Extensions lists the file extensions the open flow accepts.
var Extensions = []string{".md", ".markdown"}

// FileReadError reports a failure to read the file at Path.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("read file %s: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error { return e.Err }

// Supported reports whether path has an accepted markdown extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ReadFile reads the markdown file at path. Invalid UTF-8 sequences are replaced
// with U+FFFD. Every failure is a *FileReadError.
func ReadFile(path string) (string, error) {
	if !Supported(path) {
		return "", &FileReadError{Path: path, Err: ErrUnsupportedFile}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", &FileReadError{Path: path, Err: err}
	}
	return decodeText(content), nil
}

// OpenFile reads path and wraps the result as a FileOpened event.
func OpenFile(path string) (FileOpened, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return FileOpened{}, &FileReadError{Path: path, Err: err}
	}
	content, err := ReadFile(abs)
	if err != nil {
		return FileOpened{}, err
	}
	return FileOpened{Content: content, Path: abs, Name: filepath.Base(abs)}, nil
}

func decodeText(content []byte) string {
	if !utf8.Valid(content) {
		return strings.ToValidUTF8(string(content), "\ufffd")
	}
	return string(content)
}
