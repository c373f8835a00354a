package bridge

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		want Event
	}{
		{"zoom-in", ZoomIn{}},
		{"zoom-out", ZoomOut{}},
		{"zoom-reset", ZoomReset{}},
		{"show-about", ShowAbout{}},
		{"toggle-theme", ToggleTheme{}},
	}
	for _, tt := range tests {
		got, err := ParseCommand(tt.name)
		if err != nil {
			t.Fatalf("ParseCommand(%q): %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("ParseCommand(%q) = %#v, want %#v", tt.name, got, tt.want)
		}
		if got.EventName() != tt.name {
			t.Errorf("EventName() = %q, want %q", got.EventName(), tt.name)
		}
	}

	if _, err := ParseCommand("quit"); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("ParseCommand(quit) error = %v, want ErrUnknownCommand", err)
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	if err := os.WriteFile(path, []byte("# café"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got != "# café" {
		t.Errorf("got %q", got)
	}
}

func TestReadFile_invalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.markdown")
	if err := os.WriteFile(path, []byte("hello\x80world"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got != "hello\uFFFDworld" {
		t.Errorf("got %q", got)
	}
}

func TestReadFile_missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.md"))
	var readErr *FileReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("error = %v, want *FileReadError", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error should wrap fs.ErrNotExist: %v", err)
	}
}

func TestReadFile_unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := ReadFile(path)
	var readErr *FileReadError
	if !errors.As(err, &readErr) || !errors.Is(err, ErrUnsupportedFile) {
		t.Errorf("error = %v, want FileReadError wrapping ErrUnsupportedFile", err)
	}
}

func TestSupported(t *testing.T) {
	for path, want := range map[string]bool{
		"a.md": true, "b.MD": true, "c.markdown": true,
		"d.txt": false, "e": false, "f.md.bak": false,
	} {
		if got := Supported(path); got != want {
			t.Errorf("Supported(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "README.md")
	if err := os.WriteFile(path, []byte("text"), 0644); err != nil {
		t.Fatal(err)
	}
	ev, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if ev.Name != "README.md" || ev.Content != "text" || !filepath.IsAbs(ev.Path) {
		t.Errorf("unexpected event %+v", ev)
	}
}
