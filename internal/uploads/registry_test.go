package uploads

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestStoreNamesByTimestamp(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	reg := NewRegistry(dir)
	reg.now = fixedClock(1700000000123)

	name, err := reg.Store(strings.NewReader("png bytes"), "holiday photo.PNG")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if name != "1700000000123.PNG" {
		t.Fatalf("name = %q", name)
	}

	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "png bytes" {
		t.Fatalf("content = %q", data)
	}
}

func TestStoreDoesNotOverwrite(t *testing.T) {
	reg := NewRegistry(t.TempDir())
	reg.now = fixedClock(42)

	if _, err := reg.Store(strings.NewReader("first"), "a.txt"); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Store(strings.NewReader("second"), "b.txt"); err == nil {
		t.Fatal("expected collision error")
	}

	data, _ := os.ReadFile(filepath.Join(reg.Dir(), "42.txt"))
	if string(data) != "first" {
		t.Fatalf("content = %q, want first", data)
	}
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"a.png":          ".png",
		"archive.tar.gz": ".gz",
		"README":         "",
		".bashrc":        "",
		"trailing.":      "",
		"dir/nested.jpg": ".jpg",
		`C:\tmp\x.doc`:   ".doc",
	}
	for in, want := range tests {
		if got := extension(in); got != want {
			t.Errorf("extension(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestListSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"2.png", "1.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}

	names, err := NewRegistry(dir).List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if want := []string{"1.txt", "2.png"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
}

func TestListMissingDir(t *testing.T) {
	if _, err := NewRegistry(filepath.Join(t.TempDir(), "missing")).List(); err == nil {
		t.Fatal("expected error for unreadable directory")
	}
}

func TestDelete(t *testing.T) {
	reg := NewRegistry(t.TempDir())
	reg.now = fixedClock(7)
	name, err := reg.Store(strings.NewReader("x"), "x.bin")
	if err != nil {
		t.Fatal(err)
	}

	if err := reg.Delete(name); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := reg.Delete(name); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete err = %v, want ErrNotFound", err)
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	root := t.TempDir()
	secret := filepath.Join(root, "secret.txt")
	if err := os.WriteFile(secret, []byte("keep"), 0644); err != nil {
		t.Fatal(err)
	}
	reg := NewRegistry(filepath.Join(root, "uploads"))

	for _, name := range []string{"", ".", "..", "../secret.txt", `..\secret.txt`, "a/b", "/etc/passwd", "x\x00y"} {
		if _, err := reg.Resolve(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Resolve(%q) err = %v, want ErrInvalidName", name, err)
		}
		if err := reg.Delete(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Delete(%q) err = %v, want ErrInvalidName", name, err)
		}
	}

	if _, err := os.Stat(secret); err != nil {
		t.Fatalf("file outside the root was touched: %v", err)
	}

	path, err := reg.Resolve("123.png")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if filepath.Base(path) != "123.png" || !filepath.IsAbs(path) {
		t.Fatalf("path = %q", path)
	}
}
