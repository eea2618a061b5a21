package dicomconvert

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestSplitGoogleStoragePath(t *testing.T) {
	for _, v := range []struct {
		in, bucket, object string
		fails              bool
	}{
		{"gs://bucket/a/b.dcm", "bucket", "a/b.dcm", false},
		{"gs://bucket/", "bucket", "", false},
		{"gs://bucket", "bucket", "", false},
		{"gs://", "", "", true},
		{"/local/file.dcm", "", "", true},
	} {
		bucket, object, err := SplitGoogleStoragePath(v.in)
		if (err != nil) != v.fails {
			t.Errorf("%s: unexpected error state %v", v.in, err)
			continue
		}
		if bucket != v.bucket || object != v.object {
			t.Errorf("%s: got %q %q, expected %q %q", v.in, bucket, object, v.bucket, v.object)
		}
	}
}

func TestMaybeOpenLocal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.dcm")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	f, n, err := MaybeOpenFromGoogleStorage(context.Background(), path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if n != 5 {
		t.Fatalf("Size is %d, expected 5", n)
	}

	b, err := io.ReadAll(f)
	if err != nil || string(b) != "hello" {
		t.Fatalf("Read %q, %v", b, err)
	}
}

func TestMaybeOpenErrors(t *testing.T) {
	if _, _, err := MaybeOpenFromGoogleStorage(context.Background(), filepath.Join(t.TempDir(), "missing"), nil); err == nil {
		t.Errorf("Expected an error for a missing local file")
	}

	if _, _, err := MaybeOpenFromGoogleStorage(context.Background(), "gs://bucket/x.dcm", nil); err == nil {
		t.Errorf("Expected an error for a gs:// path without a client")
	}

	if _, err := ListFromGoogleStorage(context.Background(), "gs://bucket/x", nil); err == nil {
		t.Errorf("Expected an error for listing without a client")
	}
}
