package dbtypes

import (
	"strings"
	"testing"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
)

func TestFileDescriptorsScanNullAndEmpty(t *testing.T) {
	for _, src := range []any{nil, "", []byte("null"), "[]"} {
		var got FileDescriptors
		if err := got.Scan(src); err != nil {
			t.Fatalf("Scan(%v): %v", src, err)
		}
		if got == nil || len(got) != 0 {
			t.Fatalf("Scan(%v) expected empty non-nil slice, got %#v", src, got)
		}
	}
}

func TestFileDescriptorsPreservesOrder(t *testing.T) {
	in := FileDescriptors{
		{ID: "1", StoredPath: "images/a.png", Backend: enums.StorageBackendLocal},
		{ID: "2", StoredPath: "https://storage.googleapis.com/b/images/b.png", Backend: enums.StorageBackendCloud, BackendID: "images/b.png"},
	}
	value, err := in.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if _, ok := value.(string); !ok {
		t.Fatalf("expected string value, got %T", value)
	}

	var out FileDescriptors
	if err := out.Scan(value); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(out) != 2 || out[0].ID != "1" || out[1].BackendID != "images/b.png" {
		t.Fatalf("unexpected descriptors %+v", out)
	}
}

func TestFileDescriptorsScanRejectsUnknownType(t *testing.T) {
	var out FileDescriptors
	if err := out.Scan(42); err == nil {
		t.Fatal("expected error for int source")
	}
}

func TestFileDescriptorsValueDropsResolvedURL(t *testing.T) {
	in := FileDescriptors{{ID: "1", StoredPath: "images/a.png", Backend: enums.StorageBackendLocal, URL: "/uploads/images/a.png"}}
	value, err := in.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if strings.Contains(value.(string), "url") {
		t.Fatalf("resolved url persisted: %s", value)
	}
	if in[0].URL == "" {
		t.Fatal("Value must not mutate the caller's descriptors")
	}
}
