package memory

import (
	"errors"
	"testing"

	"github.com/jmcleod/authgate/storage"
)

func TestPutGetDelete(t *testing.T) {
	repo := NewRepository()

	if err := repo.Put("ns", "TOKEN", "id-1", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	got, err := repo.Get("ns", "TOKEN", "id-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("got %q", got)
	}

	if err := repo.Delete("ns", "TOKEN", "id-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := repo.Get("ns", "TOKEN", "id-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestGetMissing(t *testing.T) {
	repo := NewRepository()
	if _, err := repo.Get("ns", "TOKEN", "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestDeleteMissing(t *testing.T) {
	repo := NewRepository()
	if err := repo.Delete("ns", "TOKEN", "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestListFiltersByType(t *testing.T) {
	repo := NewRepository()
	repo.Put("ns", "TOKEN", "a", []byte("1"))
	repo.Put("ns", "TOKEN", "b", []byte("2"))
	repo.Put("ns", "ACCOUNT", "c", []byte("3"))

	ids, err := repo.List("ns", "TOKEN")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("got %v", ids)
	}
}

func TestValueIsolation(t *testing.T) {
	repo := NewRepository()
	value := []byte("abc")
	repo.Put("ns", "TOKEN", "a", value)
	value[0] = 'x'

	got, err := repo.Get("ns", "TOKEN", "a")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "abc" {
		t.Fatalf("stored value aliased caller slice: %q", got)
	}
}
