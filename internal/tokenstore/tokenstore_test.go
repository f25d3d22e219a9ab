package tokenstore

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/najdeno/internal/kv"
)

// failingKV fails every operation.
type failingKV struct{}

var errDisk = errors.New("disk full")

func (failingKV) Get(context.Context, string) (string, error) { return "", errDisk }
func (failingKV) Set(context.Context, string, string) error   { return errDisk }
func (failingKV) Delete(context.Context, string) error        { return errDisk }

func TestSaveLoadClear(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := New(mem)

	if _, ok := s.Load(ctx); ok {
		t.Fatal("expected no token initially")
	}

	s.Save(ctx, "tok-1")
	got, ok := s.Load(ctx)
	if !ok || got != "tok-1" {
		t.Fatalf("expected tok-1, got %q (%v)", got, ok)
	}

	raw, err := mem.Get(ctx, Key)
	if err != nil || raw != "tok-1" {
		t.Errorf("expected raw token under %q, got %q (%v)", Key, raw, err)
	}

	s.Clear(ctx)
	if _, ok := s.Load(ctx); ok {
		t.Error("expected no token after Clear")
	}
}

func TestFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	s := New(failingKV{})

	s.Save(ctx, "tok")
	if _, ok := s.Load(ctx); ok {
		t.Error("expected failing storage to read as no token")
	}
	s.Clear(ctx)
}

func TestNilStore(t *testing.T) {
	ctx := context.Background()

	var s *Store
	s.Save(ctx, "tok")
	if _, ok := s.Load(ctx); ok {
		t.Error("nil store should hold nothing")
	}
	s.Clear(ctx)

	empty := &Store{}
	empty.Save(ctx, "tok")
	if _, ok := empty.Load(ctx); ok {
		t.Error("store without KV should hold nothing")
	}
}

func TestEmptyTokenIsAbsent(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory())
	s.Save(ctx, "")
	if _, ok := s.Load(ctx); ok {
		t.Error("empty token should read as absent")
	}
}
