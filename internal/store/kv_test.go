package store

import (
	"context"
	"path/filepath"
	"testing"
)

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := kv.Get(ctx, "attendanceData"); err != nil || ok {
		t.Fatalf("Get on empty store = ok %v, err %v", ok, err)
	}
	if err := kv.Put(ctx, "attendanceData", []byte(`{"12":[]}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := kv.Put(ctx, "attendanceData", []byte(`{"13":[]}`)); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	v, ok, err := kv.Get(ctx, "attendanceData")
	if err != nil || !ok || string(v) != `{"13":[]}` {
		t.Fatalf("Get = %q, %v, %v", v, ok, err)
	}
	for i := 0; i < 2; i++ {
		if err := kv.Delete(ctx, "attendanceData"); err != nil {
			t.Fatalf("Delete #%d: %v", i, err)
		}
	}
	if _, ok, _ := kv.Get(ctx, "attendanceData"); ok {
		t.Fatal("value survived Delete")
	}
	if err := kv.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestMemory(t *testing.T) {
	exerciseKV(t, NewMemory())
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "attendance.db")
	kv, err := NewSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer kv.Close()
	exerciseKV(t, kv)
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "attendance.db")

	first, err := NewSQLite(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := NewSQLite(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()
	if v, ok, _ := second.Get(ctx, "k"); !ok || string(v) != "v" {
		t.Fatalf("Get after reopen = %q, %v", v, ok)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), Options{Backend: "etcd"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestOpenDefaultsToMemory(t *testing.T) {
	kv, err := Open(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := kv.(*Memory); !ok {
		t.Fatalf("Open() = %T, want *Memory", kv)
	}
}
