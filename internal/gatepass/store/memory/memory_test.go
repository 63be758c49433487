package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BrandonDHaskell/gatepass/internal/gatepass/store"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/store/memory"
)

func toggle(last store.EntryRecord, ok bool) store.EntryType {
	if ok && last.Type == store.EntryEnter {
		return store.EntryExit
	}
	return store.EntryEnter
}

func TestPersonStore_ActivePhoneUnique(t *testing.T) {
	ps := memory.NewPersonStore()
	ctx := context.Background()

	if err := ps.InsertPerson(ctx, store.PersonRecord{ID: "A", Phone: "01011112222", Active: true}); err != nil {
		t.Fatalf("insert A: %v", err)
	}
	err := ps.InsertPerson(ctx, store.PersonRecord{ID: "B", Phone: "01011112222", Active: true})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if err := ps.SetActive(ctx, "A", false, time.Now()); err != nil {
		t.Fatalf("deactivate A: %v", err)
	}
	if err := ps.InsertPerson(ctx, store.PersonRecord{ID: "B", Phone: "01011112222", Active: true}); err != nil {
		t.Fatalf("insert B after deactivation: %v", err)
	}
	if err := ps.SetActive(ctx, "A", true, time.Now()); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict reactivating A, got %v", err)
	}
}

func TestEntryLogStore_AppendNextToggles(t *testing.T) {
	es := memory.NewEntryLogStore()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	want := []store.EntryType{store.EntryEnter, store.EntryExit, store.EntryEnter}
	for i, w := range want {
		rec, err := es.AppendNext(ctx, store.EntryRecord{
			PersonID:   "A",
			OccurredAt: base.Add(time.Duration(i) * time.Minute),
		}, toggle)
		if err != nil {
			t.Fatalf("AppendNext %d: %v", i, err)
		}
		if rec.Type != w {
			t.Errorf("row %d: expected %s, got %s", i, w, rec.Type)
		}
	}

	n, _ := es.CurrentlyInside(ctx, base.Add(time.Hour))
	if n != 1 {
		t.Errorf("expected 1 inside, got %d", n)
	}
	n, _ = es.CurrentlyInside(ctx, base.Add(90*time.Second))
	if n != 0 {
		t.Errorf("expected 0 inside after first exit, got %d", n)
	}
}

func TestPersonStore_DeleteCascades(t *testing.T) {
	es := memory.NewEntryLogStore()
	ns := memory.NewNotificationLogStore()
	ps := memory.NewPersonStore(es, ns)
	ctx := context.Background()

	_ = ps.InsertPerson(ctx, store.PersonRecord{ID: "A", Phone: "01011112222", Active: true})
	_, _ = es.AppendNext(ctx, store.EntryRecord{PersonID: "A"}, toggle)
	_ = ns.RecordNotification(ctx, store.NotificationRecord{PersonID: "A", Kind: store.KindCredential, Status: store.StatusSuccess})
	_ = ns.RecordNotification(ctx, store.NotificationRecord{Kind: store.KindReport, Status: store.StatusSuccess})

	if err := ps.DeletePerson(ctx, "A"); err != nil {
		t.Fatalf("DeletePerson: %v", err)
	}
	if got := len(es.Entries()); got != 0 {
		t.Errorf("expected entries removed, got %d", got)
	}
	if got := len(ns.Logs()); got != 1 {
		t.Errorf("expected only the report row to survive, got %d", got)
	}
	if err := ps.DeletePerson(ctx, "A"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}
