package repositories

import (
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/faeln1/go-discord-observer/internal/domain/community"
)

func TestSnapshotStoreReportsChangeOnce(t *testing.T) {
	store := NewSnapshotStore()
	store.Seed("g1", "u1", community.Profile{AccountName: "alice"})

	changes, known := store.Reconcile("g1", "u1", community.Profile{AccountName: "alice2"})
	if !known {
		t.Fatalf("seeded member should be known")
	}
	if len(changes) != 1 || changes[0].Field != community.FieldAccountName {
		t.Fatalf("expected one account name change, got %+v", changes)
	}
	if *changes[0].Before != "alice" || *changes[0].After != "alice2" {
		t.Fatalf("unexpected before/after: %q -> %q", *changes[0].Before, *changes[0].After)
	}

	changes, _ = store.Reconcile("g1", "u1", community.Profile{AccountName: "alice2"})
	if len(changes) != 0 {
		t.Fatalf("second reconcile should report nothing, got %+v", changes)
	}
}

func TestSnapshotStoreSeedsUnknownSilently(t *testing.T) {
	store := NewSnapshotStore()
	changes, known := store.Reconcile("g1", "u9", community.Profile{AccountName: "new"})
	if known || len(changes) != 0 {
		t.Fatalf("unknown member should be seeded silently, got known=%v changes=%+v", known, changes)
	}
	if got, ok := store.Get("g1", "u9"); !ok || got.AccountName != "new" {
		t.Fatalf("expected seeded baseline, got %+v ok=%v", got, ok)
	}
}

func TestSnapshotStoreFieldOrderAndNilTransitions(t *testing.T) {
	store := NewSnapshotStore()
	store.Seed("g1", "u1", community.Profile{AvatarRef: community.StringPtr("a1"), AccountName: "bob"})

	next := community.Profile{DisplayName: community.StringPtr("bobby"), AccountName: "robert"}
	changes, _ := store.Reconcile("g1", "u1", next)
	if len(changes) != 3 {
		t.Fatalf("expected 3 changes, got %d", len(changes))
	}
	order := []community.ProfileField{community.FieldAvatar, community.FieldDisplayName, community.FieldAccountName}
	for i, field := range order {
		if changes[i].Field != field {
			t.Fatalf("change %d: expected %s, got %s", i, field, changes[i].Field)
		}
	}
	if changes[0].After != nil {
		t.Fatalf("avatar removal should have nil after")
	}
	if changes[1].Before != nil {
		t.Fatalf("nickname set should have nil before")
	}

	got, _ := store.Get("g1", "u1")
	if got.AvatarRef != nil || got.DisplayName == nil || *got.DisplayName != "bobby" || got.AccountName != "robert" {
		t.Fatalf("baseline not updated: %+v", got)
	}
}

func TestSnapshotStoreDoesNotAliasCallerPointers(t *testing.T) {
	store := NewSnapshotStore()
	nick := "first"
	store.Seed("g1", "u1", community.Profile{DisplayName: &nick, AccountName: "x"})
	nick = "mutated"

	got, _ := store.Get("g1", "u1")
	if *got.DisplayName != "first" {
		t.Fatalf("store aliased caller memory: %q", *got.DisplayName)
	}
}

func TestSnapshotStoreRandomizedProfiles(t *testing.T) {
	faker := gofakeit.New(42)
	store := NewSnapshotStore()

	randomProfile := func() community.Profile {
		p := community.Profile{AccountName: faker.Username()}
		if faker.Bool() {
			p.AvatarRef = community.StringPtr(faker.LetterN(32))
		}
		if faker.Bool() {
			p.DisplayName = community.StringPtr(faker.FirstName())
		}
		return p
	}

	for i := 0; i < 200; i++ {
		memberID := faker.Numerify("##################")
		before := randomProfile()
		after := randomProfile()
		store.Seed("g", memberID, before)

		changes, known := store.Reconcile("g", memberID, after)
		if !known {
			t.Fatalf("member %s should be known", memberID)
		}
		if len(changes) != len(before.Diff(after)) {
			t.Fatalf("change count mismatch for %+v -> %+v", before, after)
		}
		if again, _ := store.Reconcile("g", memberID, after); len(again) != 0 {
			t.Fatalf("baseline should equal current after reconcile, got %+v", again)
		}
	}
}

func TestSnapshotStoreConcurrentReconcileHandsOutChangeOnce(t *testing.T) {
	store := NewSnapshotStore()
	store.Seed("g1", "u1", community.Profile{AccountName: "alice"})

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			changes, _ := store.Reconcile("g1", "u1", community.Profile{AccountName: "alice2"})
			mu.Lock()
			total += len(changes)
			mu.Unlock()
		}()
	}
	wg.Wait()
	if total != 1 {
		t.Fatalf("expected exactly one change across callers, got %d", total)
	}
}

func TestSnapshotStoreForget(t *testing.T) {
	store := NewSnapshotStore()
	store.Seed("g1", "u1", community.Profile{AccountName: "a"})
	store.Seed("g1", "u2", community.Profile{AccountName: "b"})
	store.Seed("g2", "u3", community.Profile{AccountName: "c"})

	store.Forget("g1", "u1")
	if store.Len() != 2 {
		t.Fatalf("expected 2 members after forget, got %d", store.Len())
	}
	store.ForgetGuild("g1")
	if store.Len() != 1 {
		t.Fatalf("expected 1 member after guild forget, got %d", store.Len())
	}
}
