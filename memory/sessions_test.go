package memory_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/petasbytes/course-agent/memory"
)

func TestSessions_HistoryFormatAndTrim(t *testing.T) {
	s := memory.NewSessions(2)
	id := s.CreateSession()

	if _, ok := s.History(id); ok {
		t.Fatal("new session should have no history")
	}

	s.AddExchange(id, "q1", "a1")
	s.AddExchange(id, "q2", "a2")
	s.AddExchange(id, "q3", "a3")

	got, ok := s.History(id)
	if !ok {
		t.Fatal("expected history")
	}
	want := "User: q2\nAssistant: a2\nUser: q3\nAssistant: a3"
	if got != want {
		t.Fatalf("history = %q, want %q", got, want)
	}
	if n := len(s.Exchanges(id)); n != 2 {
		t.Fatalf("retained %d exchanges, want 2", n)
	}
}

func TestSessions_AddCreatesAndClearForgets(t *testing.T) {
	s := memory.NewSessions(2)
	s.AddExchange("adhoc", "q", "a")
	if !s.Exists("adhoc") {
		t.Fatal("AddExchange should create the session")
	}
	s.ClearSession("adhoc")
	if s.Exists("adhoc") {
		t.Fatal("ClearSession should remove the session")
	}
	if _, ok := s.History("adhoc"); ok {
		t.Fatal("cleared session should have no history")
	}
}

func TestSessions_ZeroDepthKeepsNothing(t *testing.T) {
	s := memory.NewSessions(0)
	s.AddExchange("x", "q", "a")
	if _, ok := s.History("x"); ok {
		t.Fatal("depth 0 should keep no history")
	}
}

func TestSessions_UniqueIDs(t *testing.T) {
	s := memory.NewSessions(2)
	if s.CreateSession() == s.CreateSession() {
		t.Fatal("session ids must be unique")
	}
}

func TestSessions_ConcurrentAppends(t *testing.T) {
	s := memory.NewSessions(100)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddExchange("shared", "q", "a")
		}()
	}
	wg.Wait()
	if n := len(s.Exchanges("shared")); n != 50 {
		t.Fatalf("got %d exchanges, want 50", n)
	}
}

func TestSessions_SaveLoadRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "session.json")

	in := memory.NewSessions(3)
	in.AddExchange("s1", "hi", "hello")
	in.AddExchange("s1", "and?", "more")
	if err := in.Save(p); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Reloading with a smaller depth trims on load.
	out, err := memory.LoadSessions(p, 1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got := out.Exchanges("s1")
	if len(got) != 1 || got[0] != (memory.Exchange{Query: "and?", Answer: "more"}) {
		t.Fatalf("unexpected exchanges: %+v", got)
	}
}

func TestSessions_LoadMissing_ReturnsEmpty(t *testing.T) {
	p := filepath.Join(t.TempDir(), "does-not-exist.json")
	s, err := memory.LoadSessions(p, 2)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if s == nil || s.Exists("anything") {
		t.Fatal("expected empty store")
	}
}

func TestSessions_LoadInvalidJSON_ReturnsError(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(p, []byte("{oops"), 0o664); err != nil {
		t.Fatalf("prep: %v", err)
	}
	if _, err := memory.LoadSessions(p, 2); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}
