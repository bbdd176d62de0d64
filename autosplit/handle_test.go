package autosplit

import "testing"

func TestSlotTableInsertGetRemove(t *testing.T) {
	s := newSlotTable[string]()
	h1 := s.insert("a")
	h2 := s.insert("b")

	if v, ok := s.get(h1); !ok || v != "a" {
		t.Fatalf("get(h1) = %v, %v", v, ok)
	}
	if v, ok := s.get(h2); !ok || v != "b" {
		t.Fatalf("get(h2) = %v, %v", v, ok)
	}
	if s.len() != 2 {
		t.Fatalf("len = %d want 2", s.len())
	}

	if !s.remove(h1) {
		t.Fatal("remove(h1) should succeed")
	}
	if _, ok := s.get(h1); ok {
		t.Fatal("h1 should be invalid after remove")
	}
	if s.len() != 1 {
		t.Fatalf("len after remove = %d want 1", s.len())
	}
}

func TestSlotTableReusedSlotBumpsGeneration(t *testing.T) {
	s := newSlotTable[int]()
	h1 := s.insert(10)
	s.remove(h1)
	h2 := s.insert(20)

	if h1.slot() != h2.slot() {
		t.Fatalf("expected slot reuse, got %d and %d", h1.slot(), h2.slot())
	}
	if h1.generation() == h2.generation() {
		t.Fatal("expected generation to change on reuse")
	}
	if _, ok := s.get(h1); ok {
		t.Fatal("stale handle h1 must not resolve after slot reuse")
	}
	if v, ok := s.get(h2); !ok || v != 20 {
		t.Fatalf("get(h2) = %v, %v want 20, true", v, ok)
	}
}

func TestSlotTableInvalidHandleZero(t *testing.T) {
	s := newSlotTable[int]()
	if _, ok := s.get(handle(0)); ok {
		t.Fatal("handle 0 must never resolve")
	}
	if s.remove(handle(0)) {
		t.Fatal("removing handle 0 should fail")
	}
}

func TestSlotTableGetMut(t *testing.T) {
	s := newSlotTable[int]()
	h := s.insert(1)
	p, ok := s.getMut(h)
	if !ok {
		t.Fatal("getMut should succeed")
	}
	*p = 42
	v, _ := s.get(h)
	if v != 42 {
		t.Fatalf("value after mutation = %d want 42", v)
	}
}
