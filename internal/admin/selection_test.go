package admin

import (
	"reflect"
	"testing"
)

func TestSelectionToggle(t *testing.T) {
	sel := NewSelection()

	if !sel.Toggle("e1") {
		t.Fatal("first toggle should select")
	}
	if !sel.Has("e1") {
		t.Fatal("id not selected after toggle")
	}
	if sel.Toggle("e1") {
		t.Fatal("second toggle should deselect")
	}
	if sel.Has("e1") || sel.Len() != 0 {
		t.Fatal("id lingers after deselect")
	}
}

func TestSelectionSurvivesRefiltering(t *testing.T) {
	sel := NewSelection()
	sel.SelectAll([]string{"e1", "e2", "e3"})

	// Narrowing the displayed list does not touch the selection: ids stay
	// selected even while filtered out of view.
	displayed := []string{"e2"}
	for _, id := range displayed {
		if !sel.Has(id) {
			t.Fatalf("%s lost from selection", id)
		}
	}
	if !sel.Has("e1") || !sel.Has("e3") {
		t.Fatal("offscreen ids must stay selected")
	}
	if sel.Len() != 3 {
		t.Fatalf("expected 3 selected, got %d", sel.Len())
	}
}

func TestSelectionSelectAllOnlyGivenSubset(t *testing.T) {
	sel := NewSelection()
	sel.SelectAll([]string{"e2", "e1", "e1"})

	if sel.Has("e3") {
		t.Fatal("SelectAll must not reach beyond the given ids")
	}
	if got := sel.IDs(); !reflect.DeepEqual(got, []string{"e1", "e2"}) {
		t.Fatalf("expected deduplicated sorted ids, got %v", got)
	}
}

func TestSelectionRemoveAndClear(t *testing.T) {
	sel := NewSelection()
	sel.SelectAll([]string{"e1", "e2"})

	sel.Remove("e1")
	sel.Remove("ghost")
	if sel.Has("e1") || !sel.Has("e2") {
		t.Fatalf("unexpected selection after remove: %v", sel.IDs())
	}

	sel.Clear()
	if sel.Len() != 0 {
		t.Fatalf("expected empty selection, got %v", sel.IDs())
	}
}
