package model

import "testing"

func TestBag_AddItemUpToCapacity(t *testing.T) {
	b := NewBag(2)
	if b.IsFull() {
		t.Fatal("new bag with capacity 2 should not start full")
	}
	if !b.AddItem(1, 0) {
		t.Error("expected first AddItem to succeed")
	}
	if !b.AddItem(2, 1) {
		t.Error("expected second AddItem to succeed")
	}
	if !b.IsFull() {
		t.Error("bag should be full at capacity")
	}
	if b.AddItem(3, 0) {
		t.Error("expected AddItem to fail once the bag is full")
	}
	if b.Size() != 2 {
		t.Errorf("expected size 2, got %d", b.Size())
	}
}

func TestBag_ClearEmptiesContents(t *testing.T) {
	b := NewBag(3)
	b.AddItem(1, 0)
	b.AddItem(2, 0)
	b.Clear()
	if b.Size() != 0 {
		t.Errorf("expected empty bag after Clear, got size %d", b.Size())
	}
	if !b.AddItem(3, 0) {
		t.Error("expected bag to accept items again after Clear")
	}
}

func TestBag_ItemsPreservesInsertionOrder(t *testing.T) {
	b := NewBag(3)
	b.AddItem(10, 1)
	b.AddItem(20, 2)
	items := b.Items()
	if len(items) != 2 || items[0].ID != 10 || items[1].ID != 20 {
		t.Errorf("expected items in insertion order, got %+v", items)
	}
}

func TestBag_Restore(t *testing.T) {
	b := NewBag(1)
	b.AddItem(1, 0)
	b.Restore([]LootItem{{ID: 5, TypeIndex: 2}, {ID: 6, TypeIndex: 3}}, 5)
	if b.Capacity() != 5 {
		t.Errorf("expected restored capacity 5, got %d", b.Capacity())
	}
	if b.Size() != 2 {
		t.Errorf("expected restored size 2, got %d", b.Size())
	}
	if b.IsFull() {
		t.Error("restored bag with 2/5 items should not be full")
	}
}
