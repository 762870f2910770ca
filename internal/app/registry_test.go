package app

import (
	"testing"

	"github.com/avdanilov/dogwalk-server/internal/model"
)

func newTestPlayer(dogID uint64, name string) *Player {
	return &Player{Dog: &model.Dog{ID: dogID, Name: name}}
}

func TestPlayers_AddAndLookup(t *testing.T) {
	p := NewPlayers()
	player := newTestPlayer(1, "rex")

	token := p.Add(player)

	byToken, err := p.ByToken(token)
	if err != nil {
		t.Fatalf("ByToken: %v", err)
	}
	if byToken != player {
		t.Error("expected ByToken to return the same player instance")
	}

	byID, ok := p.ByDogID(1)
	if !ok || byID != player {
		t.Error("expected ByDogID to find the registered player")
	}
}

func TestPlayers_ByTokenUnknown(t *testing.T) {
	p := NewPlayers()
	if _, err := p.ByToken("not-a-real-token"); err == nil {
		t.Error("expected an error for an unregistered token")
	}
}

func TestPlayers_Delete(t *testing.T) {
	p := NewPlayers()
	player := newTestPlayer(1, "rex")
	token := p.Add(player)

	p.Delete(player)

	if _, err := p.ByToken(token); err == nil {
		t.Error("expected the token to be gone after Delete")
	}
	if _, ok := p.ByDogID(1); ok {
		t.Error("expected the dog id index to be gone after Delete")
	}
}

func TestPlayers_RestorePreservesToken(t *testing.T) {
	p := NewPlayers()
	player := newTestPlayer(2, "fido")

	p.Restore(Token("0123456789abcdef0123456789abcdef"[:32]), player)

	got, err := p.ByToken(Token("0123456789abcdef0123456789abcdef"[:32]))
	if err != nil || got != player {
		t.Errorf("expected Restore to reinsert under the given token, err=%v got=%v", err, got)
	}
}
