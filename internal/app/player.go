package app

import "github.com/avdanilov/dogwalk-server/internal/model"

// Player is a (dog, session) pairing: an observer, not an owner. The dog
// and session remain owned by the session/game registry; Player merely
// indexes into them so the token registry has something to key on.
type Player struct {
	Dog     *model.Dog
	Session *model.Session
}

func (p *Player) ID() uint64 { return p.Dog.ID }
func (p *Player) Name() string { return p.Dog.Name }
