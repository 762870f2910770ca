package app

import "fmt"

// ErrUnknownToken is returned for a well-formed token with no matching
// player.
type ErrUnknownToken struct{ Token Token }

func (e *ErrUnknownToken) Error() string { return fmt.Sprintf("unknown token: %q", string(e.Token)) }

// Players is the player registry: dog id -> player, and token -> player.
//
// Note: the key for the first index is the dog's id, which is minted by
// its owning Session and therefore only unique *within that session* (two
// different maps both start counting dog ids from zero). This mirrors the
// reference implementation, which keys its equivalent registry the same
// way; in practice every external lookup goes through the token index, so
// the collision only matters for the rarely-used dog-id lookup path below.
type Players struct {
	byDogID map[uint64]*Player
	byToken map[Token]*Player

	// NextPlayerCounter mirrors a counter field present in the reference
	// implementation's registry that is never actually read back anywhere
	// (player identity is the dog id, not this counter). Carried through
	// the snapshot format for round-trip fidelity only.
	NextPlayerCounter uint32
}

// NewPlayers constructs an empty registry.
func NewPlayers() *Players {
	return &Players{
		byDogID: make(map[uint64]*Player),
		byToken: make(map[Token]*Player),
	}
}

// Add registers a new player and mints its token.
func (p *Players) Add(player *Player) Token {
	token := GenerateToken()
	for _, exists := p.byToken[token]; exists; _, exists = p.byToken[token] {
		// Astronomically unlikely; mint again rather than fail the join.
		token = GenerateToken()
	}
	p.byDogID[player.ID()] = player
	p.byToken[token] = player
	return token
}

// ByToken looks up a player by its bearer token.
func (p *Players) ByToken(token Token) (*Player, error) {
	player, ok := p.byToken[token]
	if !ok {
		return nil, &ErrUnknownToken{Token: token}
	}
	return player, nil
}

// ByDogID looks up a player by dog id (see the session-scoped caveat on
// the Players type).
func (p *Players) ByDogID(id uint64) (*Player, bool) {
	player, ok := p.byDogID[id]
	return player, ok
}

// Delete removes a player from both indices, e.g. on retirement.
func (p *Players) Delete(player *Player) {
	delete(p.byDogID, player.ID())
	for token, candidate := range p.byToken {
		if candidate == player {
			delete(p.byToken, token)
			break
		}
	}
}

// Tokens returns every minted token paired with its player, for the
// snapshot codec.
func (p *Players) Tokens() map[Token]*Player {
	out := make(map[Token]*Player, len(p.byToken))
	for token, player := range p.byToken {
		out[token] = player
	}
	return out
}

// Restore reinserts a (token, player) pair without minting a new token,
// used when restoring a snapshot.
func (p *Players) Restore(token Token, player *Player) {
	p.byDogID[player.ID()] = player
	p.byToken[token] = player
}
