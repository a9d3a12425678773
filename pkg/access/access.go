// Package access resolves sender roles and enforces command access levels.
package access

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mymmrac/telego"

	"github.com/ajirodesu/chaldea/pkg/command"
	"github.com/ajirodesu/chaldea/pkg/config"
)

// Role is a sender's resolved standing for one dispatch.
type Role struct {
	Owner     bool
	Developer bool
	VIP       bool
	ChatAdmin bool
}

// Elevated reports owner or developer standing, the roles exempt from
// maintenance mode.
func (r Role) Elevated() bool { return r.Owner || r.Developer }

// ChatMemberAPI is the slice of the platform client the gate needs.
// *telego.Bot satisfies it.
type ChatMemberAPI interface {
	GetChatMember(ctx context.Context, params *telego.GetChatMemberParams) (telego.ChatMember, error)
}

// Gate resolves roles from the on-disk owner/developer and VIP lists plus a
// live chat-member query. The lists are re-read on every resolution because
// the files may be edited externally while the bot runs; the admin status is
// queried per dispatch and never cached beyond it.
type Gate struct {
	store *config.Store
	api   ChatMemberAPI
}

func NewGate(store *config.Store, api ChatMemberAPI) *Gate {
	return &Gate{store: store, api: api}
}

// ResolveRole determines the sender's role in the given chat. A failed
// chat-member query degrades to non-admin and is reported alongside the
// role so the caller can trace it.
func (g *Gate) ResolveRole(ctx context.Context, userID string, chat telego.Chat) (Role, error) {
	settings, err := g.store.Settings()
	if err != nil {
		return Role{}, fmt.Errorf("resolve role: %w", err)
	}
	vip, err := g.store.VIP()
	if err != nil {
		return Role{}, fmt.Errorf("resolve role: %w", err)
	}

	role := Role{
		Owner:     settings.Owner.Contains(userID),
		Developer: settings.DevID.Contains(userID),
		VIP:       vip.UID.Contains(userID),
	}

	if chat.Type == telego.ChatTypePrivate {
		// A one-to-one chat has no member hierarchy; the sender runs it.
		role.ChatAdmin = true
		return role, nil
	}

	uid, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return role, fmt.Errorf("resolve role: bad user id %q: %w", userID, err)
	}

	member, err := g.api.GetChatMember(ctx, &telego.GetChatMemberParams{
		ChatID: telego.ChatID{ID: chat.ID},
		UserID: uid,
	})
	if err != nil {
		return role, fmt.Errorf("resolve role: chat member query: %w", err)
	}

	switch member.MemberStatus() {
	case telego.MemberStatusCreator, telego.MemberStatusAdministrator:
		role.ChatAdmin = true
	}
	return role, nil
}

// Check applies the access-level semantics: anyone always passes,
// administrator needs platform-confirmed admin standing, vip passes VIPs and
// owners/developers, owner passes the owner/developer lists only.
func Check(level command.AccessLevel, role Role) bool {
	switch level {
	case command.AccessAdministrator:
		return role.ChatAdmin
	case command.AccessVIP:
		return role.VIP || role.Elevated()
	case command.AccessOwner:
		return role.Elevated()
	default:
		return true
	}
}
