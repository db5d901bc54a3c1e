package mtproto

import (
	"context"
	"fmt"
	"invitebot/entity"
	"invitebot/internal/links"
	"invitebot/internal/ratelimit"
	"invitebot/lib/clock"
	"strconv"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
)

const channelShift = 1_000_000_000_000

// ExportInvite implements links.Provider.
func (c *Client) ExportInvite(ctx context.Context, chatId int64, params links.ExportParams) (*entity.InviteLink, error) {
	api, err := c.API()
	if err != nil {
		return nil, err
	}
	peer, err := c.resolvePeer(ctx, api, chatId)
	if err != nil {
		return nil, mapError(err)
	}

	req := &tg.MessagesExportChatInviteRequest{Peer: peer}
	if params.Title != "" {
		req.SetTitle(params.Title)
	}
	if params.ExpireAt != nil {
		req.SetExpireDate(int(params.ExpireAt.Unix()))
	}
	if params.UsageLimit != nil && *params.UsageLimit > 0 {
		req.SetUsageLimit(*params.UsageLimit)
	}
	if params.RequiresApproval {
		req.SetRequestNeeded(true)
	}

	res, err := api.MessagesExportChatInvite(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}
	invite, ok := res.(*tg.ChatInviteExported)
	if !ok {
		return nil, fmt.Errorf("unexpected invite type %T", res)
	}
	link := toInviteLink(invite)
	link.ChatId = strconv.FormatInt(chatId, 10)
	return &link, nil
}

// ListInvites implements links.Provider. Only links exported by this account are returned.
func (c *Client) ListInvites(ctx context.Context, chatId int64, query links.PageQuery) (links.Page, error) {
	api, err := c.API()
	if err != nil {
		return links.Page{}, err
	}
	peer, err := c.resolvePeer(ctx, api, chatId)
	if err != nil {
		return links.Page{}, mapError(err)
	}

	req := &tg.MessagesGetExportedChatInvitesRequest{
		Peer:    peer,
		AdminID: &tg.InputUserSelf{},
		Revoked: query.Revoked,
		Limit:   query.Limit,
	}
	if !query.OffsetDate.IsZero() && query.OffsetLink != "" {
		req.SetOffsetDate(int(query.OffsetDate.Unix()))
		req.SetOffsetLink(query.OffsetLink)
	}

	res, err := api.MessagesGetExportedChatInvites(ctx, req)
	if err != nil {
		return links.Page{}, mapError(err)
	}
	return toPage(res.Invites, strconv.FormatInt(chatId, 10)), nil
}

// toPage keeps exported links only, Fetched still counts every returned item.
func toPage(invites []tg.ExportedChatInviteClass, chat string) links.Page {
	page := links.Page{
		Links:   make([]entity.InviteLink, 0, len(invites)),
		Fetched: len(invites),
	}
	for _, item := range invites {
		invite, ok := item.(*tg.ChatInviteExported)
		if !ok {
			continue
		}
		link := toInviteLink(invite)
		link.ChatId = chat
		page.Links = append(page.Links, link)
	}
	return page
}

func (c *Client) resolvePeer(ctx context.Context, api *tg.Client, chatId int64) (tg.InputPeerClass, error) {
	c.mu.RLock()
	peer, ok := c.peers[chatId]
	c.mu.RUnlock()
	if ok {
		return peer, nil
	}

	res, err := api.MessagesGetAllChats(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("get chats: %w", err)
	}
	peer = findPeer(res.GetChats(), chatId)
	if peer == nil {
		return nil, fmt.Errorf("chat %d is not available to this account", chatId)
	}

	c.mu.Lock()
	c.peers[chatId] = peer
	c.mu.Unlock()
	return peer, nil
}

// findPeer matches a Bot API style chat id: -100<channel> for channels
// and supergroups, -<chat> for basic groups.
func findPeer(chats []tg.ChatClass, chatId int64) tg.InputPeerClass {
	for _, item := range chats {
		switch chat := item.(type) {
		case *tg.Channel:
			if -chatId-channelShift == chat.ID {
				return &tg.InputPeerChannel{ChannelID: chat.ID, AccessHash: chat.AccessHash}
			}
		case *tg.Chat:
			if -chatId == chat.ID {
				return &tg.InputPeerChat{ChatID: chat.ID}
			}
		}
	}
	return nil
}

func toInviteLink(invite *tg.ChatInviteExported) entity.InviteLink {
	link := entity.InviteLink{
		Link:             invite.Link,
		Title:            invite.Title,
		CreatedAt:        clock.FromUnix(invite.Date),
		RequiresApproval: invite.RequestNeeded,
		UsageCount:       invite.Usage,
		Revoked:          invite.Revoked,
	}
	if v, ok := invite.GetExpireDate(); ok && v > 0 {
		at := clock.FromUnix(v)
		link.ExpireAt = &at
	}
	if v, ok := invite.GetUsageLimit(); ok && v > 0 {
		limit := v
		link.UsageLimit = &limit
	}
	return link
}

// mapError turns platform errors into the kinds ratelimit.Caller retries.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if wait, ok := tgerr.AsFloodWait(err); ok {
		return ratelimit.FloodWait(wait, err)
	}
	if rpc, ok := tgerr.As(err); ok {
		if rpc.Code >= 500 || rpc.IsType("RPC_CALL_FAIL") || rpc.IsType("TIMEOUT") {
			return ratelimit.Transient(err)
		}
	}
	return err
}
