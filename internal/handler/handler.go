// Package handler routes decoded requests to the session, user and
// guild subsystems and maps their outcomes onto the wire error
// taxonomy. Unexpected failures are logged and collapsed to
// InternalServerError; nothing else leaks.
package handler

import (
	"context"
	"errors"

	"github.com/guildd/guildd/internal/guild"
	"github.com/guildd/guildd/internal/logger"
	"github.com/guildd/guildd/internal/session"
	"github.com/guildd/guildd/internal/user"
	"github.com/guildd/guildd/internal/wire"
)

// Handler composes the three store handles. All fields are cheap,
// shareable handles over the same document-store client.
type Handler struct {
	log      *logger.Logger
	sessions *session.Store
	users    *user.Store
	guilds   *guild.Store
}

func New(log *logger.Logger, sessions *session.Store, users *user.Store, guilds *guild.Store) *Handler {
	return &Handler{
		log:      log.WithComponent("handler"),
		sessions: sessions,
		users:    users,
		guilds:   guilds,
	}
}

// Handle produces exactly one response for one request. It never
// returns an error; failures become Error responses.
func (h *Handler) Handle(ctx context.Context, req *wire.Request) wire.Response {
	switch t := req.Type.(type) {
	case wire.Ping:
		return wire.Pong{Data: t.Data}

	case wire.SignUp:
		return h.signUp(ctx, t)

	case wire.SignIn:
		return h.signIn(ctx, t)

	case wire.SignOut:
		return h.signOut(ctx, req.Cookie)

	case wire.NewServer:
		return h.authed(ctx, req.Cookie, func(uid string) wire.Response {
			return h.newGuild(ctx, uid, t.Name)
		})

	case wire.DeleteServer:
		return h.authed(ctx, req.Cookie, func(uid string) wire.Response {
			gid, ok := parseID(t.ServerID)
			if !ok {
				return badRequest()
			}
			return h.mapErr(ctx, h.guilds.Delete(ctx, uid, gid))
		})

	case wire.NewChannel:
		return h.authed(ctx, req.Cookie, func(uid string) wire.Response {
			gid, ok := parseID(t.ServerID)
			if !ok {
				return badRequest()
			}
			return h.mapErr(ctx, h.guilds.CreateChannel(ctx, uid, gid, t.Name))
		})

	case wire.DeleteChannel:
		return h.authed(ctx, req.Cookie, func(uid string) wire.Response {
			gid, ok := parseID(t.ServerID)
			if !ok {
				return badRequest()
			}
			return h.mapErr(ctx, h.guilds.DeleteChannel(ctx, uid, gid, t.Name))
		})

	case wire.GetChannels:
		return h.authed(ctx, req.Cookie, func(uid string) wire.Response {
			gid, ok := parseID(t.ServerID)
			if !ok {
				return badRequest()
			}
			channels, err := h.guilds.ListChannels(ctx, uid, gid)
			if err != nil {
				return h.mapErr(ctx, err)
			}
			return wire.ChannelList{Channels: channels}
		})

	case wire.SendMessage:
		return h.authed(ctx, req.Cookie, func(uid string) wire.Response {
			return h.sendMessage(ctx, uid, t)
		})

	case wire.GetMessages:
		return h.authed(ctx, req.Cookie, func(uid string) wire.Response {
			gid, ok := parseID(t.ServerID)
			if !ok {
				return badRequest()
			}
			msgs, err := h.guilds.Block(ctx, uid, gid, t.Channel, t.Block)
			if errors.Is(err, guild.ErrEndOfChannel) {
				return wire.EndOfChannel{}
			}
			if err != nil {
				return h.mapErr(ctx, err)
			}
			return wire.MessagesFound{Messages: msgs}
		})

	default:
		return badRequest()
	}
}

func parseID(id wire.ID) (string, bool) {
	parsed, err := wire.ParseID(string(id))
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

func badRequest() wire.Response {
	return wire.Error{Kind: wire.ErrBadRequest}
}

// authed gates a resource operation on the session cookie: a missing
// cookie is PermissionDenied, a malformed one BadRequest, an unknown
// session BadRequest and an expired one SessionExpired.
func (h *Handler) authed(ctx context.Context, cookie *wire.ID, fn func(uid string) wire.Response) wire.Response {
	if cookie == nil {
		return wire.Error{Kind: wire.ErrPermissionDenied}
	}
	uid, ok := parseID(*cookie)
	if !ok {
		return badRequest()
	}

	status, err := h.sessions.CheckActive(ctx, uid)
	if err != nil {
		return h.internal(ctx, err)
	}
	switch status {
	case session.Active:
		return fn(uid)
	case session.Expired:
		return wire.Error{Kind: wire.ErrSessionExpired}
	default:
		return badRequest()
	}
}

func (h *Handler) signUp(ctx context.Context, req wire.SignUp) wire.Response {
	uid, err := h.users.Create(ctx, req.Username, req.Password, true)
	if errors.Is(err, user.ErrUsernameTaken) {
		return badRequest()
	}
	if err != nil {
		return h.internal(ctx, err)
	}
	if err := h.sessions.Start(ctx, uid); err != nil {
		return h.internal(ctx, err)
	}
	return wire.SessionCreated{ID: wire.ID(uid)}
}

// signIn verifies credentials before any mutation: verify, then set
// status, then start the session.
func (h *Handler) signIn(ctx context.Context, req wire.SignIn) wire.Response {
	uid, ok := parseID(req.UserID)
	if !ok {
		return badRequest()
	}

	valid, err := h.users.CheckCredentials(ctx, uid, req.Username, req.Password)
	if err != nil {
		return h.internal(ctx, err)
	}
	if !valid {
		return wire.Error{Kind: wire.ErrInvalidCredentials}
	}
	if err := h.users.SetStatus(ctx, uid, true); err != nil {
		return h.internal(ctx, err)
	}
	if err := h.sessions.Start(ctx, uid); err != nil {
		return h.internal(ctx, err)
	}
	return wire.Success{}
}

// signOut requires a cookie; its absence is BadRequest rather than
// PermissionDenied. Unknown cookies are BadRequest, expired ones
// SessionExpired.
func (h *Handler) signOut(ctx context.Context, cookie *wire.ID) wire.Response {
	if cookie == nil {
		return badRequest()
	}
	uid, ok := parseID(*cookie)
	if !ok {
		return badRequest()
	}

	status, err := h.sessions.CheckActive(ctx, uid)
	if err != nil {
		return h.internal(ctx, err)
	}
	switch status {
	case session.Expired:
		return wire.Error{Kind: wire.ErrSessionExpired}
	case session.NotFound:
		return badRequest()
	}

	if err := h.sessions.End(ctx, uid); err != nil {
		return h.internal(ctx, err)
	}
	if err := h.users.SetStatus(ctx, uid, false); err != nil && !errors.Is(err, user.ErrNotFound) {
		return h.internal(ctx, err)
	}
	return wire.Success{}
}

func (h *Handler) newGuild(ctx context.Context, uid, name string) wire.Response {
	gid, err := h.guilds.Create(ctx, uid, name)
	if err != nil {
		return h.internal(ctx, err)
	}
	if err := h.users.AddGuild(ctx, uid, gid); err != nil {
		return h.internal(ctx, err)
	}
	return wire.ServerCreated{ID: wire.ID(gid)}
}

func (h *Handler) sendMessage(ctx context.Context, uid string, req wire.SendMessage) wire.Response {
	gid, ok := parseID(req.ServerID)
	if !ok {
		return badRequest()
	}

	// The author is the literal username at the time of posting.
	author, err := h.users.Get(ctx, uid)
	if errors.Is(err, user.ErrNotFound) {
		return badRequest()
	}
	if err != nil {
		return h.internal(ctx, err)
	}
	return h.mapErr(ctx, h.guilds.Send(ctx, uid, gid, req.Channel, req.Content, author.Username))
}

// mapErr folds subsystem sentinels onto the wire taxonomy. A nil error
// is Success.
func (h *Handler) mapErr(ctx context.Context, err error) wire.Response {
	switch {
	case err == nil:
		return wire.Success{}
	case errors.Is(err, guild.ErrPermissionDenied):
		return wire.Error{Kind: wire.ErrPermissionDenied}
	case errors.Is(err, guild.ErrNotFound),
		errors.Is(err, guild.ErrChannelExists),
		errors.Is(err, guild.ErrChannelNotFound),
		errors.Is(err, guild.ErrInvalidChannelName):
		return badRequest()
	default:
		return h.internal(ctx, err)
	}
}

func (h *Handler) internal(ctx context.Context, err error) wire.Response {
	h.log.LogError(ctx, err, "request failed")
	return wire.Error{Kind: wire.ErrInternalServerError}
}
