package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	appLog "notify/internal/log"
	"notify/internal/model"
	"notify/internal/session"
)

// liveMessage is one user action sent by static/app.js.
type liveMessage struct {
	Type string `json:"type"`
	Term string `json:"term,omitempty"`
	ID   string `json:"id,omitempty"`
}

// liveReply carries the re-rendered results region and overlay back to the
// browser.
type liveReply struct {
	Type       string                 `json:"type"`
	HTML       string                 `json:"html,omitempty"`
	Scroll     *session.ScrollRequest `json:"scroll"`
	MenuOpen   bool                   `json:"menu_open"`
	SearchTerm string                 `json:"search_term"`
	Error      string                 `json:"error,omitempty"`
}

var errUnknownMessage = errors.New("unknown message type")

// apply dispatches one live message to the coordinator.
func apply(c *session.Coordinator, msg liveMessage) error {
	switch msg.Type {
	case "search":
		c.SetSearchTerm(msg.Term)
	case "select":
		c.SelectEvent(model.EventID(msg.ID))
	case "clear":
		c.ClearSelection()
	case "favorite":
		c.ToggleFavorite(model.EventID(msg.ID))
	case "menu":
		c.ToggleMenu()
	default:
		return errUnknownMessage
	}
	return nil
}

// handleLive upgrades to a websocket and applies each incoming action to the
// caller's session, answering with the re-rendered fragment.
//
// GET /live
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	locale := s.locale(r)

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		appLog.Error("live: accept failed", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	appLog.Debug("live: connected", "remote", r.RemoteAddr)

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !errors.Is(err, context.Canceled) {
				appLog.Debug("live: read ended", "err", err)
			}
			return
		}

		s.store.Touch(sess)

		var reply liveReply
		var msg liveMessage
		if typ != websocket.MessageText || json.Unmarshal(data, &msg) != nil {
			reply = liveReply{Type: "error", Error: "malformed message"}
		} else if reply, err = s.liveStep(sess, locale, msg); err != nil {
			reply = liveReply{Type: "error", Error: err.Error()}
		}

		if err := wsjson.Write(ctx, conn, reply); err != nil {
			appLog.Debug("live: write failed", "err", err)
			return
		}
	}
}

func (s *Server) liveStep(sess *session.Session, locale string, msg liveMessage) (liveReply, error) {
	var (
		applyErr  error
		reply     liveReply
		buf       bytes.Buffer
		renderErr error
	)
	sess.Do(func(c *session.Coordinator) {
		if applyErr = apply(c, msg); applyErr != nil {
			return
		}
		p := s.page(c, locale, true)
		renderErr = s.views.RenderLive(&buf, p)
		reply = liveReply{
			Type:       "render",
			Scroll:     p.Scroll,
			MenuOpen:   p.MenuOpen,
			SearchTerm: p.SearchTerm,
		}
	})
	if applyErr != nil {
		return liveReply{}, applyErr
	}
	if renderErr != nil {
		appLog.Error("live: render failed", renderErr)
		return liveReply{}, errors.New("render failed")
	}
	reply.HTML = buf.String()
	return reply, nil
}
