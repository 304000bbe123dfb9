package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/tripsift/tripsift/pkg/core"
	"github.com/tripsift/tripsift/pkg/pipeline"
	"github.com/tripsift/tripsift/pkg/refine"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The API is CORS-open; the socket follows suit.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// liveFrame is one client message on the live search socket.
type liveFrame struct {
	Type string `json:"type"`

	// type == "query"
	Origin      string `json:"origin,omitempty"`
	Destination string `json:"destination,omitempty"`
	Location    string `json:"location,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Guests      int    `json:"guests,omitempty"`

	// type == "sort"
	Sort string `json:"sort,omitempty"`

	// type == "filter"
	MinPrice   *int64   `json:"min_price,omitempty"`
	MaxPrice   *int64   `json:"max_price,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Flags      []string `json:"flags,omitempty"`

	// type == "page"
	Page int `json:"page,omitempty"`
}

type liveResults struct {
	Type       string            `json:"type"`
	Token      uint64            `json:"token"`
	Query      string            `json:"query"`
	Items      []core.ResultItem `json:"items"`
	Count      int               `json:"count"`
	Pagination refine.Pagination `json:"pagination"`
}

type liveError struct {
	Type   string `json:"type"`
	Status int    `json:"status"`
	Error  string `json:"error"`
}

type liveInit struct {
	Type     string `json:"type"`
	Provider string `json:"provider"`
	Session  string `json:"session"`
}

// HandleLiveSearch runs a debounced search session over a WebSocket.
// The client streams query/filter/sort/page frames as the user types;
// the server pushes results frames, each tagged with the dispatch
// token so the client can verify it never regresses.
func (s *Server) HandleLiveSearch(w http.ResponseWriter, r *http.Request) {
	rt, name, err := s.runtimeFor(r.URL.Query().Get("provider"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Unknown provider", err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer func() { _ = conn.Close() }()

	session, err := pipeline.NewSession(rt.provider, pipeline.Options{
		QuietInterval: s.cfg.Debounce.Duration,
		Retry:         s.cfg.GetProviderRetry(name),
		PerPage:       s.cfg.PerPage,
		HTTPClient:    s.client,
		History:       s.store,
	})
	if err != nil {
		s.logger.Errorf("creating live session: %v", err)
		return
	}
	defer session.Close()

	// Concurrent writers: the results callback runs on pipeline
	// goroutines, errors on this one.
	var writeMu sync.Mutex
	send := func(v interface{}) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(v); err != nil {
			s.logger.Debugf("live session %s write: %v", session.ID(), err)
		}
	}

	session.OnResults(func(res pipeline.Results) {
		send(liveResults{
			Type:       "results",
			Token:      res.Token,
			Query:      res.Query.Text(),
			Items:      res.Items,
			Count:      len(res.Items),
			Pagination: res.Pagination,
		})
	})
	session.OnError(func(q core.SearchQuery, err error) {
		send(liveError{Type: "error", Status: errStatus(err), Error: err.Error()})
	})

	send(liveInit{Type: "init", Provider: name, Session: session.ID()})

	domain := rt.provider.Domain()
	for {
		var frame liveFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debugf("live session %s closed: %v", session.ID(), err)
			}
			return
		}

		switch frame.Type {
		case "query":
			raw := core.RawQuery{
				Domain:      domain,
				Origin:      frame.Origin,
				Destination: frame.Destination,
				Location:    frame.Location,
				StartDate:   frame.StartDate,
				EndDate:     frame.EndDate,
				Guests:      frame.Guests,
			}
			if err := session.Submit(context.Background(), raw); err != nil {
				send(liveError{Type: "error", Status: errStatus(err), Error: err.Error()})
			}
		case "flush":
			session.Flush()
		case "cancel":
			session.Cancel()
		case "sort":
			if err := session.SetSort(refine.SortKey(frame.Sort)); err != nil {
				send(liveError{Type: "error", Status: http.StatusBadRequest, Error: err.Error()})
			}
		case "filter":
			state := refine.FilterState{
				MinPrice:   frame.MinPrice,
				MaxPrice:   frame.MaxPrice,
				Categories: frame.Categories,
			}
			if len(frame.Flags) > 0 {
				state.Flags = make(map[string]bool, len(frame.Flags))
				for _, f := range frame.Flags {
					state.Flags[f] = true
				}
			}
			session.SetFilter(state)
		case "page":
			session.SetPage(frame.Page)
		default:
			send(liveError{Type: "error", Status: http.StatusBadRequest, Error: "unknown frame type '" + frame.Type + "'"})
		}
	}
}
