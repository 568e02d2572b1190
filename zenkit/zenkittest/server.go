// Package zenkittest runs an in-memory Zenkit API for tests of the client,
// the generator and generated code.
package zenkittest

import (
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matthewbaird/zkgen/zenkit"
)

// Token is the API key the fake server accepts.
const Token = "zenkittest-token"

// Server is a fake Zenkit API. The zero value is not usable; use New.
type Server struct {
	mu         sync.Mutex
	workspaces []zenkit.Workspace
	lists      map[string]zenkit.List // by uuid, short id and id
	elements   map[string][]zenkit.Element
	entries    map[zenkit.ID][]*zenkit.Entry
	nextID     zenkit.ID
	updates    []map[string]any
	hits       map[string]int

	srv *httptest.Server
}

// New starts a server and stops it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		lists:    make(map[string]zenkit.List),
		elements: make(map[string][]zenkit.Element),
		entries:  make(map[zenkit.ID][]*zenkit.Entry),
		hits:     make(map[string]int),
		nextID:   1000,
	}
	s.srv = httptest.NewServer(s.routes())
	t.Cleanup(s.srv.Close)
	return s
}

// URL is the API endpoint to configure clients with.
func (s *Server) URL() string {
	return s.srv.URL
}

// Client returns a client for the server without retries.
func (s *Server) Client(t testing.TB) *zenkit.Client {
	t.Helper()
	c, err := zenkit.NewClient(zenkit.Config{
		Token:      Token,
		Endpoint:   s.URL(),
		HTTPClient: s.srv.Client(),
	})
	if err != nil {
		t.Fatalf("zenkittest: client: %v", err)
	}
	return c
}

// AddWorkspace registers a workspace. Its Lists are replaced as lists are
// added with AddList.
func (s *Server) AddWorkspace(ws zenkit.Workspace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws.Lists = nil
	s.workspaces = append(s.workspaces, ws)
}

// AddList registers a list and its elements under a workspace.
func (s *Server) AddList(workspaceID zenkit.ID, info zenkit.ListInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info.List.WorkspaceID = workspaceID
	for i := range s.workspaces {
		if s.workspaces[i].ID == workspaceID {
			s.workspaces[i].Lists = append(s.workspaces[i].Lists, info.List)
		}
	}
	for _, key := range listKeys(info.List) {
		s.lists[key] = info.List
	}
	s.elements[info.List.UUID] = info.Elements
}

// AddEntry stores an entry in a list.
func (s *Server) AddEntry(listID zenkit.ID, e *zenkit.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ListID = listID
	s.entries[listID] = append(s.entries[listID], e)
}

// Entries returns the stored entries of a list.
func (s *Server) Entries(listID zenkit.ID) []*zenkit.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*zenkit.Entry(nil), s.entries[listID]...)
}

// Updates returns every update payload received, in order.
func (s *Server) Updates() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.updates...)
}

// Hits counts requests per route pattern.
func (s *Server) Hits(pattern string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[pattern]
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.auth, s.count)
	r.Get("/users/me/workspacesWithLists", s.handleWorkspaces)
	r.Route("/lists/{listID}", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Get("/elements", s.handleElements)
		r.Post("/entries/filter", s.handleFilter)
		r.Post("/entries", s.handleCreate)
		r.Get("/entries/{entryID}", s.handleEntry)
		r.Put("/entries/{entryID}", s.handleUpdate)
	})
	return r
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Zenkit-API-Key") != Token {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			s.mu.Lock()
			s.hits[r.Method+" "+rctx.RoutePattern()]++
			s.mu.Unlock()
		}
	})
}

func (s *Server) handleWorkspaces(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.workspaces)
}

func (s *Server) list(r *http.Request) (zenkit.List, bool) {
	l, ok := s.lists[chi.URLParam(r, "listID")]
	return l, ok
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.list(r)
	if !ok {
		writeError(w, http.StatusNotFound, "list not found")
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleElements(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.list(r)
	if !ok {
		writeError(w, http.StatusNotFound, "list not found")
		return
	}
	writeJSON(w, http.StatusOK, s.elements[l.UUID])
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req zenkit.EntriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid filter body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.list(r)
	if !ok {
		writeError(w, http.StatusNotFound, "list not found")
		return
	}
	all := s.entries[l.ID]
	start := min(req.Skip, len(all))
	end := len(all)
	if req.Limit > 0 {
		end = min(start+req.Limit, len(all))
	}
	writeJSON(w, http.StatusOK, all[start:end])
}

func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.findEntry(r)
	if !ok {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid entry body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.list(r)
	if !ok {
		writeError(w, http.StatusNotFound, "list not found")
		return
	}
	s.nextID++
	now := time.Now().UTC()
	e := &zenkit.Entry{
		ID:        s.nextID,
		ShortID:   strconv.FormatUint(uint64(s.nextID), 36),
		UUID:      uuid.NewString(),
		ListID:    l.ID,
		CreatedAt: now,
		UpdatedAt: now,
		Fields:    fields,
	}
	s.entries[l.ID] = append(s.entries[l.ID], e)
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid entry body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.findEntry(r)
	if !ok {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}
	s.updates = append(s.updates, fields)
	action, _ := fields[zenkit.UpdateActionKey].(string)
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	for k, v := range fields {
		if k == zenkit.UpdateActionKey {
			continue
		}
		e.Fields[k] = merge(action, e.Fields[k], v)
	}
	e.UpdatedAt = time.Now().UTC()
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) findEntry(r *http.Request) (*zenkit.Entry, bool) {
	l, ok := s.list(r)
	if !ok {
		return nil, false
	}
	ident := chi.URLParam(r, "entryID")
	for _, e := range s.entries[l.ID] {
		if e.UUID == ident || strconv.FormatUint(uint64(e.ID), 10) == ident {
			return e, true
		}
	}
	return nil, false
}

// merge applies an update action to one field value. Non-array values are
// always replaced.
func merge(action string, old, v any) any {
	oldArr, okOld := old.([]any)
	newArr, okNew := v.([]any)
	if !okOld || !okNew {
		return v
	}
	switch action {
	case zenkit.UpdateActionAppend:
		return append(append([]any(nil), oldArr...), newArr...)
	case zenkit.UpdateActionRemove:
		var kept []any
		for _, o := range oldArr {
			drop := false
			for _, n := range newArr {
				if o == n {
					drop = true
					break
				}
			}
			if !drop {
				kept = append(kept, o)
			}
		}
		return kept
	default:
		return v
	}
}

func listKeys(l zenkit.List) []string {
	keys := []string{l.UUID, strconv.FormatUint(uint64(l.ID), 10)}
	if l.ShortID != "" {
		keys = append(keys, l.ShortID)
	}
	return keys
}

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("zenkittest: encode: %v", err)
	}
}

// writeError writes a JSON error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
