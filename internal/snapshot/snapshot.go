// Package snapshot stores a workspace schema on disk so generation can run
// offline and reproducibly. Snapshots are JSON (or CUE) documents validated
// against the #Snapshot definition in snapshot.cue.
package snapshot

import (
	"context"
	_ "embed"
	"encoding/json"
	"io"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/matthewbaird/zkgen/internal/schema"
	"github.com/matthewbaird/zkgen/zenkit"
)

//go:embed snapshot.cue
var schemaSource string

// Version is the snapshot format version.
const Version = 1

// ErrInvalid marks a document that does not satisfy #Snapshot.
var ErrInvalid = errors.New("invalid snapshot")

// Snapshot is one workspace with the full schema of each of its lists.
type Snapshot struct {
	Version    int               `json:"version"`
	CapturedAt time.Time         `json:"captured_at"`
	Workspace  zenkit.Workspace  `json:"workspace"`
	Lists      []zenkit.ListInfo `json:"lists"`
}

var _ schema.Source = (*Snapshot)(nil)

// Capture reads the workspace matching ident and all its list schemas from
// src. At most concurrency lists are fetched at once.
func Capture(ctx context.Context, src schema.Source, ident string, concurrency int) (*Snapshot, error) {
	all, err := src.Workspaces(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetching workspaces")
	}
	var ws *zenkit.Workspace
	for i := range all {
		if zenkit.MatchesWorkspace(&all[i], ident) {
			ws = &all[i]
			break
		}
	}
	if ws == nil {
		return nil, errors.Wrapf(schema.ErrWorkspaceNotFound, "%q", ident)
	}

	lists := make([]zenkit.ListInfo, len(ws.Lists))
	eg, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		eg.SetLimit(concurrency)
	}
	for i := range ws.Lists {
		uuid := ws.Lists[i].UUID
		eg.Go(func() error {
			info, err := src.ListInfo(ctx, ws.ID, uuid)
			if err != nil {
				return errors.Wrapf(err, "fetching list %s", uuid)
			}
			lists[i] = *info
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return &Snapshot{
		Version:    Version,
		CapturedAt: time.Now().UTC().Truncate(time.Second),
		Workspace:  *ws,
		Lists:      lists,
	}, nil
}

// Parse validates data against #Snapshot and decodes it. data may be JSON
// or CUE.
func Parse(data []byte) (*Snapshot, error) {
	cctx := cuecontext.New()
	def := cctx.CompileString(schemaSource).LookupPath(cue.ParsePath("#Snapshot"))
	if err := def.Err(); err != nil {
		return nil, errors.Wrap(err, "compiling snapshot schema")
	}
	doc := cctx.CompileBytes(data, cue.Filename("snapshot"))
	if err := doc.Err(); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "parsing snapshot"), ErrInvalid)
	}
	val := def.Unify(doc)
	if err := val.Validate(cue.Concrete(true)); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "validating snapshot"), ErrInvalid)
	}
	raw, err := val.MarshalJSON()
	if err != nil {
		return nil, errors.Wrap(err, "encoding snapshot")
	}
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decoding snapshot"), ErrInvalid)
	}
	return &s, nil
}

// Load reads and parses the snapshot file at path.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading snapshot")
	}
	s, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return s, nil
}

// Write encodes the snapshot as indented JSON.
func (s *Snapshot) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// Save writes the snapshot to path.
func (s *Snapshot) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating snapshot")
	}
	if err := s.Write(f); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "writing snapshot")
	}
	return f.Close()
}

// Workspaces implements schema.Source.
func (s *Snapshot) Workspaces(context.Context) ([]zenkit.Workspace, error) {
	return []zenkit.Workspace{s.Workspace}, nil
}

// ListInfo implements schema.Source.
func (s *Snapshot) ListInfo(_ context.Context, workspaceID zenkit.ID, listUUID string) (*zenkit.ListInfo, error) {
	if workspaceID == s.Workspace.ID {
		for i := range s.Lists {
			if s.Lists[i].List.UUID == listUUID {
				info := s.Lists[i]
				return &info, nil
			}
		}
	}
	return nil, errors.Wrapf(zenkit.ErrNotFound, "list %s not in snapshot", listUUID)
}
