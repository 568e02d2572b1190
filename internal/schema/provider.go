package schema

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/matthewbaird/zkgen/zenkit"
)

// ErrWorkspaceNotFound is returned when no workspace matches an identifier.
var ErrWorkspaceNotFound = errors.New("workspace not found")

// Provider is the read-only schema interface the generator consumes.
type Provider interface {
	// Workspace finds a workspace by name, id or uuid.
	Workspace(ctx context.Context, ident string) (*Workspace, error)
	// ListSchema returns a list with its fields in schema order.
	ListSchema(ctx context.Context, workspaceID zenkit.ID, listUUID string) (*List, error)
}

// Source supplies wire-level workspace data. *zenkit.Client implements it,
// as do offline snapshots and the schema cache.
type Source interface {
	Workspaces(ctx context.Context) ([]zenkit.Workspace, error)
	ListInfo(ctx context.Context, workspaceID zenkit.ID, listUUID string) (*zenkit.ListInfo, error)
}

// SourceProvider adapts a Source to Provider, converting wire types and
// skipping malformed elements with a warning.
type SourceProvider struct {
	src Source
	log *zap.SugaredLogger
}

var _ Provider = (*SourceProvider)(nil)

// NewProvider returns a Provider reading from src.
func NewProvider(src Source, log *zap.SugaredLogger) *SourceProvider {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &SourceProvider{src: src, log: log}
}

// Workspace implements Provider.
func (p *SourceProvider) Workspace(ctx context.Context, ident string) (*Workspace, error) {
	all, err := p.src.Workspaces(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetching workspaces")
	}
	names := make([]string, 0, len(all))
	for i := range all {
		if zenkit.MatchesWorkspace(&all[i], ident) {
			return WorkspaceFromWire(all[i]), nil
		}
		names = append(names, all[i].Name)
	}
	err = errors.Wrapf(ErrWorkspaceNotFound, "%q", ident)
	if hint := SuggestFrom(ident, names, 3); hint != "" {
		err = errors.WithHint(err, hint)
	}
	return nil, err
}

// ListSchema implements Provider.
func (p *SourceProvider) ListSchema(ctx context.Context, workspaceID zenkit.ID, listUUID string) (*List, error) {
	info, err := p.src.ListInfo(ctx, workspaceID, listUUID)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching list %s", listUUID)
	}
	list := ListFromWire(info.List)
	for _, el := range info.Elements {
		f, err := FieldFromElement(el)
		if err != nil {
			p.log.Warnw("skipping field", "list", info.List.Name, "field", el.Name, "error", err)
			continue
		}
		list.Fields = append(list.Fields, f)
	}
	return &list, nil
}
