// Package codegen turns a Zenkit workspace schema into Go source.
//
// A Generator owns one RenderContext and one OutputBuffer. Lists are emitted
// strictly one after another: every list renders into the buffer, the buffer
// is taken and cleared into the list's file, and only then does the next
// list start. After all lists the workspace root file and a module manifest
// are written.
package codegen

import (
	"context"
	"go/format"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/matthewbaird/zkgen/internal/naming"
	"github.com/matthewbaird/zkgen/internal/schema"
)

// RuntimeModule is the module generated code imports its runtime from.
const RuntimeModule = "github.com/matthewbaird/zkgen"

const (
	rootFile     = "zkgen.go"
	manifestFile = "go.mod.sample"
	fileSuffix   = "_gen.go"
)

// ErrSymbolCollision is returned when two lists of a workspace map to the
// same file or Go type.
var ErrSymbolCollision = errors.New("symbol collision")

// Formatter rewrites generated Go files in place.
type Formatter interface {
	Format(ctx context.Context, paths []string) error
}

// Options tune a generation run. The zero value is usable.
type Options struct {
	// Package is the generated package name. Defaults to the workspace
	// name in package form.
	Package string
	// ModulePath is written to the manifest. Defaults to Package.
	ModulePath string
	// RuntimeVersion is the version of RuntimeModule the manifest requires.
	RuntimeVersion string
	// Concurrency bounds parallel list schema fetches. Defaults to 4.
	Concurrency int
	// Formatter runs over the written .go files. Nil skips the step.
	Formatter Formatter
}

// ModuleInfo describes one generated list file. The root template renders
// the workspace facade from these.
type ModuleInfo struct {
	List     string
	Name     string
	File     string
	Symbol   string
	ListType string
	Item     string
}

// Result lists what a run wrote, in write order.
type Result struct {
	Files   []string
	Modules []ModuleInfo
}

// GoFiles returns the written Go source paths.
func (r *Result) GoFiles() []string {
	var out []string
	for _, f := range r.Files {
		if filepath.Ext(f) == ".go" {
			out = append(out, f)
		}
	}
	return out
}

// Generator renders workspaces. It is not safe for concurrent use.
type Generator struct {
	log      *zap.SugaredLogger
	opts     Options
	buf      *OutputBuffer
	ctx      *RenderContext
	renderer *Renderer
	// names holds the names declared so far by the current run.
	names nameClaims
}

// New returns a Generator with the embedded templates parsed.
func New(log *zap.SugaredLogger, opts Options) (*Generator, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.RuntimeVersion == "" {
		opts.RuntimeVersion = "v0.0.0"
	}
	buf := &OutputBuffer{}
	r, err := NewRenderer(buf)
	if err != nil {
		return nil, err
	}
	return &Generator{
		log:      log,
		opts:     opts,
		buf:      buf,
		ctx:      NewRenderContext(),
		renderer: r,
	}, nil
}

// Context exposes the render context, mainly for tests.
func (g *Generator) Context() *RenderContext {
	return g.ctx
}

// Buffer exposes the output buffer, mainly for tests.
func (g *Generator) Buffer() *OutputBuffer {
	return g.buf
}

// Generate fetches the workspace identified by ident and writes its
// package into outDir. The first error aborts the run; files already
// written stay on disk.
func (g *Generator) Generate(ctx context.Context, p schema.Provider, ident, outDir string) (*Result, error) {
	ws, err := p.Workspace(ctx, ident)
	if err != nil {
		return nil, err
	}
	lists, err := g.fetchLists(ctx, p, ws)
	if err != nil {
		return nil, err
	}
	modules, err := planModules(lists)
	if err != nil {
		return nil, err
	}
	g.names = newNameClaims()

	pkg := g.opts.Package
	if pkg == "" {
		if pkg, err = naming.PackageName(ws.Name); err != nil {
			return nil, errors.Wrap(err, "deriving package name")
		}
	}
	modulePath := g.opts.ModulePath
	if modulePath == "" {
		modulePath = pkg
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating output directory")
	}

	scope := g.ctx.Enter()
	defer scope.Exit()
	scope.Set(KeyWorkspace, ws.Name).
		Set(KeyWorkspaceID, ws.ID).
		Set(KeyWorkspaceUUID, ws.UUID).
		Set(KeyWorkspaceDesc, ws.Description).
		Set(KeyPackage, pkg).
		Set(KeyModulePath, modulePath).
		Set(KeyRuntimeModule, RuntimeModule).
		Set(KeyRuntimeImport, RuntimeModule+"/zenkit").
		Set(KeyRuntimeVersion, g.opts.RuntimeVersion)

	res := &Result{Modules: modules}
	for i, list := range lists {
		g.log.Infow("generating list", "list", list.Name, "fields", len(list.Fields))
		if err := g.EmitList(list); err != nil {
			return nil, err
		}
		path := filepath.Join(outDir, modules[i].File)
		if err := g.writeFile(path, true); err != nil {
			return nil, err
		}
		res.Files = append(res.Files, path)
	}

	scope.Set(KeyModules, modules)
	if err := g.renderer.Render("workspace_root", g.ctx); err != nil {
		return nil, errors.Wrap(err, "workspace root")
	}
	path := filepath.Join(outDir, rootFile)
	if err := g.writeFile(path, true); err != nil {
		return nil, err
	}
	res.Files = append(res.Files, path)

	if err := g.renderer.Render("manifest", g.ctx); err != nil {
		return nil, errors.Wrap(err, "manifest")
	}
	path = filepath.Join(outDir, manifestFile)
	if err := g.writeFile(path, false); err != nil {
		return nil, err
	}
	res.Files = append(res.Files, path)

	if g.opts.Formatter != nil {
		if err := g.opts.Formatter.Format(ctx, res.GoFiles()); err != nil {
			return res, err
		}
	}
	return res, nil
}

// fetchLists loads every list schema of ws concurrently and returns them
// in workspace order.
func (g *Generator) fetchLists(ctx context.Context, p schema.Provider, ws *schema.Workspace) ([]*schema.List, error) {
	lists := make([]*schema.List, len(ws.Lists))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Concurrency)
	for i := range ws.Lists {
		uuid := ws.Lists[i].UUID
		eg.Go(func() error {
			l, err := p.ListSchema(ctx, ws.ID, uuid)
			if err != nil {
				return err
			}
			lists[i] = l
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return lists, nil
}

// planModules derives file and type names for every list and rejects
// workspaces where two lists would overwrite each other.
func planModules(lists []*schema.List) ([]ModuleInfo, error) {
	modules := make([]ModuleInfo, 0, len(lists))
	const root = "the workspace root file"
	owners := map[string]string{
		"file " + rootFile:  root,
		"type Workspace":    root,
		"type BuilderError": root,
	}
	claim := func(kind, name, list string) error {
		key := kind + " " + name
		if prev, ok := owners[key]; ok {
			return errors.Wrapf(ErrSymbolCollision, "list %q: %s already used by %s", list, key, prev)
		}
		owners[key] = strconv.Quote(list)
		return nil
	}
	for _, l := range lists {
		name, err := naming.IdentifierCase(l.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "list %q", l.Name)
		}
		symbol, err := naming.TypeCase(l.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "list %q", l.Name)
		}
		item, _, err := ItemNames(l)
		if err != nil {
			return nil, errors.Wrapf(err, "list %q", l.Name)
		}
		m := ModuleInfo{
			List:     l.Name,
			Name:     name,
			File:     name + fileSuffix,
			Symbol:   symbol,
			ListType: symbol + "List",
			Item:     item,
		}
		for _, c := range [][2]string{{"file", m.File}, {"type", m.ListType}, {"type", m.Item}} {
			if err := claim(c[0], c[1], l.Name); err != nil {
				return nil, err
			}
		}
		modules = append(modules, m)
	}
	return modules, nil
}

// writeFile takes the buffered output and writes it to path. Go source is
// run through go/format first; on a format error the raw output is written
// for inspection and the error returned.
func (g *Generator) writeFile(path string, gofmt bool) error {
	data := g.buf.TakeAndClear()
	if gofmt {
		formatted, err := format.Source(data)
		if err != nil {
			_ = os.WriteFile(path, data, 0o644)
			return errors.Wrapf(err, "formatting %s", filepath.Base(path))
		}
		data = formatted
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", filepath.Base(path))
	}
	g.log.Debugw("wrote file", "path", path, "bytes", len(data))
	return nil
}
