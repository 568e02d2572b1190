package codegen

import (
	"context"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/matthewbaird/zkgen/internal/schema"
	"github.com/matthewbaird/zkgen/zenkit"
	"github.com/matthewbaird/zkgen/zenkit/zenkittest"
)

// memProvider serves a fixed workspace.
type memProvider struct {
	ws    schema.Workspace
	lists map[string]*schema.List
	fail  map[string]error
}

func newMemProvider(name string, lists ...schema.List) *memProvider {
	p := &memProvider{
		ws:    schema.Workspace{ID: 1, UUID: "ws-uuid", Name: name},
		lists: make(map[string]*schema.List),
		fail:  make(map[string]error),
	}
	for i := range lists {
		l := lists[i]
		p.ws.Lists = append(p.ws.Lists, schema.List{ID: l.ID, UUID: l.UUID, Name: l.Name})
		p.lists[l.UUID] = &l
	}
	return p
}

func (p *memProvider) Workspace(_ context.Context, ident string) (*schema.Workspace, error) {
	if ident != p.ws.Name {
		return nil, errors.Wrapf(schema.ErrWorkspaceNotFound, "%q", ident)
	}
	ws := p.ws
	return &ws, nil
}

func (p *memProvider) ListSchema(_ context.Context, _ zenkit.ID, listUUID string) (*schema.List, error) {
	if err := p.fail[listUUID]; err != nil {
		return nil, err
	}
	l, ok := p.lists[listUUID]
	if !ok {
		return nil, zenkit.ErrNotFound
	}
	out := *l
	return &out, nil
}

const (
	titleUUID    = "0f8fad5b-d9cb-469f-a165-70867728950e"
	doneUUID     = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	priorityUUID = "1b4e28ba-2fa1-11d2-883f-0016d3cca427"
	assigneeUUID = "6fa459ea-ee8a-3ca4-894e-db77e160355e"
	scoreUUID    = "16fd2706-8baf-433b-82eb-8c7fada847da"
	oldUUID      = "886313e1-3b8a-5372-9b90-0c9aee199e5d"
)

func tasksList() schema.List {
	return schema.List{
		ID: 10, ShortID: "tsk", UUID: "list-tasks", Name: "Tasks",
		Fields: []schema.Field{
			{ID: 100, UUID: titleUUID, Name: "Title", Category: schema.CategoryText},
			{ID: 101, UUID: doneUUID, Name: "Done", Category: schema.CategoryCheckbox},
		},
	}
}

func richList() schema.List {
	deprecated := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	return schema.List{
		ID: 11, ShortID: "prj", UUID: "list-projects", Name: "Projects",
		Description: "All running projects",
		Fields: []schema.Field{
			{ID: 200, UUID: priorityUUID, Name: "Priority", Category: schema.CategoryCategories,
				Payload: schema.CategoriesPayload{Labels: []schema.Label{
					{ID: 1, Name: "Low"}, {ID: 2, Name: "Medium"}, {ID: 3, Name: "High"},
				}}},
			{ID: 201, UUID: assigneeUUID, Name: "Assignee", Category: schema.CategoryReferences, Multiple: true,
				Payload: schema.ReferencesPayload{TargetList: "People"}},
			{ID: 202, UUID: scoreUUID, Name: "Score", Category: schema.CategoryFormula},
			{ID: 203, UUID: oldUUID, Name: "Legacy Code", Category: schema.CategoryText, DeprecatedAt: &deprecated},
			{ID: 204, UUID: oldUUID, Name: "Tree", Category: schema.CategoryHierarchy},
			{ID: 205, UUID: oldUUID, Name: "Created", Category: schema.CategoryDateCreated},
			{ID: 206, UUID: oldUUID, Name: "ID", Category: schema.CategoryNumber,
				Payload: schema.NumberPayload{Type: schema.NumericInteger}},
			{ID: 207, UUID: oldUUID, Name: "Budget", Category: schema.CategoryNumber},
		},
	}
}

func newTestGenerator(t *testing.T, opts Options) (*Generator, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	g, err := New(zap.New(core).Sugar(), opts)
	require.NoError(t, err)
	return g, logs
}

func generate(t *testing.T, p schema.Provider, opts Options) (string, *Result, *observer.ObservedLogs) {
	t.Helper()
	g, logs := newTestGenerator(t, opts)
	dir := t.TempDir()
	res, err := g.Generate(context.Background(), p, "Acme", dir)
	require.NoError(t, err)
	assert.Empty(t, g.Context().Keys(), "no keys leak out of a run")
	assert.Zero(t, g.Buffer().Len())
	return dir, res, logs
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// section returns the part of src from the first occurrence of start up to
// end, or to the end of src when end is empty or absent.
func section(src, start, end string) string {
	i := strings.Index(src, start)
	if i < 0 {
		return ""
	}
	rest := src[i:]
	if end != "" {
		if j := strings.Index(rest[len(start):], end); j >= 0 {
			return rest[:len(start)+j]
		}
	}
	return rest
}

func TestGenerateFiles(t *testing.T) {
	p := newMemProvider("Acme", tasksList(), richList())
	dir, res, _ := generate(t, p, Options{})

	assert.Equal(t, []string{
		filepath.Join(dir, "tasks_gen.go"),
		filepath.Join(dir, "projects_gen.go"),
		filepath.Join(dir, "zkgen.go"),
		filepath.Join(dir, "go.mod.sample"),
	}, res.Files)
	assert.Len(t, res.GoFiles(), 3)
	require.Len(t, res.Modules, 2)
	assert.Equal(t, ModuleInfo{
		List: "Tasks", Name: "tasks", File: "tasks_gen.go",
		Symbol: "Tasks", ListType: "TasksList", Item: "Task",
	}, res.Modules[0])

	fset := token.NewFileSet()
	for _, path := range res.GoFiles() {
		f, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		require.NoError(t, err, path)
		assert.Equal(t, "acme", f.Name.Name)
	}

	manifest := readFile(t, filepath.Join(dir, "go.mod.sample"))
	assert.Contains(t, manifest, "module acme\n")
	assert.Contains(t, manifest, "require github.com/matthewbaird/zkgen v0.0.0")
}

func TestGenerateTextAndCheckbox(t *testing.T) {
	dir, _, _ := generate(t, newMemProvider("Acme", tasksList()), Options{})
	src := readFile(t, filepath.Join(dir, "tasks_gen.go"))

	assert.True(t, strings.HasPrefix(src, "// Code generated by zkgen. DO NOT EDIT."))
	assert.Equal(t, 1, strings.Count(src, "func (x *Task) Title() (string, bool)"))
	assert.Equal(t, 1, strings.Count(src, "func (x *Task) TitleFormat() zenkit.TextFormat"))
	assert.Equal(t, 1, strings.Count(src, "func (x *Task) IsDone() bool"))
	assert.Equal(t, 1, strings.Count(src, "func (b *NewTaskBuilder) SetDone(checked bool) *NewTaskBuilder"))
	assert.Equal(t, 1, strings.Count(src, "func (b *UpdateTaskBuilder) SetDone(checked bool) *UpdateTaskBuilder"))
	for _, accessor := range []string{
		"ID() zenkit.ID", "UUID() string", "DisplayString() string",
		"CreatedAt() time.Time", "UpdatedAt() time.Time", "CreatedByID() zenkit.ID",
		"ZenkitURL() string",
	} {
		assert.Equal(t, 1, strings.Count(src, "func (x *Task) "+accessor), accessor)
	}
	assert.Regexp(t, `TasksListShortID\s+= "tsk"`, src)
	assert.Regexp(t, `TaskTitleFieldUUID\s+= "`+titleUUID+`"`, src)
}

func TestGenerateCategories(t *testing.T) {
	dir, _, _ := generate(t, newMemProvider("Acme", richList()), Options{})
	src := readFile(t, filepath.Join(dir, "projects_gen.go"))

	table := section(src, "var projectPriorityLabels = []labelEntry{", "\n}")
	require.NotEmpty(t, table)
	high := strings.Index(table, `"High"`)
	low := strings.Index(table, `"Low"`)
	medium := strings.Index(table, `"Medium"`)
	assert.True(t, high >= 0 && high < low && low < medium, "table sorted by name:\n%s", table)

	assert.Contains(t, src, "ProjectPriorityMediumLabelID zenkit.ID = 2")
	assert.Contains(t, src, "func ProjectLabelIDForPriority(label string) (zenkit.ID, bool)")
	assert.Contains(t, src, "func (x *Project) IsPriorityHigh() bool")
	assert.Contains(t, src, "func (b *NewProjectBuilder) SetPriorityLow() *NewProjectBuilder")
	assert.Contains(t, src, "func (b *NewProjectBuilder) SetPriority(label string) *NewProjectBuilder")
	assert.Contains(t, src, "labelNotFound(label, ProjectPriorityFieldName)")
	assert.Contains(t, src, "func (b *UpdateProjectBuilder) UnsetPriority() *UpdateProjectBuilder")
	assert.NotContains(t, src, "func (b *NewProjectBuilder) UnsetPriority()")
}

func TestGenerateReferencesUpdateOnlySetters(t *testing.T) {
	dir, _, _ := generate(t, newMemProvider("Acme", richList()), Options{})
	src := readFile(t, filepath.Join(dir, "projects_gen.go"))

	create := section(src, "type NewProjectBuilder struct", "type UpdateProjectBuilder struct")
	update := section(src, "type UpdateProjectBuilder struct", "")
	require.NotEmpty(t, create)
	require.NotEmpty(t, update)

	for _, m := range []string{"SetAssignee(vs ...string)", "AddAssignee(vs ...string)", "RemoveAssignee(vs ...string)", "UnsetAssignee()"} {
		assert.Contains(t, update, "func (b *UpdateProjectBuilder) "+m, m)
	}
	assert.Contains(t, create, "func (b *NewProjectBuilder) SetAssignee(vs ...string)")
	for _, m := range []string{"AddAssignee", "RemoveAssignee", "UnsetAssignee"} {
		assert.NotContains(t, create, m)
	}
	assert.NotContains(t, create, "UpdateActionKey", "create builders never send an update action")
	assert.Contains(t, update, "zenkit.UpdateActionAppend")
	assert.Contains(t, update, "zenkit.UpdateActionRemove")
	assert.Contains(t, src, `in the "People" list`)
}

func TestGenerateFormula(t *testing.T) {
	dir, _, _ := generate(t, newMemProvider("Acme", richList()), Options{})
	src := readFile(t, filepath.Join(dir, "projects_gen.go"))

	errGetter := section(src, "func (x *Project) ScoreError() (string, bool)", "\n}\n")
	assert.Contains(t, errGetter, `return msg, msg != ""`, "an empty message is no error")
	assert.Contains(t, src, "func (x *Project) Score() (float64, bool)")
	assert.NotContains(t, src, "func (b *NewProjectBuilder) SetScore")
}

func TestGenerateSkipsAndRenames(t *testing.T) {
	dir, _, logs := generate(t, newMemProvider("Acme", richList()), Options{})
	src := readFile(t, filepath.Join(dir, "projects_gen.go"))

	assert.NotContains(t, src, "LegacyCode", "deprecated fields are left out")
	assert.NotContains(t, src, "Tree")
	assert.NotContains(t, src, "ProjectCreatedField", "metadata fields come from the item trailer")

	assert.Contains(t, src, "func (x *Project) IDField() (int64, bool)")
	assert.Contains(t, src, "func (x *Project) ID() zenkit.ID")
	assert.Contains(t, src, "func (b *NewProjectBuilder) SetBudget(f float64) *NewProjectBuilder")
	assert.Regexp(t, `"float values cannot be infinite or NaN: "\s*\+\s*ProjectBudgetFieldName`, src)

	warned := logs.FilterMessage("skipping unsupported field").All()
	require.Len(t, warned, 1)
	fields := warned[0].ContextMap()
	assert.Equal(t, "Projects", fields["list"])
	assert.Equal(t, "Tree", fields["field"])
	assert.Equal(t, "Hierarchy", fields["category"])
}

func TestGenerateDuplicateFieldSymbol(t *testing.T) {
	l := tasksList()
	l.Fields = append(l.Fields, schema.Field{ID: 102, UUID: doneUUID, Name: "done!", Category: schema.CategoryText})
	dir, _, logs := generate(t, newMemProvider("Acme", l), Options{})
	src := readFile(t, filepath.Join(dir, "tasks_gen.go"))

	assert.Len(t, regexp.MustCompile(`TaskDoneFieldID\s`).FindAllString(src, -1), 1)
	assert.Len(t, logs.FilterMessage("skipping field with duplicate symbol").All(), 1)
}

func TestGenerateConflictingMethodName(t *testing.T) {
	l := tasksList()
	l.Fields = append(l.Fields,
		schema.Field{ID: 102, UUID: priorityUUID, Name: "Tag", Category: schema.CategoryCategories, Multiple: true,
			Payload: schema.CategoriesPayload{Labels: []schema.Label{{ID: 1, Name: "Bug"}}}},
		schema.Field{ID: 103, UUID: scoreUUID, Name: "Tags", Category: schema.CategoryText},
	)
	dir, _, logs := generate(t, newMemProvider("Acme", l), Options{})
	src := readFile(t, filepath.Join(dir, "tasks_gen.go"))

	assert.Equal(t, 1, strings.Count(src, "func (x *Task) Tags() []string"))
	assert.NotContains(t, src, "func (x *Task) Tags() (string, bool)")
	assert.NotContains(t, src, "TaskTagsFieldID")
	assert.NotContains(t, src, "SetTagsWithFormat")

	warned := logs.FilterMessage("skipping field with conflicting name").All()
	require.Len(t, warned, 1)
	fields := warned[0].ContextMap()
	assert.Equal(t, "Tags", fields["field"])
	assert.Equal(t, "method Task.Tags", fields["name"])
	assert.Equal(t, `field "Tag" of list "Tasks"`, fields["conflicts_with"])
}

func TestGenerateConflictingLabelAccessor(t *testing.T) {
	l := tasksList()
	l.Fields = []schema.Field{
		{ID: 100, UUID: doneUUID, Name: "Status Done", Category: schema.CategoryCheckbox},
		{ID: 101, UUID: priorityUUID, Name: "Status", Category: schema.CategoryCategories,
			Payload: schema.CategoriesPayload{Labels: []schema.Label{
				{ID: 1, Name: "Open"}, {ID: 2, Name: "Done"}, {ID: 3, Name: "ID"},
			}}},
	}
	dir, _, logs := generate(t, newMemProvider("Acme", l), Options{})
	src := readFile(t, filepath.Join(dir, "tasks_gen.go"))

	assert.Equal(t, 1, strings.Count(src, "func (x *Task) IsStatusDone() bool"))
	assert.Equal(t, 1, strings.Count(src, "func (b *NewTaskBuilder) SetStatusDone(checked bool)"))
	assert.NotContains(t, src, "SetStatusDone() *NewTaskBuilder")
	assert.Contains(t, src, "func (x *Task) IsStatusOpen() bool")
	assert.Contains(t, src, "func (b *UpdateTaskBuilder) SetStatusOpen() *UpdateTaskBuilder")

	// A label named ID keeps its getter but its setter would shadow SetStatusID.
	assert.Contains(t, src, "func (x *Task) IsStatusID() bool")
	assert.Equal(t, 1, strings.Count(src, "func (b *NewTaskBuilder) SetStatusID("))
	assert.Contains(t, src, "func (b *NewTaskBuilder) SetStatusID(id zenkit.ID)")

	// Constants and table rows stay for every label.
	table := section(src, "var taskStatusLabels = []labelEntry{", "\n}")
	for _, label := range []string{"Done", "ID", "Open"} {
		assert.Regexp(t, `TaskStatus`+label+`LabelID\s+zenkit.ID =`, src, label)
		assert.Contains(t, table, `{"`+label+`", TaskStatus`+label+`LabelID}`, label)
	}

	warned := logs.FilterMessage("skipping label accessors with conflicting name").All()
	var names []string
	for _, w := range warned {
		names = append(names, w.ContextMap()["label"].(string)+": "+w.ContextMap()["name"].(string))
	}
	assert.ElementsMatch(t, []string{
		"Done: method Task.IsStatusDone",
		"Done: method NewTaskBuilder.SetStatusDone",
		"ID: method NewTaskBuilder.SetStatusID",
	}, names)
	assert.Empty(t, logs.FilterMessage("skipping field with conflicting name").All())
}

func TestGenerateCrossListConstantCollision(t *testing.T) {
	a := schema.List{ID: 10, UUID: "list-tasks", Name: "Tasks", Fields: []schema.Field{
		{ID: 100, UUID: titleUUID, Name: "Note Title", Category: schema.CategoryText},
	}}
	b := schema.List{ID: 11, UUID: "list-notes", Name: "Task Notes", Fields: []schema.Field{
		{ID: 200, UUID: doneUUID, Name: "Title", Category: schema.CategoryText},
	}}
	dir, _, logs := generate(t, newMemProvider("Acme", a, b), Options{})

	assert.Contains(t, readFile(t, filepath.Join(dir, "tasks_gen.go")), "TaskNoteTitleFieldID")
	assert.NotContains(t, readFile(t, filepath.Join(dir, "task_notes_gen.go")), "TaskNoteTitleFieldID")
	warned := logs.FilterMessage("skipping field with conflicting name").All()
	require.Len(t, warned, 1)
	assert.Equal(t, "Task Notes", warned[0].ContextMap()["list"])
}

func TestGenerateRootFile(t *testing.T) {
	p := newMemProvider("Acme", tasksList(), richList())
	p.ws.Description = "Shared\nworkspace"
	dir, _, _ := generate(t, p, Options{Package: "acmezk", ModulePath: "example.com/acmezk", RuntimeVersion: "v1.2.3"})
	root := readFile(t, filepath.Join(dir, "zkgen.go"))

	assert.Contains(t, root, "package acmezk")
	assert.Contains(t, root, "// Shared workspace")
	assert.Regexp(t, `AcmeWorkspaceID\s+zenkit\.ID = 1`, root)
	assert.Regexp(t, `Tasks\s+\*TasksList`, root)
	assert.Contains(t, root, "Projects: NewProjectsList(client),")
	assert.Contains(t, root, `"errors occurred in " + e.Builder + ": " + strings.Join(e.Messages, "; ")`)
	assert.Contains(t, root, "const pageSize = 500")
	assert.Contains(t, root, "func lookupLabel(table []labelEntry, name string) (zenkit.ID, bool)")

	manifest := readFile(t, filepath.Join(dir, "go.mod.sample"))
	assert.Contains(t, manifest, "module example.com/acmezk\n")
	assert.Contains(t, manifest, "require github.com/matthewbaird/zkgen v1.2.3")
}

func TestGenerateIsDeterministic(t *testing.T) {
	p := newMemProvider("Acme", tasksList(), richList())
	dirA, resA, _ := generate(t, p, Options{})
	dirB, resB, _ := generate(t, p, Options{Concurrency: 1})
	require.Len(t, resB.Files, len(resA.Files))
	for _, path := range resA.Files {
		rel, err := filepath.Rel(dirA, path)
		require.NoError(t, err)
		assert.Equal(t, readFile(t, path), readFile(t, filepath.Join(dirB, rel)), rel)
	}
}

func TestGenerateSymbolCollision(t *testing.T) {
	a := tasksList()
	b := tasksList()
	b.UUID, b.Name = "list-task", "Task"
	g, _ := newTestGenerator(t, Options{})
	dir := filepath.Join(t.TempDir(), "out")

	_, err := g.Generate(context.Background(), newMemProvider("Acme", a, b), "Acme", dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSymbolCollision))
	assert.Contains(t, err.Error(), "type Task")
	assert.NoDirExists(t, dir, "nothing is written before names are checked")
}

func TestGenerateFetchError(t *testing.T) {
	p := newMemProvider("Acme", tasksList(), richList())
	p.fail["list-projects"] = errors.New("boom")
	g, _ := newTestGenerator(t, Options{})
	dir := filepath.Join(t.TempDir(), "out")

	_, err := g.Generate(context.Background(), p, "Acme", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.NoDirExists(t, dir)
}

func TestGenerateWorkspaceNotFound(t *testing.T) {
	g, _ := newTestGenerator(t, Options{})
	_, err := g.Generate(context.Background(), newMemProvider("Acme"), "Nope", t.TempDir())
	assert.True(t, errors.Is(err, schema.ErrWorkspaceNotFound))
}

type recordingFormatter struct {
	paths []string
	err   error
}

func (f *recordingFormatter) Format(_ context.Context, paths []string) error {
	f.paths = paths
	return f.err
}

func TestGenerateRunsFormatter(t *testing.T) {
	fmtr := &recordingFormatter{}
	_, res, _ := generate(t, newMemProvider("Acme", tasksList()), Options{Formatter: fmtr})
	assert.Equal(t, res.GoFiles(), fmtr.paths)

	fmtr.err = errors.New("exit status 3")
	g, _ := newTestGenerator(t, Options{Formatter: fmtr})
	res, err := g.Generate(context.Background(), newMemProvider("Acme", tasksList()), "Acme", t.TempDir())
	require.Error(t, err)
	require.NotNil(t, res, "files were written before formatting failed")
	assert.Len(t, res.Files, 3)
}

func TestGenerateFromAPI(t *testing.T) {
	srv := zenkittest.New(t)
	srv.AddWorkspace(zenkit.Workspace{ID: 1, UUID: "ws-1", Name: "Acme"})
	srv.AddList(1, zenkit.ListInfo{
		List: zenkit.List{ID: 10, ShortID: "ppl", UUID: "list-people", Name: "People", ItemName: "Person"},
		Elements: []zenkit.Element{
			{ID: 1, UUID: titleUUID, Name: "Name", Category: zenkit.CategoryText},
			{ID: 2, UUID: doneUUID, Name: "Teams", Category: zenkit.CategoryCategories,
				Data: zenkit.ElementData{Multiple: true, PredefinedCategories: []zenkit.PredefinedCategory{
					{ID: 7, Name: "Ops"}, {ID: 8, Name: "Dev"},
				}}},
			{ID: 3, UUID: scoreUUID, Name: "Manager", Category: zenkit.CategoryPersons},
		},
	})
	dir, res, _ := generate(t, schema.NewProvider(srv.Client(t), nil), Options{})
	require.Len(t, res.Modules, 1)
	assert.Equal(t, "Person", res.Modules[0].Item)

	src := readFile(t, filepath.Join(dir, "people_gen.go"))
	assert.Contains(t, src, "func (x *Person) TeamIDs() []zenkit.ID")
	assert.Contains(t, src, "func (x *Person) Teams() []string")
	assert.Contains(t, src, "func (b *UpdatePersonBuilder) SetTeamsLabels(labels ...string) *UpdatePersonBuilder")
	assert.Contains(t, src, "func (x *Person) ManagerName() (string, bool)")
	assert.Contains(t, src, "func (b *UpdatePersonBuilder) UnsetManager() *UpdatePersonBuilder")
	assert.Equal(t, 1, srv.Hits("GET /lists/{listID}/elements"))
}

func TestItemNames(t *testing.T) {
	tests := []struct {
		list         schema.List
		item, plural string
	}{
		{schema.List{Name: "Tasks"}, "Task", "Tasks"},
		{schema.List{Name: "open issues"}, "OpenIssue", "OpenIssues"},
		{schema.List{Name: "People", ItemName: "person"}, "Person", "People"},
		{schema.List{Name: "People"}, "Person", "People"},
		{schema.List{Name: "Children"}, "Child", "Children"},
		{schema.List{Name: "Staff", ItemName: "Member", ItemNamePlural: "Members"}, "Member", "Members"},
	}
	for _, tt := range tests {
		item, plural, err := ItemNames(&tt.list)
		require.NoError(t, err, tt.list.Name)
		assert.Equal(t, tt.item, item, tt.list.Name)
		assert.Equal(t, tt.plural, plural, tt.list.Name)
	}
}
