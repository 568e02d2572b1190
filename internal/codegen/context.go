package codegen

import "slices"

// Render context keys. Workspace keys are set once per run, list keys per
// list, field keys per field, label keys per label and builder keys per
// builder pass.
const (
	KeyWorkspace      = "workspace"
	KeyWorkspaceID    = "workspace_id"
	KeyWorkspaceUUID  = "workspace_uuid"
	KeyWorkspaceDesc  = "workspace_desc"
	KeyPackage        = "package"
	KeyModulePath     = "module_path"
	KeyRuntimeModule  = "runtime_module"
	KeyRuntimeImport  = "runtime_import"
	KeyRuntimeVersion = "runtime_version"
	KeyModules        = "modules"

	KeyList        = "list"
	KeyListID      = "list_id"
	KeyListShortID = "list_short_id"
	KeyListUUID    = "list_uuid"
	KeyListDesc    = "list_desc"
	KeyListSymbol  = "list_symbol"
	KeyItem        = "item"
	KeyItemPlural  = "item_plural"

	KeyField         = "field"
	KeyFieldID       = "field_id"
	KeyFieldUUID     = "field_uuid"
	KeyFieldDesc     = "field_desc"
	KeyFieldSymbol   = "field_symbol"
	KeyFieldPrefix   = "field_prefix"
	KeyFieldMultiple = "field_multiple"
	KeyRefList       = "ref_list"
	KeyValueSuffix   = "value_suffix"
	KeyValueType     = "value_type"
	KeyLabels        = "labels"

	KeyLabel       = "label"
	KeyLabelID     = "label_id"
	KeyLabelSymbol = "label_symbol"

	KeyBuilder  = "builder"
	KeyIsUpdate = "is_update"
)

// RenderContext is the ordered key/value state templates render against.
// Keys are added through a Scope and removed when the scope exits.
type RenderContext struct {
	keys   []string
	values map[string]any
}

// NewRenderContext returns an empty context.
func NewRenderContext() *RenderContext {
	return &RenderContext{values: make(map[string]any)}
}

// Get returns the value of key.
func (c *RenderContext) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Keys returns the keys currently set, in insertion order.
func (c *RenderContext) Keys() []string {
	return slices.Clone(c.keys)
}

// Enter opens a scope. Every key set through it is removed, or restored to
// its earlier value, by Exit.
func (c *RenderContext) Enter() *Scope {
	return &Scope{ctx: c}
}

func (c *RenderContext) set(key string, v any) {
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = v
}

func (c *RenderContext) remove(key string) {
	delete(c.values, key)
	if i := slices.Index(c.keys, key); i >= 0 {
		c.keys = slices.Delete(c.keys, i, i+1)
	}
}

type shadowed struct {
	key  string
	prev any
	had  bool
}

// Scope is a set of keys owned by one unit of emission.
type Scope struct {
	ctx    *RenderContext
	saved  []shadowed
	exited bool
}

// Set assigns key for the lifetime of the scope.
func (s *Scope) Set(key string, v any) *Scope {
	prev, had := s.ctx.values[key]
	s.saved = append(s.saved, shadowed{key: key, prev: prev, had: had})
	s.ctx.set(key, v)
	return s
}

// Exit releases the scope's keys in reverse order. Calling it again is a
// no-op.
func (s *Scope) Exit() {
	if s.exited {
		return
	}
	s.exited = true
	for i := len(s.saved) - 1; i >= 0; i-- {
		sk := s.saved[i]
		if sk.had {
			s.ctx.values[sk.key] = sk.prev
		} else {
			s.ctx.remove(sk.key)
		}
	}
	s.saved = nil
}
