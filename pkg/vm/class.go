package vm

import (
	"golang.org/x/text/unicode/norm"

	"kyanite/pkg/errors"
)

// ClassGeneration selects which callback ABI a class commits to. Legacy
// callbacks receive only engine/object handles; Extended callbacks
// additionally receive the originating class descriptor, so one callback
// implementation can serve several registered classes and disambiguate by
// descriptor identity. A class never mixes generations.
type ClassGeneration uint8

const (
	GenerationLegacy ClassGeneration = iota
	GenerationExtended
)

func (g ClassGeneration) String() string {
	switch g {
	case GenerationLegacy:
		return "legacy"
	case GenerationExtended:
		return "extended"
	default:
		return "unknown"
	}
}

// --- Legacy callback signatures ---

type InitializeCallback func(vm *VM, object Value)
type FinalizeCallback func(object Value)
type HasPropertyCallback func(vm *VM, object Value, name string) bool
type GetPropertyCallback func(vm *VM, object Value, name string) (Value, bool, error)
type SetPropertyCallback func(vm *VM, object Value, name string, value Value) (bool, error)
type DeletePropertyCallback func(vm *VM, object Value, name string) (bool, error)
type GetPropertyNamesCallback func(vm *VM, object Value, names *PropertyNameArray)
type CallAsFunctionCallback func(vm *VM, function Value, this Value, args []Value) (Value, error)
type CallAsConstructorCallback func(vm *VM, constructor Value, args []Value) (Value, error)
type HasInstanceCallback func(vm *VM, constructor Value, candidate Value) (bool, error)
type ConvertToTypeCallback func(vm *VM, object Value, hint TypeHint) (Value, bool, error)

// --- Extended callback signatures ---

type InitializeCallbackEx func(vm *VM, class *ClassDescriptor, object Value)
type FinalizeCallbackEx func(class *ClassDescriptor, object Value)
type HasPropertyCallbackEx func(vm *VM, class *ClassDescriptor, object Value, name string) bool
type GetPropertyCallbackEx func(vm *VM, class *ClassDescriptor, object Value, name string) (Value, bool, error)
type SetPropertyCallbackEx func(vm *VM, class *ClassDescriptor, object Value, name string, value Value) (bool, error)
type DeletePropertyCallbackEx func(vm *VM, class *ClassDescriptor, object Value, name string) (bool, error)
type GetPropertyNamesCallbackEx func(vm *VM, class *ClassDescriptor, object Value, names *PropertyNameArray)
type CallAsFunctionCallbackEx func(vm *VM, class *ClassDescriptor, function Value, this Value, args []Value) (Value, error)
type CallAsConstructorCallbackEx func(vm *VM, class *ClassDescriptor, constructor Value, args []Value) (Value, error)
type HasInstanceCallbackEx func(vm *VM, class *ClassDescriptor, constructor Value, candidate Value) (bool, error)
type ConvertToTypeCallbackEx func(vm *VM, class *ClassDescriptor, object Value, hint TypeHint) (Value, bool, error)

// ClassCallbacks is the legacy-generation callback set. Each slot is
// independently optional.
type ClassCallbacks struct {
	Initialize        InitializeCallback
	Finalize          FinalizeCallback
	HasProperty       HasPropertyCallback
	GetProperty       GetPropertyCallback
	SetProperty       SetPropertyCallback
	DeleteProperty    DeletePropertyCallback
	GetPropertyNames  GetPropertyNamesCallback
	CallAsFunction    CallAsFunctionCallback
	CallAsConstructor CallAsConstructorCallback
	HasInstance       HasInstanceCallback
	ConvertToType     ConvertToTypeCallback
}

func (c *ClassCallbacks) empty() bool {
	return c.Initialize == nil && c.Finalize == nil && c.HasProperty == nil &&
		c.GetProperty == nil && c.SetProperty == nil && c.DeleteProperty == nil &&
		c.GetPropertyNames == nil && c.CallAsFunction == nil && c.CallAsConstructor == nil &&
		c.HasInstance == nil && c.ConvertToType == nil
}

// ClassCallbacksEx is the extended-generation callback set.
type ClassCallbacksEx struct {
	Initialize        InitializeCallbackEx
	Finalize          FinalizeCallbackEx
	HasProperty       HasPropertyCallbackEx
	GetProperty       GetPropertyCallbackEx
	SetProperty       SetPropertyCallbackEx
	DeleteProperty    DeletePropertyCallbackEx
	GetPropertyNames  GetPropertyNamesCallbackEx
	CallAsFunction    CallAsFunctionCallbackEx
	CallAsConstructor CallAsConstructorCallbackEx
	HasInstance       HasInstanceCallbackEx
	ConvertToType     ConvertToTypeCallbackEx
}

func (c *ClassCallbacksEx) empty() bool {
	return c.Initialize == nil && c.Finalize == nil && c.HasProperty == nil &&
		c.GetProperty == nil && c.SetProperty == nil && c.DeleteProperty == nil &&
		c.GetPropertyNames == nil && c.CallAsFunction == nil && c.CallAsConstructor == nil &&
		c.HasInstance == nil && c.ConvertToType == nil
}

// StaticValueDef declares a named accessor registered directly on a class.
// Exactly the pair matching the class generation may be populated.
type StaticValueDef struct {
	Name       string
	Get        GetPropertyCallback
	Set        SetPropertyCallback
	GetEx      GetPropertyCallbackEx
	SetEx      SetPropertyCallbackEx
	Attributes PropertyAttributes
}

// StaticFunctionDef declares a named method registered directly on a class.
// Conceptually a static value whose value is a callable produced on demand.
type StaticFunctionDef struct {
	Name       string
	Call       CallAsFunctionCallback
	CallEx     CallAsFunctionCallbackEx
	Attributes PropertyAttributes
}

// ClassDefinition is the embedder-facing registration input. Descriptors are
// registered once, before any instance exists, and outlive all instances.
type ClassDefinition struct {
	Name            string
	Generation      ClassGeneration
	Parent          *ClassDescriptor
	Callbacks       ClassCallbacks
	CallbacksEx     ClassCallbacksEx
	StaticValues    []StaticValueDef
	StaticFunctions []StaticFunctionDef
}

type staticValueEntry struct {
	name  string
	get   GetPropertyCallback
	set   SetPropertyCallback
	getEx GetPropertyCallbackEx
	setEx SetPropertyCallbackEx
	attrs PropertyAttributes
}

func (e *staticValueEntry) hasGetter() bool { return e.get != nil || e.getEx != nil }
func (e *staticValueEntry) hasSetter() bool { return e.set != nil || e.setEx != nil }

type staticFunctionEntry struct {
	name   string
	call   CallAsFunctionCallback
	callEx CallAsFunctionCallbackEx
	attrs  PropertyAttributes
}

// ClassDescriptor is the immutable-after-registration description of one
// native class. Parent links form a singly-linked chain walked most-derived
// first; acyclicity is the embedder's registration-time responsibility and is
// not checked here.
type ClassDescriptor struct {
	name       string
	generation ClassGeneration
	parent     *ClassDescriptor

	callbacks   ClassCallbacks
	callbacksEx ClassCallbacksEx

	staticValueDefs    []StaticValueDef
	staticFunctionDefs []StaticFunctionDef

	// Lazily built on first access, cached for the descriptor's lifetime.
	// Single-threaded engine model: construction happens under the engine lock.
	staticValues    map[string]*staticValueEntry
	staticFunctions map[string]*staticFunctionEntry
}

func (c *ClassDescriptor) Name() string                { return c.name }
func (c *ClassDescriptor) Generation() ClassGeneration { return c.generation }
func (c *ClassDescriptor) Parent() *ClassDescriptor    { return c.parent }

// staticValueTable builds the static-value table on first access.
func (c *ClassDescriptor) staticValueTable() map[string]*staticValueEntry {
	if c.staticValues == nil && len(c.staticValueDefs) > 0 {
		table := make(map[string]*staticValueEntry, len(c.staticValueDefs))
		for i := range c.staticValueDefs {
			def := &c.staticValueDefs[i]
			table[def.Name] = &staticValueEntry{
				name:  def.Name,
				get:   def.Get,
				set:   def.Set,
				getEx: def.GetEx,
				setEx: def.SetEx,
				attrs: def.Attributes,
			}
		}
		c.staticValues = table
	}
	return c.staticValues
}

// staticFunctionTable builds the static-function table on first access.
func (c *ClassDescriptor) staticFunctionTable() map[string]*staticFunctionEntry {
	if c.staticFunctions == nil && len(c.staticFunctionDefs) > 0 {
		table := make(map[string]*staticFunctionEntry, len(c.staticFunctionDefs))
		for i := range c.staticFunctionDefs {
			def := &c.staticFunctionDefs[i]
			table[def.Name] = &staticFunctionEntry{
				name:   def.Name,
				call:   def.Call,
				callEx: def.CallEx,
				attrs:  def.Attributes,
			}
		}
		c.staticFunctions = table
	}
	return c.staticFunctions
}

// StaticMemberNames lists registered static member names (values, then
// functions) for diagnostics and tooling.
func (c *ClassDescriptor) StaticMemberNames() []string {
	names := make([]string, 0, len(c.staticValueDefs)+len(c.staticFunctionDefs))
	for i := range c.staticValueDefs {
		names = append(names, c.staticValueDefs[i].Name)
	}
	for i := range c.staticFunctionDefs {
		names = append(names, c.staticFunctionDefs[i].Name)
	}
	return names
}

// --- Per-operation callback selectors ---
// One generation check per class per operation; exactly one of the returned
// pair is non-nil when the class offers the capability.

func (c *ClassDescriptor) hasPropertyCallback() (HasPropertyCallback, HasPropertyCallbackEx) {
	if c.generation == GenerationLegacy {
		return c.callbacks.HasProperty, nil
	}
	return nil, c.callbacksEx.HasProperty
}

func (c *ClassDescriptor) getPropertyCallback() (GetPropertyCallback, GetPropertyCallbackEx) {
	if c.generation == GenerationLegacy {
		return c.callbacks.GetProperty, nil
	}
	return nil, c.callbacksEx.GetProperty
}

func (c *ClassDescriptor) setPropertyCallback() (SetPropertyCallback, SetPropertyCallbackEx) {
	if c.generation == GenerationLegacy {
		return c.callbacks.SetProperty, nil
	}
	return nil, c.callbacksEx.SetProperty
}

func (c *ClassDescriptor) deletePropertyCallback() (DeletePropertyCallback, DeletePropertyCallbackEx) {
	if c.generation == GenerationLegacy {
		return c.callbacks.DeleteProperty, nil
	}
	return nil, c.callbacksEx.DeleteProperty
}

func (c *ClassDescriptor) callAsFunctionCallback() (CallAsFunctionCallback, CallAsFunctionCallbackEx) {
	if c.generation == GenerationLegacy {
		return c.callbacks.CallAsFunction, nil
	}
	return nil, c.callbacksEx.CallAsFunction
}

func (c *ClassDescriptor) callAsConstructorCallback() (CallAsConstructorCallback, CallAsConstructorCallbackEx) {
	if c.generation == GenerationLegacy {
		return c.callbacks.CallAsConstructor, nil
	}
	return nil, c.callbacksEx.CallAsConstructor
}

func (c *ClassDescriptor) hasInstanceCallback() (HasInstanceCallback, HasInstanceCallbackEx) {
	if c.generation == GenerationLegacy {
		return c.callbacks.HasInstance, nil
	}
	return nil, c.callbacksEx.HasInstance
}

func (c *ClassDescriptor) convertToTypeCallback() (ConvertToTypeCallback, ConvertToTypeCallbackEx) {
	if c.generation == GenerationLegacy {
		return c.callbacks.ConvertToType, nil
	}
	return nil, c.callbacksEx.ConvertToType
}

func (c *ClassDescriptor) hasCallCapability() bool {
	f, fx := c.callAsFunctionCallback()
	return f != nil || fx != nil
}

func (c *ClassDescriptor) hasConstructCapability() bool {
	f, fx := c.callAsConstructorCallback()
	return f != nil || fx != nil
}

// --- Registration ---

// RegisterClass validates a class definition and registers it with the VM.
// A definition carrying callbacks of the wrong generation is malformed input
// and is rejected whole; nothing is partially registered.
func (vm *VM) RegisterClass(def ClassDefinition) (*ClassDescriptor, error) {
	vm.lock()
	defer vm.unlock()

	if def.Generation != GenerationLegacy && def.Generation != GenerationExtended {
		return nil, errors.NewRegistrationError(def.Name, "unknown class generation %d", def.Generation)
	}
	if def.Generation == GenerationLegacy && !def.CallbacksEx.empty() {
		return nil, errors.NewRegistrationError(def.Name, "legacy class carries extended callbacks")
	}
	if def.Generation == GenerationExtended && !def.Callbacks.empty() {
		return nil, errors.NewRegistrationError(def.Name, "extended class carries legacy callbacks")
	}

	valueDefs := make([]StaticValueDef, len(def.StaticValues))
	copy(valueDefs, def.StaticValues)
	seen := make(map[string]struct{}, len(valueDefs))
	for i := range valueDefs {
		v := &valueDefs[i]
		v.Name = norm.NFC.String(v.Name)
		if v.Name == "" {
			return nil, errors.NewRegistrationError(def.Name, "static value with empty name")
		}
		if _, dup := seen[v.Name]; dup {
			return nil, errors.NewRegistrationError(def.Name, "duplicate static value %q", v.Name)
		}
		seen[v.Name] = struct{}{}
		if def.Generation == GenerationLegacy && (v.GetEx != nil || v.SetEx != nil) {
			return nil, errors.NewRegistrationError(def.Name, "static value %q carries extended accessors on a legacy class", v.Name)
		}
		if def.Generation == GenerationExtended && (v.Get != nil || v.Set != nil) {
			return nil, errors.NewRegistrationError(def.Name, "static value %q carries legacy accessors on an extended class", v.Name)
		}
	}

	functionDefs := make([]StaticFunctionDef, len(def.StaticFunctions))
	copy(functionDefs, def.StaticFunctions)
	seen = make(map[string]struct{}, len(functionDefs))
	for i := range functionDefs {
		f := &functionDefs[i]
		f.Name = norm.NFC.String(f.Name)
		if f.Name == "" {
			return nil, errors.NewRegistrationError(def.Name, "static function with empty name")
		}
		if _, dup := seen[f.Name]; dup {
			return nil, errors.NewRegistrationError(def.Name, "duplicate static function %q", f.Name)
		}
		seen[f.Name] = struct{}{}
		if def.Generation == GenerationLegacy && f.CallEx != nil {
			return nil, errors.NewRegistrationError(def.Name, "static function %q carries an extended callback on a legacy class", f.Name)
		}
		if def.Generation == GenerationExtended && f.Call != nil {
			return nil, errors.NewRegistrationError(def.Name, "static function %q carries a legacy callback on an extended class", f.Name)
		}
	}

	class := &ClassDescriptor{
		name:               def.Name,
		generation:         def.Generation,
		parent:             def.Parent,
		callbacks:          def.Callbacks,
		callbacksEx:        def.CallbacksEx,
		staticValueDefs:    valueDefs,
		staticFunctionDefs: functionDefs,
	}
	vm.classes = append(vm.classes, class)
	return class, nil
}

// RegisteredClasses returns the descriptors registered on this VM, in
// registration order.
func (vm *VM) RegisteredClasses() []*ClassDescriptor {
	vm.lock()
	defer vm.unlock()
	out := make([]*ClassDescriptor, len(vm.classes))
	copy(out, vm.classes)
	return out
}
