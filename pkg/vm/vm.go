package vm

import (
	"fmt"
	"sync"
)

const debugCallbacks = false

// TypeHint steers host convertToType callbacks and the generic conversion
// fallback.
type TypeHint uint8

const (
	HintNone TypeHint = iota
	HintNumber
	HintString
)

// VM is the engine core. All public operations acquire the engine lock; host
// callbacks run with it dropped (see lock.go).
type VM struct {
	mu sync.Mutex

	ObjectPrototype   Value
	FunctionPrototype Value
	ErrorPrototype    Value

	globals map[string]Value
	classes []*ClassDescriptor
}

func NewVM() *VM {
	vm := &VM{
		globals: make(map[string]Value),
	}
	vm.initializePrototypes()
	return vm
}

// initializePrototypes sets up the built-in prototype objects.
func (vm *VM) initializePrototypes() {
	// The root Object.prototype has a null prototype.
	vm.ObjectPrototype = NewObject(Null)
	vm.FunctionPrototype = NewObject(vm.ObjectPrototype)
	vm.ErrorPrototype = NewObject(vm.ObjectPrototype)
}

// DefineGlobal installs a named global value.
func (vm *VM) DefineGlobal(name string, value Value) {
	vm.lock()
	defer vm.unlock()
	vm.globals[name] = value
}

// GetGlobal looks up a named global value.
func (vm *VM) GetGlobal(name string) (Value, bool) {
	vm.lock()
	defer vm.unlock()
	v, ok := vm.globals[name]
	return v, ok
}

// --- Property protocol entry points ---

// GetProp reads a property, routing callback objects through the class chain
// and walking the prototype chain otherwise.
func (vm *VM) GetProp(objVal Value, name string) (Value, error) {
	vm.lock()
	defer vm.unlock()
	return vm.getProp(objVal, name)
}

// SetProp writes a property. The boolean reports whether any responder
// accepted the write (read-only members reject it without mutation).
func (vm *VM) SetProp(objVal Value, name string, value Value) (bool, error) {
	vm.lock()
	defer vm.unlock()
	return vm.setProp(objVal, name, value)
}

// SetPropByIndex writes an index-keyed property.
func (vm *VM) SetPropByIndex(objVal Value, index uint32, value Value) (bool, error) {
	vm.lock()
	defer vm.unlock()
	return vm.setPropByIndex(objVal, index, value)
}

// DeleteProp deletes a property. The boolean reports whether the property is
// gone (deleting an absent property succeeds).
func (vm *VM) DeleteProp(objVal Value, name string) (bool, error) {
	vm.lock()
	defer vm.unlock()
	return vm.deleteProp(objVal, name)
}

// HasProp reports whether a property resolves on the object itself (own or
// class-provided), without evaluating lazily-computed slots.
func (vm *VM) HasProp(objVal Value, name string) (bool, error) {
	vm.lock()
	defer vm.unlock()
	_, ok, err := vm.getOwnSlotOf(objVal, name)
	return ok, err
}

// OwnPropertyNames enumerates own property names, including class-provided
// members. Non-enumerable names are included only on request.
func (vm *VM) OwnPropertyNames(objVal Value, includeDontEnum bool) ([]string, error) {
	vm.lock()
	defer vm.unlock()
	return vm.ownPropertyNames(objVal, includeDontEnum)
}

// CallValue invokes a callable value with an explicit this and arguments.
func (vm *VM) CallValue(fn Value, this Value, args []Value) (Value, error) {
	vm.lock()
	defer vm.unlock()
	return vm.callValue(fn, this, args)
}

// ConstructValue invokes a constructor value with arguments.
func (vm *VM) ConstructValue(ctor Value, args []Value) (Value, error) {
	vm.lock()
	defer vm.unlock()
	return vm.constructValue(ctor, args)
}

// InstanceOf evaluates `value instanceof ctor`.
func (vm *VM) InstanceOf(value Value, ctor Value) (bool, error) {
	vm.lock()
	defer vm.unlock()
	return vm.instanceOf(value, ctor)
}

// ToPrimitive converts a value to a primitive, consulting convertToType
// callbacks for callback objects first.
func (vm *VM) ToPrimitive(value Value, hint TypeHint) (Value, error) {
	vm.lock()
	defer vm.unlock()
	return vm.toPrimitive(value, hint)
}

// ClassName reports the script-visible class name of a value.
func (vm *VM) ClassName(value Value) string {
	vm.lock()
	defer vm.unlock()
	if value.IsCallbackObject() {
		return value.AsCallbackObject().className()
	}
	if value.Type() == TypeObject {
		return "Object"
	}
	return value.TypeName()
}

// --- Internal operation implementations (engine lock held) ---

func (vm *VM) getOwnSlotOf(objVal Value, name string) (PropertySlot, bool, error) {
	switch objVal.Type() {
	case TypeObject:
		slot, ok := objVal.AsPlainObject().getOwnSlot(name)
		return slot, ok, nil
	case TypeCallbackObject:
		return vm.callbackGetOwnPropertySlot(objVal.AsCallbackObject(), name)
	default:
		return PropertySlot{}, false, nil
	}
}

func (vm *VM) prototypeOf(objVal Value) Value {
	switch objVal.Type() {
	case TypeObject:
		return objVal.AsPlainObject().prototype
	case TypeCallbackObject:
		return objVal.AsCallbackObject().impl.prototype
	default:
		return Null
	}
}

// resolveSlot evaluates a property slot against the original receiver.
func (vm *VM) resolveSlot(slot PropertySlot, this Value, name string) (Value, error) {
	if slot.Custom != nil {
		return slot.Custom(vm, this, name)
	}
	if slot.hasGetter {
		return vm.callValue(slot.getter, this, nil)
	}
	return slot.Value, nil
}

func (vm *VM) getProp(objVal Value, name string) (Value, error) {
	if !objVal.IsObject() {
		if objVal.IsUndefined() || objVal.IsNull() {
			return Undefined, vm.NewTypeError(fmt.Sprintf("Cannot read property '%s' of %s", name, objVal.TypeName()))
		}
		return Undefined, vm.NewTypeError(fmt.Sprintf("Cannot access property '%s' on type '%s'", name, objVal.TypeName()))
	}
	current := objVal
	for current.IsObject() {
		slot, ok, err := vm.getOwnSlotOf(current, name)
		if err != nil {
			return Undefined, err
		}
		if ok {
			return vm.resolveSlot(slot, objVal, name)
		}
		current = vm.prototypeOf(current)
	}
	return Undefined, nil
}

func (vm *VM) setProp(objVal Value, name string, value Value) (bool, error) {
	switch objVal.Type() {
	case TypeObject:
		return objVal.AsPlainObject().put(vm, objVal, name, value)
	case TypeCallbackObject:
		return vm.callbackPut(objVal.AsCallbackObject(), objVal, name, value)
	default:
		return false, vm.NewTypeError(fmt.Sprintf("Cannot set property '%s' on type '%s'", name, objVal.TypeName()))
	}
}

func (vm *VM) setPropByIndex(objVal Value, index uint32, value Value) (bool, error) {
	switch objVal.Type() {
	case TypeObject:
		return objVal.AsPlainObject().put(vm, objVal, indexName(index), value)
	case TypeCallbackObject:
		return vm.callbackPutByIndex(objVal.AsCallbackObject(), objVal, index, value)
	default:
		return false, vm.NewTypeError(fmt.Sprintf("Cannot set index %d on type '%s'", index, objVal.TypeName()))
	}
}

func (vm *VM) deleteProp(objVal Value, name string) (bool, error) {
	switch objVal.Type() {
	case TypeObject:
		return objVal.AsPlainObject().DeleteOwn(name), nil
	case TypeCallbackObject:
		return vm.callbackDelete(objVal.AsCallbackObject(), objVal, name)
	default:
		return false, vm.NewTypeError(fmt.Sprintf("Cannot delete property '%s' on type '%s'", name, objVal.TypeName()))
	}
}

func (vm *VM) ownPropertyNames(objVal Value, includeDontEnum bool) ([]string, error) {
	names := &PropertyNameArray{}
	switch objVal.Type() {
	case TypeObject:
		objVal.AsPlainObject().ownPropertyNamesInto(names, includeDontEnum)
	case TypeCallbackObject:
		vm.callbackOwnPropertyNames(objVal.AsCallbackObject(), objVal, names, includeDontEnum)
	default:
		return nil, vm.NewTypeError(fmt.Sprintf("Cannot enumerate type '%s'", objVal.TypeName()))
	}
	return names.Names(), nil
}

func (vm *VM) callValue(fn Value, this Value, args []Value) (Value, error) {
	switch fn.Type() {
	case TypeNativeFunction:
		nativeFn := fn.AsNativeFunction()
		var result Value
		var err error
		// Native code is host code: the callback boundary applies.
		vm.withLocksDropped(func() {
			result, err = nativeFn.Fn(vm, this, args)
		})
		return result, err
	case TypeCallbackObject:
		obj := fn.AsCallbackObject()
		if obj.canCall() {
			return vm.callbackCall(obj, fn, this, args)
		}
		return Undefined, vm.NewTypeError(fmt.Sprintf("object of class '%s' is not callable", obj.className()))
	default:
		return Undefined, vm.NewTypeError(fmt.Sprintf("cannot call non-function value of type %v", fn.Type()))
	}
}

func (vm *VM) constructValue(ctor Value, args []Value) (Value, error) {
	if ctor.IsCallbackObject() {
		obj := ctor.AsCallbackObject()
		if obj.canConstruct() {
			return vm.callbackConstruct(obj, ctor, args)
		}
		return Undefined, vm.NewTypeError(fmt.Sprintf("object of class '%s' is not a constructor", obj.className()))
	}
	return Undefined, vm.NewTypeError(fmt.Sprintf("cannot construct value of type %v", ctor.Type()))
}

func (vm *VM) instanceOf(value Value, ctor Value) (bool, error) {
	if ctor.IsCallbackObject() {
		// The first class in the chain with a hasInstance callback answers;
		// none answering means false, not an error.
		return vm.callbackHasInstance(ctor.AsCallbackObject(), ctor, value)
	}
	if !ctor.IsObject() {
		return false, vm.NewTypeError("right-hand side of 'instanceof' is not an object")
	}
	return false, nil
}

func (vm *VM) toPrimitive(value Value, hint TypeHint) (Value, error) {
	switch value.Type() {
	case TypeCallbackObject:
		result, ok, err := vm.callbackDefaultValue(value.AsCallbackObject(), value, hint)
		if err != nil {
			return Undefined, err
		}
		if ok {
			return result, nil
		}
		return NewString(value.ToString()), nil
	case TypeObject:
		return NewString(value.ToString()), nil
	default:
		return value, nil
	}
}

func indexName(index uint32) string {
	return fmt.Sprintf("%d", index)
}
