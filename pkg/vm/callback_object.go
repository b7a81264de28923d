package vm

import "fmt"

// ClassInfo is the per-instance binding of an object to its class descriptor,
// kept separate so embedders can inspect it without touching object internals.
type ClassInfo struct {
	Name  string
	Class *ClassDescriptor
}

// CallbackObject is a script object backed by a registered native class. All
// property, call and conversion traffic consults the class chain (most derived
// first) before falling back to the generic object substrate in impl.
type CallbackObject struct {
	Object
	impl      PlainObject
	class     *ClassDescriptor
	private   any
	classInfo *ClassInfo
	finalized bool
}

// NewCallbackObject creates an instance of a registered class and runs the
// initialize callbacks base-first, so a derived initializer observes an object
// its bases have already set up.
func (vm *VM) NewCallbackObject(class *ClassDescriptor, private any) Value {
	vm.lock()
	defer vm.unlock()

	obj := &CallbackObject{
		impl:    PlainObject{prototype: vm.ObjectPrototype, extensible: true},
		class:   class,
		private: private,
	}
	obj.classInfo = &ClassInfo{Name: obj.className(), Class: class}
	objVal := NewValueFromCallbackObject(obj)

	var chain []*ClassDescriptor
	for c := class; c != nil; c = c.parent {
		chain = append(chain, c)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		c := chain[i]
		if c.generation == GenerationLegacy {
			if init := c.callbacks.Initialize; init != nil {
				vm.withLocksDropped(func() { init(vm, objVal) })
			}
		} else if init := c.callbacksEx.Initialize; init != nil {
			vm.withLocksDropped(func() { init(vm, c, objVal) })
		}
	}
	return objVal
}

// FinalizeCallbackObject runs the finalize callbacks most-derived first. The
// engine has no deterministic destruction, so teardown is explicit; calling it
// twice is a no-op.
func (vm *VM) FinalizeCallbackObject(objVal Value) {
	vm.lock()
	defer vm.unlock()
	obj := objVal.AsCallbackObject()
	if obj == nil || obj.finalized {
		return
	}
	obj.finalized = true
	for c := obj.class; c != nil; c = c.parent {
		if c.generation == GenerationLegacy {
			if fin := c.callbacks.Finalize; fin != nil {
				vm.withLocksDropped(func() { fin(objVal) })
			}
		} else if fin := c.callbacksEx.Finalize; fin != nil {
			vm.withLocksDropped(func() { fin(c, objVal) })
		}
	}
}

func (o *CallbackObject) Class() *ClassDescriptor { return o.class }
func (o *CallbackObject) ClassInfo() *ClassInfo   { return o.classInfo }
func (o *CallbackObject) Private() any            { return o.private }
func (o *CallbackObject) SetPrivate(p any)        { o.private = p }

// Inherits reports whether the object's class chain contains the given
// descriptor. Identity comparison, not name comparison.
func (o *CallbackObject) Inherits(class *ClassDescriptor) bool {
	for c := o.class; c != nil; c = c.parent {
		if c == class {
			return true
		}
	}
	return false
}

// className reports the nearest named class in the chain.
func (o *CallbackObject) className() string {
	for c := o.class; c != nil; c = c.parent {
		if c.name != "" {
			return c.name
		}
	}
	return "Object"
}

func (o *CallbackObject) canCall() bool {
	for c := o.class; c != nil; c = c.parent {
		if c.hasCallCapability() {
			return true
		}
	}
	return false
}

func (o *CallbackObject) canConstruct() bool {
	for c := o.class; c != nil; c = c.parent {
		if c.hasConstructCapability() {
			return true
		}
	}
	return false
}

// --- Property resolution ---

// callbackGetOwnPropertySlot asks the class chain about a property, most
// derived class first. The first class to answer wins; classes below it are
// never consulted. Falls back to the generic own-property storage.
func (vm *VM) callbackGetOwnPropertySlot(o *CallbackObject, name string) (PropertySlot, bool, error) {
	objVal := NewValueFromCallbackObject(o)
	for c := o.class; c != nil; c = c.parent {
		if has, hasEx := c.hasPropertyCallback(); has != nil || hasEx != nil {
			var claimed bool
			vm.withLocksDropped(func() {
				if has != nil {
					claimed = has(vm, objVal, name)
				} else {
					claimed = hasEx(vm, c, objVal, name)
				}
			})
			if claimed {
				// Value production is deferred to the getter closure; a
				// hasProperty claim with no backing getProperty anywhere in
				// the chain surfaces as a ReferenceError at read time.
				return customSlot(AttrReadOnly|AttrDontEnum, o.callbackGetter()), true, nil
			}
		} else if get, getEx := c.getPropertyCallback(); get != nil || getEx != nil {
			cls := c
			var value Value
			var handled bool
			var err error
			vm.withLocksDropped(func() {
				if get != nil {
					value, handled, err = get(vm, objVal, name)
				} else {
					value, handled, err = getEx(vm, cls, objVal, name)
				}
			})
			if err != nil {
				return PropertySlot{}, false, err
			}
			if handled {
				return valueSlot(value, AttrReadOnly|AttrDontEnum), true, nil
			}
		}
		if table := c.staticValueTable(); table != nil {
			if entry, ok := table[name]; ok && entry.hasGetter() {
				cls := c
				var value Value
				var handled bool
				var err error
				vm.withLocksDropped(func() {
					if entry.get != nil {
						value, handled, err = entry.get(vm, objVal, name)
					} else {
						value, handled, err = entry.getEx(vm, cls, objVal, name)
					}
				})
				if err != nil {
					return PropertySlot{}, false, err
				}
				if handled {
					return valueSlot(value, entry.attrs), true, nil
				}
			}
		}
		if table := c.staticFunctionTable(); table != nil {
			if entry, ok := table[name]; ok {
				return customSlot(entry.attrs, o.staticFunctionGetter()), true, nil
			}
		}
	}
	slot, ok := o.impl.getOwnSlot(name)
	return slot, ok, nil
}

// callbackGetter resolves a property that a hasProperty callback claimed: the
// first getProperty callback in the chain to produce a value answers.
func (o *CallbackObject) callbackGetter() CustomGetter {
	return func(vm *VM, this Value, name string) (Value, error) {
		objVal := NewValueFromCallbackObject(o)
		for c := o.class; c != nil; c = c.parent {
			get, getEx := c.getPropertyCallback()
			if get == nil && getEx == nil {
				continue
			}
			cls := c
			var value Value
			var handled bool
			var err error
			vm.withLocksDropped(func() {
				if get != nil {
					value, handled, err = get(vm, objVal, name)
				} else {
					value, handled, err = getEx(vm, cls, objVal, name)
				}
			})
			if err != nil {
				return Undefined, err
			}
			if handled {
				return value, nil
			}
		}
		return Undefined, vm.NewReferenceError("hasProperty callback returned true for a property that doesn't exist.")
	}
}

// staticFunctionGetter materializes a static function on first read and caches
// the callable as an own property, so repeated reads observe one identity.
func (o *CallbackObject) staticFunctionGetter() CustomGetter {
	return func(vm *VM, this Value, name string) (Value, error) {
		// A cached function object, or an embedder override installed over
		// the static entry, short-circuits materialization.
		if slot, ok := o.impl.getOwnSlot(name); ok {
			return vm.resolveSlot(slot, this, name)
		}
		for c := o.class; c != nil; c = c.parent {
			table := c.staticFunctionTable()
			if table == nil {
				continue
			}
			entry, ok := table[name]
			if !ok {
				continue
			}
			if entry.call == nil && entry.callEx == nil {
				return Undefined, vm.NewReferenceError("Static function property defined with NULL callAsFunction callback.")
			}
			cls := c
			call := entry.call
			callEx := entry.callEx
			var fnVal Value
			fnVal = NewNativeFunction(0, true, name, func(vm *VM, this Value, args []Value) (Value, error) {
				if call != nil {
					return call(vm, fnVal, this, args)
				}
				return callEx(vm, cls, fnVal, this, args)
			})
			o.impl.PutDirect(name, fnVal, entry.attrs)
			if debugCallbacks {
				fmt.Printf("// [Callback] materialized static function %s.%s\n", o.className(), name)
			}
			return fnVal, nil
		}
		return Undefined, vm.NewReferenceError("Static function property defined with NULL callAsFunction callback.")
	}
}

// callbackPut routes an assignment through the class chain: a setProperty
// callback is authoritative for its class, then static members, then generic
// storage.
func (vm *VM) callbackPut(o *CallbackObject, objVal Value, name string, value Value) (bool, error) {
	for c := o.class; c != nil; c = c.parent {
		if set, setEx := c.setPropertyCallback(); set != nil || setEx != nil {
			cls := c
			var handled bool
			var err error
			vm.withLocksDropped(func() {
				if set != nil {
					handled, err = set(vm, objVal, name, value)
				} else {
					handled, err = setEx(vm, cls, objVal, name, value)
				}
			})
			return handled, err
		}
		if table := c.staticValueTable(); table != nil {
			if entry, ok := table[name]; ok {
				if entry.attrs.readOnly() {
					return false, nil
				}
				if entry.hasSetter() {
					cls := c
					var handled bool
					var err error
					vm.withLocksDropped(func() {
						if entry.set != nil {
							handled, err = entry.set(vm, objVal, name, value)
						} else {
							handled, err = entry.setEx(vm, cls, objVal, name, value)
						}
					})
					return handled, err
				}
			}
		}
		if table := c.staticFunctionTable(); table != nil {
			if entry, ok := table[name]; ok {
				// An existing override keeps generic assignment semantics.
				if o.impl.HasOwn(name) {
					return o.impl.put(vm, objVal, name, value)
				}
				if entry.attrs.readOnly() {
					return false, nil
				}
				// First write over a writable static function installs a data
				// property shadowing the method slot.
				o.impl.PutDirect(name, value, AttrNone)
				return true, nil
			}
		}
	}
	return o.impl.put(vm, objVal, name, value)
}

// callbackPutByIndex applies the same chain walk for index-keyed writes.
func (vm *VM) callbackPutByIndex(o *CallbackObject, objVal Value, index uint32, value Value) (bool, error) {
	return vm.callbackPut(o, objVal, indexName(index), value)
}

// callbackDelete routes a deletion through the class chain. A deleteProperty
// callback answers for its class; a static member answers at its entry, either
// blocking (DontDelete) or deleting outright along with any materialized or
// shadowing own property. Deeper classes are never consulted past a match.
func (vm *VM) callbackDelete(o *CallbackObject, objVal Value, name string) (bool, error) {
	for c := o.class; c != nil; c = c.parent {
		if del, delEx := c.deletePropertyCallback(); del != nil || delEx != nil {
			cls := c
			var deleted bool
			var err error
			vm.withLocksDropped(func() {
				if del != nil {
					deleted, err = del(vm, objVal, name)
				} else {
					deleted, err = delEx(vm, cls, objVal, name)
				}
			})
			return deleted, err
		}
		if table := c.staticValueTable(); table != nil {
			if entry, ok := table[name]; ok {
				if entry.attrs.dontDelete() {
					return false, nil
				}
				o.impl.DeleteOwn(name)
				return true, nil
			}
		}
		if table := c.staticFunctionTable(); table != nil {
			if entry, ok := table[name]; ok {
				if entry.attrs.dontDelete() {
					return false, nil
				}
				o.impl.DeleteOwn(name)
				return true, nil
			}
		}
	}
	return o.impl.DeleteOwn(name), nil
}

// callbackOwnPropertyNames accumulates own names from the whole class chain:
// getPropertyNames callbacks, static members, then generic own properties.
func (vm *VM) callbackOwnPropertyNames(o *CallbackObject, objVal Value, names *PropertyNameArray, includeDontEnum bool) {
	for c := o.class; c != nil; c = c.parent {
		if c.generation == GenerationLegacy {
			if cb := c.callbacks.GetPropertyNames; cb != nil {
				vm.withLocksDropped(func() { cb(vm, objVal, names) })
			}
		} else if cb := c.callbacksEx.GetPropertyNames; cb != nil {
			cls := c
			vm.withLocksDropped(func() { cb(vm, cls, objVal, names) })
		}
		if table := c.staticValueTable(); table != nil {
			for _, entry := range table {
				if includeDontEnum || !entry.attrs.dontEnum() {
					names.Add(entry.name)
				}
			}
		}
		if table := c.staticFunctionTable(); table != nil {
			for _, entry := range table {
				if includeDontEnum || !entry.attrs.dontEnum() {
					names.Add(entry.name)
				}
			}
		}
	}
	o.impl.ownPropertyNamesInto(names, includeDontEnum)
}

// --- Invocation dispatch ---

// callbackCall dispatches a call to the first class in the chain with a
// callAsFunction callback. Callers must have probed canCall first; reaching
// the chain end here is an engine invariant violation.
func (vm *VM) callbackCall(o *CallbackObject, fnVal Value, this Value, args []Value) (Value, error) {
	for c := o.class; c != nil; c = c.parent {
		call, callEx := c.callAsFunctionCallback()
		if call == nil && callEx == nil {
			continue
		}
		cls := c
		var result Value
		var err error
		vm.withLocksDropped(func() {
			if call != nil {
				result, err = call(vm, fnVal, this, args)
			} else {
				result, err = callEx(vm, cls, fnVal, this, args)
			}
		})
		return result, err
	}
	panic("call dispatch reached the end of the class chain after a successful capability probe")
}

// callbackConstruct dispatches construction to the first class in the chain
// with a callAsConstructor callback.
func (vm *VM) callbackConstruct(o *CallbackObject, ctorVal Value, args []Value) (Value, error) {
	for c := o.class; c != nil; c = c.parent {
		ctor, ctorEx := c.callAsConstructorCallback()
		if ctor == nil && ctorEx == nil {
			continue
		}
		cls := c
		var result Value
		var err error
		vm.withLocksDropped(func() {
			if ctor != nil {
				result, err = ctor(vm, ctorVal, args)
			} else {
				result, err = ctorEx(vm, cls, ctorVal, args)
			}
		})
		return result, err
	}
	panic("construct dispatch reached the end of the class chain after a successful capability probe")
}

// callbackHasInstance lets the first class with a hasInstance callback answer
// `instanceof`. No class answering means false, not an error.
func (vm *VM) callbackHasInstance(o *CallbackObject, ctorVal Value, candidate Value) (bool, error) {
	for c := o.class; c != nil; c = c.parent {
		has, hasEx := c.hasInstanceCallback()
		if has == nil && hasEx == nil {
			continue
		}
		cls := c
		var result bool
		var err error
		vm.withLocksDropped(func() {
			if has != nil {
				result, err = has(vm, ctorVal, candidate)
			} else {
				result, err = hasEx(vm, cls, ctorVal, candidate)
			}
		})
		return result, err
	}
	return false, nil
}

// callbackDefaultValue consults convertToType callbacks for primitive
// conversion. The boolean reports whether any class produced a result.
func (vm *VM) callbackDefaultValue(o *CallbackObject, objVal Value, hint TypeHint) (Value, bool, error) {
	for c := o.class; c != nil; c = c.parent {
		conv, convEx := c.convertToTypeCallback()
		if conv == nil && convEx == nil {
			continue
		}
		cls := c
		var result Value
		var handled bool
		var err error
		vm.withLocksDropped(func() {
			if conv != nil {
				result, handled, err = conv(vm, objVal, hint)
			} else {
				result, handled, err = convEx(vm, cls, objVal, hint)
			}
		})
		if err != nil {
			return Undefined, false, err
		}
		if handled {
			return result, true, nil
		}
	}
	return Undefined, false, nil
}
