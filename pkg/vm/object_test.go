package vm

import "testing"

func TestPlainObjectOwnProperties(t *testing.T) {
	obj := NewObject(Null).AsPlainObject()
	obj.SetOwn("a", IntegerValue(1))
	obj.PutDirect("b", IntegerValue(2), AttrReadOnly|AttrDontEnum)

	if v, ok := obj.GetOwn("a"); !ok || v.AsInteger() != 1 {
		t.Errorf("GetOwn(a) = %v, %v", v.ToString(), ok)
	}
	if !obj.HasOwn("b") {
		t.Error("HasOwn(b) = false")
	}

	// Assignment respects read-only, PutDirect does not.
	obj.SetOwn("b", IntegerValue(3))
	if v, _ := obj.GetOwn("b"); v.AsInteger() != 2 {
		t.Error("assignment overwrote a read-only property")
	}
	obj.PutDirect("b", IntegerValue(3), AttrNone)
	if v, _ := obj.GetOwn("b"); v.AsInteger() != 3 {
		t.Error("PutDirect did not overwrite")
	}
}

func TestPlainObjectEnumeration(t *testing.T) {
	obj := NewObject(Null).AsPlainObject()
	obj.SetOwn("visible", True)
	obj.PutDirect("hidden", True, AttrDontEnum)

	keys := obj.OwnKeys()
	if len(keys) != 1 || keys[0] != "visible" {
		t.Errorf("OwnKeys = %v", keys)
	}
	all := obj.OwnPropertyNames()
	if len(all) != 2 {
		t.Errorf("OwnPropertyNames = %v", all)
	}
}

func TestPlainObjectDelete(t *testing.T) {
	obj := NewObject(Null).AsPlainObject()
	obj.SetOwn("x", True)
	obj.PutDirect("keep", True, AttrDontDelete)

	if !obj.DeleteOwn("x") || obj.HasOwn("x") {
		t.Error("deletable property survived")
	}
	if obj.DeleteOwn("keep") || !obj.HasOwn("keep") {
		t.Error("DontDelete property removed")
	}
	if !obj.DeleteOwn("absent") {
		t.Error("deleting an absent property should succeed")
	}
}

func TestPrototypeChainLookup(t *testing.T) {
	vm := NewVM()
	proto := NewObject(vm.ObjectPrototype)
	proto.AsPlainObject().SetOwn("inherited", NewString("up"))
	obj := NewObject(proto)
	obj.AsPlainObject().SetOwn("own", NewString("here"))

	v, err := vm.GetProp(obj, "own")
	if err != nil || v.ToString() != "here" {
		t.Errorf("own lookup = %v, %v", v.ToString(), err)
	}
	v, err = vm.GetProp(obj, "inherited")
	if err != nil || v.ToString() != "up" {
		t.Errorf("prototype lookup = %v, %v", v.ToString(), err)
	}
	v, err = vm.GetProp(obj, "missing")
	if err != nil || !v.IsUndefined() {
		t.Errorf("missing lookup = %v, %v", v.ToString(), err)
	}
	if _, err := vm.GetProp(Null, "x"); err == nil {
		t.Error("property read on null should fail")
	}
}

func TestCallbackObjectAsPrototype(t *testing.T) {
	vm := NewVM()
	class := mustRegister(t, vm, ClassDefinition{
		Name: "ProtoClass",
		Callbacks: ClassCallbacks{
			GetProperty: func(vm *VM, object Value, name string) (Value, bool, error) {
				if name == "shared" {
					return NewString("from class"), true, nil
				}
				return Undefined, false, nil
			},
		},
	})
	protoVal := vm.NewCallbackObject(class, nil)
	obj := NewObject(protoVal)

	v, err := vm.GetProp(obj, "shared")
	if err != nil {
		t.Fatalf("GetProp: %v", err)
	}
	if v.ToString() != "from class" {
		t.Errorf("class-backed prototype lookup = %q", v.ToString())
	}
}

func TestAccessorProperty(t *testing.T) {
	vm := NewVM()
	obj := NewObject(vm.ObjectPrototype)
	getter := NewNativeFunction(0, false, "get x", func(vm *VM, this Value, args []Value) (Value, error) {
		return IntegerValue(10), nil
	})
	obj.AsPlainObject().DefineAccessorProperty("x", getter, Undefined, AttrNone)

	v, err := vm.GetProp(obj, "x")
	if err != nil || v.AsInteger() != 10 {
		t.Errorf("accessor read = %v, %v", v.ToString(), err)
	}
	// No setter: the write is rejected without error.
	handled, err := vm.SetProp(obj, "x", IntegerValue(1))
	if err != nil || handled {
		t.Errorf("setter-less write = %v, %v", handled, err)
	}
}

func TestNonExtensibleObject(t *testing.T) {
	obj := NewObject(Null).AsPlainObject()
	obj.SetOwn("existing", IntegerValue(1))
	obj.SetExtensible(false)

	obj.SetOwn("new", True)
	if obj.HasOwn("new") {
		t.Error("non-extensible object accepted a new property")
	}
	obj.SetOwn("existing", IntegerValue(2))
	if v, _ := obj.GetOwn("existing"); v.AsInteger() != 2 {
		t.Error("existing property of a non-extensible object not writable")
	}
}

func TestPropertyNameArrayDedup(t *testing.T) {
	names := &PropertyNameArray{}
	names.Add("a")
	names.Add("b")
	names.Add("a")
	got := names.Names()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Names = %v", got)
	}
	if !names.Contains("b") || names.Contains("c") {
		t.Error("Contains mismatch")
	}
}
