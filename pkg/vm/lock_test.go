package vm

import (
	"testing"
	"time"
)

// Every callback must be able to reenter the engine. These tests deadlock on
// a regression, so they run under a watchdog.

func runWithWatchdog(t *testing.T, name string, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("%s deadlocked", name)
	}
}

func TestGetPropertyCallbackMayReenter(t *testing.T) {
	vm := NewVM()
	sidecar := NewObject(vm.ObjectPrototype)
	sidecar.AsPlainObject().SetOwn("answer", IntegerValue(42))

	class := mustRegister(t, vm, ClassDefinition{
		Name: "Reentrant",
		Callbacks: ClassCallbacks{
			GetProperty: func(vm *VM, object Value, name string) (Value, bool, error) {
				if name != "viaEngine" {
					return Undefined, false, nil
				}
				v, err := vm.GetProp(sidecar, "answer")
				return v, true, err
			},
		},
	})
	obj := vm.NewCallbackObject(class, nil)

	runWithWatchdog(t, "reentrant getProperty", func() {
		v, err := vm.GetProp(obj, "viaEngine")
		if err != nil {
			t.Errorf("GetProp: %v", err)
		} else if v.AsInteger() != 42 {
			t.Errorf("reentrant read = %v", v.ToString())
		}
	})
}

func TestInitializeCallbackMayReenter(t *testing.T) {
	vm := NewVM()
	class := mustRegister(t, vm, ClassDefinition{
		Name: "SelfSetup",
		Callbacks: ClassCallbacks{
			Initialize: func(vm *VM, object Value) {
				if _, err := vm.SetProp(object, "ready", True); err != nil {
					panic(err)
				}
			},
		},
	})

	runWithWatchdog(t, "reentrant initialize", func() {
		obj := vm.NewCallbackObject(class, nil)
		v, err := vm.GetProp(obj, "ready")
		if err != nil || !v.IsTruthy() {
			t.Errorf("initialize write not visible: %v, %v", v.ToString(), err)
		}
	})
}

func TestNativeFunctionMayReenter(t *testing.T) {
	vm := NewVM()
	inner := NewNativeFunction(0, false, "inner", func(vm *VM, this Value, args []Value) (Value, error) {
		return NewString("deep"), nil
	})
	outer := NewNativeFunction(0, false, "outer", func(vm *VM, this Value, args []Value) (Value, error) {
		return vm.CallValue(inner, Undefined, nil)
	})

	runWithWatchdog(t, "nested native calls", func() {
		v, err := vm.CallValue(outer, Undefined, nil)
		if err != nil || v.ToString() != "deep" {
			t.Errorf("nested call = %v, %v", v.ToString(), err)
		}
	})
}

func TestAccessorSetterRunsUnlocked(t *testing.T) {
	vm := NewVM()
	target := NewObject(vm.ObjectPrototype)
	var captured Value
	setter := NewNativeFunction(1, false, "set x", func(vm *VM, this Value, args []Value) (Value, error) {
		captured = args[0]
		// Reenter while handling the assignment.
		_, err := vm.HasProp(this, "x")
		return Undefined, err
	})
	target.AsPlainObject().DefineAccessorProperty("x", Undefined, setter, AttrNone)

	runWithWatchdog(t, "accessor setter", func() {
		handled, err := vm.SetProp(target, "x", IntegerValue(5))
		if err != nil || !handled {
			t.Errorf("SetProp = %v, %v", handled, err)
		}
		if captured.AsInteger() != 5 {
			t.Errorf("setter captured %v", captured.ToString())
		}
	})
}
