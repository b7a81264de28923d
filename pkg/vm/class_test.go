package vm

import (
	"testing"

	"kyanite/pkg/errors"
)

func TestRegisterClassRejectsMixedGenerations(t *testing.T) {
	vm := NewVM()

	tests := []struct {
		name string
		def  ClassDefinition
	}{
		{
			"legacy class with extended callbacks",
			ClassDefinition{
				Name:       "Bad",
				Generation: GenerationLegacy,
				CallbacksEx: ClassCallbacksEx{
					GetProperty: func(vm *VM, class *ClassDescriptor, object Value, name string) (Value, bool, error) {
						return Undefined, false, nil
					},
				},
			},
		},
		{
			"extended class with legacy callbacks",
			ClassDefinition{
				Name:       "Bad",
				Generation: GenerationExtended,
				Callbacks: ClassCallbacks{
					GetProperty: func(vm *VM, object Value, name string) (Value, bool, error) {
						return Undefined, false, nil
					},
				},
			},
		},
		{
			"legacy class with extended static accessor",
			ClassDefinition{
				Name:       "Bad",
				Generation: GenerationLegacy,
				StaticValues: []StaticValueDef{
					{Name: "v", GetEx: func(vm *VM, class *ClassDescriptor, object Value, name string) (Value, bool, error) {
						return Undefined, false, nil
					}},
				},
			},
		},
		{
			"extended class with legacy static function",
			ClassDefinition{
				Name:       "Bad",
				Generation: GenerationExtended,
				StaticFunctions: []StaticFunctionDef{
					{Name: "f", Call: func(vm *VM, function Value, this Value, args []Value) (Value, error) {
						return Undefined, nil
					}},
				},
			},
		},
	}

	for _, tt := range tests {
		_, err := vm.RegisterClass(tt.def)
		if err == nil {
			t.Errorf("%s: registration succeeded", tt.name)
			continue
		}
		kerr, ok := err.(errors.KyaniteError)
		if !ok || kerr.Kind() != "Registration" {
			t.Errorf("%s: expected a Registration error, got %v", tt.name, err)
		}
	}
	if len(vm.RegisteredClasses()) != 0 {
		t.Error("rejected definitions left residue in the registry")
	}
}

func TestRegisterClassRejectsDuplicateStaticNames(t *testing.T) {
	vm := NewVM()
	get := func(vm *VM, object Value, name string) (Value, bool, error) {
		return Undefined, false, nil
	}

	_, err := vm.RegisterClass(ClassDefinition{
		Name: "Dup",
		StaticValues: []StaticValueDef{
			{Name: "x", Get: get},
			{Name: "x", Get: get},
		},
	})
	if err == nil {
		t.Error("duplicate static value names accepted")
	}
}

func TestStaticNamesNormalized(t *testing.T) {
	vm := NewVM()
	// U+00E9 composed vs e + U+0301 combining acute: one property.
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"

	_, err := vm.RegisterClass(ClassDefinition{
		Name: "Dup",
		StaticValues: []StaticValueDef{
			{Name: composed, Get: func(vm *VM, object Value, name string) (Value, bool, error) {
				return Undefined, false, nil
			}},
			{Name: decomposed, Get: func(vm *VM, object Value, name string) (Value, bool, error) {
				return Undefined, false, nil
			}},
		},
	})
	if err == nil {
		t.Error("canonically-equivalent static value names accepted as distinct")
	}

	class := mustRegister(t, vm, ClassDefinition{
		Name: "Menu",
		StaticValues: []StaticValueDef{
			{Name: decomposed, Get: func(vm *VM, object Value, name string) (Value, bool, error) {
				return NewString("espresso"), true, nil
			}},
		},
	})
	obj := vm.NewCallbackObject(class, nil)
	v, err := vm.GetProp(obj, composed)
	if err != nil {
		t.Fatalf("GetProp: %v", err)
	}
	if v.ToString() != "espresso" {
		t.Errorf("composed-form lookup of a decomposed registration = %q", v.ToString())
	}
}

func TestExtendedCallbacksReceiveDescriptor(t *testing.T) {
	vm := NewVM()
	var seen []*ClassDescriptor
	shared := func(vm *VM, class *ClassDescriptor, object Value, name string) (Value, bool, error) {
		seen = append(seen, class)
		if name == "tag" {
			return NewString(class.Name()), true, nil
		}
		return Undefined, false, nil
	}

	first := mustRegister(t, vm, ClassDefinition{
		Name:        "First",
		Generation:  GenerationExtended,
		CallbacksEx: ClassCallbacksEx{GetProperty: shared},
	})
	second := mustRegister(t, vm, ClassDefinition{
		Name:        "Second",
		Generation:  GenerationExtended,
		CallbacksEx: ClassCallbacksEx{GetProperty: shared},
	})

	a := vm.NewCallbackObject(first, nil)
	b := vm.NewCallbackObject(second, nil)

	v, err := vm.GetProp(a, "tag")
	if err != nil || v.ToString() != "First" {
		t.Errorf("GetProp(a) = %v, %v", v.ToString(), err)
	}
	v, err = vm.GetProp(b, "tag")
	if err != nil || v.ToString() != "Second" {
		t.Errorf("GetProp(b) = %v, %v", v.ToString(), err)
	}
	if len(seen) != 2 || seen[0] != first || seen[1] != second {
		t.Error("shared extended callback did not observe distinct descriptors")
	}
}

func TestStaticTableBuiltOnce(t *testing.T) {
	vm := NewVM()
	class := mustRegister(t, vm, ClassDefinition{
		Name: "Cached",
		StaticValues: []StaticValueDef{
			{Name: "a", Get: func(vm *VM, object Value, name string) (Value, bool, error) {
				return True, true, nil
			}},
		},
	})
	first := class.staticValueTable()
	second := class.staticValueTable()
	if first == nil {
		t.Fatal("static value table not built")
	}
	if first["a"] != second["a"] {
		t.Error("static value table rebuilt between accesses")
	}
}

func TestRegisteredClassesOrder(t *testing.T) {
	vm := NewVM()
	a := mustRegister(t, vm, ClassDefinition{Name: "A"})
	b := mustRegister(t, vm, ClassDefinition{Name: "B", Parent: a})

	classes := vm.RegisteredClasses()
	if len(classes) != 2 || classes[0] != a || classes[1] != b {
		t.Errorf("RegisteredClasses = %v", classes)
	}
	if b.Parent() != a || a.Parent() != nil {
		t.Error("parent links not preserved")
	}
	if b.Generation() != GenerationLegacy {
		t.Errorf("default generation = %v", b.Generation())
	}
}

func TestStaticMemberNames(t *testing.T) {
	vm := NewVM()
	class := mustRegister(t, vm, ClassDefinition{
		Name: "Listed",
		StaticValues: []StaticValueDef{
			{Name: "v", Get: func(vm *VM, object Value, name string) (Value, bool, error) {
				return True, true, nil
			}},
		},
		StaticFunctions: []StaticFunctionDef{
			{Name: "f", Call: func(vm *VM, function Value, this Value, args []Value) (Value, error) {
				return Undefined, nil
			}},
		},
	})
	names := class.StaticMemberNames()
	if len(names) != 2 || names[0] != "v" || names[1] != "f" {
		t.Errorf("StaticMemberNames = %v", names)
	}
}
