package vm

import "unsafe"

// NativeFn is the signature for host functions exposed to the engine. A
// returned ExceptionError becomes a thrown script value.
type NativeFn func(vm *VM, this Value, args []Value) (Value, error)

// NativeFunctionObject represents a native Go function callable from script.
type NativeFunctionObject struct {
	Object
	Arity    int
	Variadic bool
	Name     string
	Fn       NativeFn
}

func NewNativeFunction(arity int, variadic bool, name string, fn NativeFn) Value {
	return Value{typ: TypeNativeFunction, obj: unsafe.Pointer(&NativeFunctionObject{
		Arity:    arity,
		Variadic: variadic,
		Name:     name,
		Fn:       fn,
	})}
}
