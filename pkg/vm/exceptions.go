package vm

// --- Script Exceptions ---

// ExceptionError is the error shape used to thread a thrown script value out
// of a host callback or engine operation. Every callback invocation site
// checks for it immediately and short-circuits the remaining chain walk.
type ExceptionError interface {
	error
	ExceptionValue() Value
}

type thrownValue struct {
	value Value
}

func (t thrownValue) Error() string {
	return "uncaught exception: " + t.value.ToString()
}

func (t thrownValue) ExceptionValue() Value { return t.value }

// Throw wraps a script value as an ExceptionError for propagation through
// ordinary Go error returns.
func Throw(value Value) error {
	return thrownValue{value: value}
}

// IsException reports whether err carries a thrown script value, and returns it.
func IsException(err error) (Value, bool) {
	if ee, ok := err.(ExceptionError); ok {
		return ee.ExceptionValue(), true
	}
	return Undefined, false
}

// newErrorObject builds an error-shaped object off the VM's ErrorPrototype.
func (vm *VM) newErrorObject(name, message string) Value {
	obj := NewObject(vm.ErrorPrototype).AsPlainObject()
	obj.SetOwn("name", NewString(name))
	obj.SetOwn("message", NewString(message))
	return NewValueFromPlainObject(obj)
}

// NewTypeError constructs a TypeError exception for helpers to return.
func (vm *VM) NewTypeError(message string) error {
	return Throw(vm.newErrorObject("TypeError", message))
}

// NewReferenceError constructs a ReferenceError exception for helpers to
// return. The resolution engine uses this to report host protocol violations.
func (vm *VM) NewReferenceError(message string) error {
	return Throw(vm.newErrorObject("ReferenceError", message))
}

// NewRangeError constructs a RangeError exception for helpers to return.
func (vm *VM) NewRangeError(message string) error {
	return Throw(vm.newErrorObject("RangeError", message))
}
