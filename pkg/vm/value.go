package vm

import (
	"math"
	"strconv"
	"unsafe"
)

type ValueType uint8

const (
	TypeUndefined ValueType = iota
	TypeNull

	TypeBoolean
	TypeIntegerNumber
	TypeFloatNumber

	TypeString

	TypeNativeFunction

	TypeObject
	TypeCallbackObject
)

// String returns a human-readable string representation of the ValueType
func (vt ValueType) String() string {
	switch vt {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		return "boolean"
	case TypeFloatNumber, TypeIntegerNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeNativeFunction:
		return "native function"
	case TypeObject:
		return "object"
	case TypeCallbackObject:
		return "callback object"
	default:
		return "unknown"
	}
}

type StringObject struct {
	Object
	value string
}

// Value is the engine's universal value handle. Heap values carry a pointer in
// obj; immediates live in payload.
type Value struct {
	typ     ValueType
	payload uint64
	obj     unsafe.Pointer
}

var (
	Undefined = Value{typ: TypeUndefined}
	Null      = Value{typ: TypeNull}
	True      = Value{typ: TypeBoolean, payload: 1}
	False     = Value{typ: TypeBoolean, payload: 0}
	NaN       = Value{typ: TypeFloatNumber, payload: math.Float64bits(math.NaN())}
)

func NumberValue(value float64) Value {
	return Value{typ: TypeFloatNumber, payload: math.Float64bits(value)}
}

func IntegerValue(value int32) Value {
	return Value{typ: TypeIntegerNumber, payload: uint64(int64(value))}
}

func BooleanValue(value bool) Value {
	if value {
		return True
	}
	return False
}

func NewString(value string) Value {
	strObj := &StringObject{value: value}
	return Value{typ: TypeString, obj: unsafe.Pointer(strObj)}
}

func NewValueFromPlainObject(plainObj *PlainObject) Value {
	return Value{typ: TypeObject, obj: unsafe.Pointer(plainObj)}
}

func NewValueFromCallbackObject(callbackObj *CallbackObject) Value {
	return Value{typ: TypeCallbackObject, obj: unsafe.Pointer(callbackObj)}
}

func (v Value) Type() ValueType { return v.typ }

func (v Value) TypeName() string { return v.typ.String() }

func (v Value) IsUndefined() bool { return v.typ == TypeUndefined }
func (v Value) IsNull() bool      { return v.typ == TypeNull }
func (v Value) IsBoolean() bool   { return v.typ == TypeBoolean }
func (v Value) IsString() bool    { return v.typ == TypeString }

func (v Value) IsNumber() bool {
	return v.typ == TypeFloatNumber || v.typ == TypeIntegerNumber
}

// IsObject reports whether the value is any heap object participating in the
// property protocol.
func (v Value) IsObject() bool {
	return v.typ == TypeObject || v.typ == TypeCallbackObject
}

func (v Value) IsCallbackObject() bool { return v.typ == TypeCallbackObject }

// IsCallable reports whether the value can be invoked. Callback objects are
// callable only when a class in their chain offers a call callback; this is the
// cheap capability probe, nothing is invoked.
func (v Value) IsCallable() bool {
	switch v.typ {
	case TypeNativeFunction:
		return true
	case TypeCallbackObject:
		return v.AsCallbackObject().canCall()
	default:
		return false
	}
}

func (v Value) AsBoolean() bool { return v.payload != 0 }

func (v Value) AsInteger() int32 { return int32(int64(v.payload)) }

func (v Value) AsFloat() float64 { return math.Float64frombits(v.payload) }

// ToFloat widens either number representation to float64.
func (v Value) ToFloat() float64 {
	if v.typ == TypeIntegerNumber {
		return float64(v.AsInteger())
	}
	return v.AsFloat()
}

func (v Value) AsString() string {
	return (*StringObject)(v.obj).value
}

func (v Value) AsPlainObject() *PlainObject {
	if v.typ != TypeObject {
		return nil
	}
	return (*PlainObject)(v.obj)
}

func (v Value) AsCallbackObject() *CallbackObject {
	if v.typ != TypeCallbackObject {
		return nil
	}
	return (*CallbackObject)(v.obj)
}

func (v Value) AsNativeFunction() *NativeFunctionObject {
	if v.typ != TypeNativeFunction {
		return nil
	}
	return (*NativeFunctionObject)(v.obj)
}

// Is implements identity comparison: same heap cell for objects, same
// representation for immediates. Strings compare by content.
func (v Value) Is(other Value) bool {
	if v.typ != other.typ {
		return false
	}
	switch v.typ {
	case TypeUndefined, TypeNull:
		return true
	case TypeBoolean, TypeIntegerNumber, TypeFloatNumber:
		return v.payload == other.payload
	case TypeString:
		return v.AsString() == other.AsString()
	default:
		return v.obj == other.obj
	}
}

// IsTruthy follows the usual script truthiness rules.
func (v Value) IsTruthy() bool {
	switch v.typ {
	case TypeUndefined, TypeNull:
		return false
	case TypeBoolean:
		return v.payload != 0
	case TypeIntegerNumber:
		return v.AsInteger() != 0
	case TypeFloatNumber:
		f := v.AsFloat()
		return f != 0 && !math.IsNaN(f)
	case TypeString:
		return v.AsString() != ""
	default:
		return true
	}
}

// ToString renders the value for diagnostics and generic conversion.
func (v Value) ToString() string {
	switch v.typ {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		if v.payload != 0 {
			return "true"
		}
		return "false"
	case TypeIntegerNumber:
		return strconv.FormatInt(int64(v.AsInteger()), 10)
	case TypeFloatNumber:
		f := v.AsFloat()
		if math.IsNaN(f) {
			return "NaN"
		}
		if math.IsInf(f, 1) {
			return "Infinity"
		}
		if math.IsInf(f, -1) {
			return "-Infinity"
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	case TypeString:
		return v.AsString()
	case TypeNativeFunction:
		name := v.AsNativeFunction().Name
		if name == "" {
			name = "anonymous"
		}
		return "function " + name + "() { [native code] }"
	case TypeCallbackObject:
		return "[object " + v.AsCallbackObject().className() + "]"
	case TypeObject:
		return "[object Object]"
	default:
		return "<unknown>"
	}
}
