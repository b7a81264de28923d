package vm

// PropertyAttributes carries the flag set used by both generic own properties
// and static class members.
type PropertyAttributes uint8

const (
	AttrNone       PropertyAttributes = 0
	AttrReadOnly   PropertyAttributes = 1 << 1
	AttrDontEnum   PropertyAttributes = 1 << 2
	AttrDontDelete PropertyAttributes = 1 << 3
)

func (a PropertyAttributes) readOnly() bool   { return a&AttrReadOnly != 0 }
func (a PropertyAttributes) dontEnum() bool   { return a&AttrDontEnum != 0 }
func (a PropertyAttributes) dontDelete() bool { return a&AttrDontDelete != 0 }

// CustomGetter is a lazily-evaluated property slot: the value is computed only
// when the slot is read.
type CustomGetter func(vm *VM, this Value, name string) (Value, error)

// PropertySlot describes the outcome of an own-property lookup. Exactly one of
// Value / Custom / accessor is meaningful; resolveSlot evaluates it.
type PropertySlot struct {
	Value  Value
	Attrs  PropertyAttributes
	Custom CustomGetter

	getter    Value
	hasGetter bool
}

func valueSlot(v Value, attrs PropertyAttributes) PropertySlot {
	return PropertySlot{Value: v, Attrs: attrs}
}

func customSlot(attrs PropertyAttributes, getter CustomGetter) PropertySlot {
	return PropertySlot{Attrs: attrs, Custom: getter}
}

// PropertyNameArray is an order-preserving, deduplicating accumulator for
// enumeration. Host getPropertyNames callbacks append into it.
type PropertyNameArray struct {
	names []string
	seen  map[string]struct{}
}

func (p *PropertyNameArray) Add(name string) {
	if p.seen == nil {
		p.seen = make(map[string]struct{})
	}
	if _, ok := p.seen[name]; ok {
		return
	}
	p.seen[name] = struct{}{}
	p.names = append(p.names, name)
}

func (p *PropertyNameArray) Names() []string { return p.names }

func (p *PropertyNameArray) Contains(name string) bool {
	_, ok := p.seen[name]
	return ok
}

// Object is the embedded base for all heap cells.
type Object struct {
}

type field struct {
	name       string
	value      Value
	attrs      PropertyAttributes
	isAccessor bool
	getter     Value
	setter     Value
}

// PlainObject is the generic object substrate: ordered own fields with
// attribute flags, accessor support, and a prototype link. The callback
// resolution engine delegates here when no class descriptor answers.
type PlainObject struct {
	Object
	prototype  Value
	fields     []field
	extensible bool
}

func NewObject(proto Value) Value {
	prototype := Null
	if proto.IsObject() {
		prototype = proto
	}
	plainObj := &PlainObject{prototype: prototype, extensible: true}
	return NewValueFromPlainObject(plainObj)
}

func (o *PlainObject) findField(name string) int {
	for i := range o.fields {
		if o.fields[i].name == name {
			return i
		}
	}
	return -1
}

// GetOwn looks up a direct (own) data property by name. Returns (value, true)
// if present. Accessor properties report their existence with Undefined.
func (o *PlainObject) GetOwn(name string) (Value, bool) {
	if i := o.findField(name); i != -1 {
		if o.fields[i].isAccessor {
			return Undefined, true
		}
		return o.fields[i].value, true
	}
	return Undefined, false
}

// HasOwn reports whether an own property with the given name exists.
func (o *PlainObject) HasOwn(name string) bool {
	return o.findField(name) != -1
}

// getOwnSlot returns the own property as a slot; accessor getters become
// custom lazily-evaluated slots.
func (o *PlainObject) getOwnSlot(name string) (PropertySlot, bool) {
	i := o.findField(name)
	if i == -1 {
		return PropertySlot{}, false
	}
	f := &o.fields[i]
	if f.isAccessor {
		return PropertySlot{Attrs: f.attrs, getter: f.getter, hasGetter: !f.getter.IsUndefined()}, true
	}
	return valueSlot(f.value, f.attrs), true
}

// SetOwn sets or defines an own property with plain assignment semantics:
// existing read-only properties are left untouched, new properties are
// writable, enumerable and deletable.
func (o *PlainObject) SetOwn(name string, v Value) {
	if i := o.findField(name); i != -1 {
		f := &o.fields[i]
		if f.isAccessor || f.attrs.readOnly() {
			return
		}
		f.value = v
		return
	}
	if !o.extensible {
		return
	}
	o.fields = append(o.fields, field{name: name, value: v, attrs: AttrNone})
}

// PutDirect installs a data property with explicit attributes, overwriting any
// existing definition for the name.
func (o *PlainObject) PutDirect(name string, v Value, attrs PropertyAttributes) {
	if i := o.findField(name); i != -1 {
		o.fields[i] = field{name: name, value: v, attrs: attrs}
		return
	}
	o.fields = append(o.fields, field{name: name, value: v, attrs: attrs})
}

// DefineAccessorProperty installs an accessor property. Pass Undefined for a
// missing getter or setter.
func (o *PlainObject) DefineAccessorProperty(name string, getter, setter Value, attrs PropertyAttributes) {
	f := field{name: name, attrs: attrs, isAccessor: true, getter: getter, setter: setter}
	if i := o.findField(name); i != -1 {
		o.fields[i] = f
		return
	}
	o.fields = append(o.fields, f)
}

// put implements generic assignment including accessor setters. Returns
// (handled, err); handled is false when a read-only property rejected the
// write. Setter invocation goes through the VM so the lock discipline applies.
func (o *PlainObject) put(vm *VM, this Value, name string, v Value) (bool, error) {
	if i := o.findField(name); i != -1 {
		f := &o.fields[i]
		if f.isAccessor {
			if f.setter.IsUndefined() {
				return false, nil
			}
			if _, err := vm.callValue(f.setter, this, []Value{v}); err != nil {
				return false, err
			}
			return true, nil
		}
		if f.attrs.readOnly() {
			return false, nil
		}
		f.value = v
		return true, nil
	}
	if !o.extensible {
		return false, nil
	}
	o.fields = append(o.fields, field{name: name, value: v, attrs: AttrNone})
	return true, nil
}

// DeleteOwn removes an own property if present and deletable. Deleting an
// absent property reports success.
func (o *PlainObject) DeleteOwn(name string) bool {
	i := o.findField(name)
	if i == -1 {
		return true
	}
	if o.fields[i].attrs.dontDelete() {
		return false
	}
	o.fields = append(o.fields[:i], o.fields[i+1:]...)
	return true
}

// OwnKeys returns enumerable own property names in insertion order.
func (o *PlainObject) OwnKeys() []string {
	keys := make([]string, 0, len(o.fields))
	for i := range o.fields {
		if !o.fields[i].attrs.dontEnum() {
			keys = append(keys, o.fields[i].name)
		}
	}
	return keys
}

// OwnPropertyNames returns all own property names (including non-enumerable)
// in insertion order.
func (o *PlainObject) OwnPropertyNames() []string {
	keys := make([]string, 0, len(o.fields))
	for i := range o.fields {
		keys = append(keys, o.fields[i].name)
	}
	return keys
}

func (o *PlainObject) ownPropertyNamesInto(names *PropertyNameArray, includeDontEnum bool) {
	for i := range o.fields {
		if includeDontEnum || !o.fields[i].attrs.dontEnum() {
			names.Add(o.fields[i].name)
		}
	}
}

// Get looks up a property by name, walking the prototype chain if necessary.
// Accessor and custom slots are not evaluated here; use VM.GetProp for that.
func (o *PlainObject) Get(name string) (Value, bool) {
	if v, ok := o.GetOwn(name); ok {
		return v, true
	}
	current := o.prototype
	for current.IsObject() {
		switch current.Type() {
		case TypeObject:
			proto := current.AsPlainObject()
			if v, ok := proto.GetOwn(name); ok {
				return v, true
			}
			current = proto.prototype
		case TypeCallbackObject:
			impl := &current.AsCallbackObject().impl
			if v, ok := impl.GetOwn(name); ok {
				return v, true
			}
			current = impl.prototype
		default:
			return Undefined, false
		}
	}
	return Undefined, false
}

// GetPrototype returns the object's prototype.
func (o *PlainObject) GetPrototype() Value { return o.prototype }

// SetPrototype sets the object's prototype. Returns false if the object is
// non-extensible and the prototype would actually change.
func (o *PlainObject) SetPrototype(proto Value) bool {
	if proto.Is(o.prototype) {
		return true
	}
	if !o.extensible {
		return false
	}
	o.prototype = proto
	return true
}

// IsExtensible returns whether new properties can be added to this object.
func (o *PlainObject) IsExtensible() bool { return o.extensible }

// SetExtensible clears the extensible flag; once cleared it cannot be set back.
func (o *PlainObject) SetExtensible(extensible bool) {
	if !extensible {
		o.extensible = false
	}
}
