// Package manifest loads declarative class manifests and registers them as
// native classes. A manifest describes constant-shaped classes (fixed values,
// fixed function results), which covers version tables, capability flags and
// other host-exposed metadata without writing callback code.
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"kyanite/pkg/errors"
	"kyanite/pkg/vm"
)

// Manifest is the top-level document.
type Manifest struct {
	Classes []ClassSpec `yaml:"classes"`
}

// ClassSpec describes one class. Parent names refer to other classes in the
// same manifest; registration resolves them regardless of document order.
type ClassSpec struct {
	Name       string         `yaml:"name"`
	Generation string         `yaml:"generation"`
	Parent     string         `yaml:"parent"`
	Values     []ValueSpec    `yaml:"values"`
	Functions  []FunctionSpec `yaml:"functions"`
}

// ValueSpec declares a static value whose getter returns a constant.
type ValueSpec struct {
	Name       string `yaml:"name"`
	Value      any    `yaml:"value"`
	ReadOnly   bool   `yaml:"readonly"`
	DontEnum   bool   `yaml:"dontenum"`
	DontDelete bool   `yaml:"dontdelete"`
}

// FunctionSpec declares a static function that returns a constant result.
type FunctionSpec struct {
	Name       string `yaml:"name"`
	Result     any    `yaml:"result"`
	ReadOnly   bool   `yaml:"readonly"`
	DontEnum   bool   `yaml:"dontenum"`
	DontDelete bool   `yaml:"dontdelete"`
}

// Parse decodes a manifest document.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	for i, c := range m.Classes {
		if c.Name == "" {
			return nil, fmt.Errorf("parsing manifest: class %d has no name", i)
		}
	}
	return &m, nil
}

// Load reads and decodes a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Parse(data)
}

// Register registers every class in the manifest on the VM, resolving parent
// references in dependency order. Returns the descriptors by class name.
func (m *Manifest) Register(engine *vm.VM) (map[string]*vm.ClassDescriptor, error) {
	specs := make(map[string]*ClassSpec, len(m.Classes))
	for i := range m.Classes {
		c := &m.Classes[i]
		if _, dup := specs[c.Name]; dup {
			return nil, errors.NewRegistrationError(c.Name, "class declared twice in manifest")
		}
		specs[c.Name] = c
	}

	registered := make(map[string]*vm.ClassDescriptor, len(m.Classes))
	visiting := make(map[string]bool)

	var register func(name string) (*vm.ClassDescriptor, error)
	register = func(name string) (*vm.ClassDescriptor, error) {
		if class, ok := registered[name]; ok {
			return class, nil
		}
		spec, ok := specs[name]
		if !ok {
			return nil, errors.NewRegistrationError(name, "parent class not declared in manifest")
		}
		if visiting[name] {
			return nil, errors.NewRegistrationError(name, "parent cycle in manifest")
		}
		visiting[name] = true
		defer delete(visiting, name)

		var parent *vm.ClassDescriptor
		if spec.Parent != "" {
			p, err := register(spec.Parent)
			if err != nil {
				return nil, err
			}
			parent = p
		}
		def, err := spec.definition(parent)
		if err != nil {
			return nil, err
		}
		class, err := engine.RegisterClass(*def)
		if err != nil {
			return nil, err
		}
		registered[name] = class
		return class, nil
	}

	for i := range m.Classes {
		if _, err := register(m.Classes[i].Name); err != nil {
			return nil, err
		}
	}
	return registered, nil
}

func (c *ClassSpec) generation() (vm.ClassGeneration, error) {
	switch c.Generation {
	case "", "legacy":
		return vm.GenerationLegacy, nil
	case "extended":
		return vm.GenerationExtended, nil
	default:
		return 0, errors.NewRegistrationError(c.Name, "unknown generation %q", c.Generation)
	}
}

// definition builds the callback tables for a constant-shaped class.
func (c *ClassSpec) definition(parent *vm.ClassDescriptor) (*vm.ClassDefinition, error) {
	gen, err := c.generation()
	if err != nil {
		return nil, err
	}
	def := &vm.ClassDefinition{
		Name:       c.Name,
		Generation: gen,
		Parent:     parent,
	}

	for _, v := range c.Values {
		constant, err := scalarValue(v.Value)
		if err != nil {
			return nil, errors.NewRegistrationError(c.Name, "value %q: %v", v.Name, err)
		}
		sv := vm.StaticValueDef{Name: v.Name, Attributes: attributes(v.ReadOnly, v.DontEnum, v.DontDelete)}
		if gen == vm.GenerationLegacy {
			sv.Get = func(engine *vm.VM, object vm.Value, name string) (vm.Value, bool, error) {
				return constant, true, nil
			}
		} else {
			sv.GetEx = func(engine *vm.VM, class *vm.ClassDescriptor, object vm.Value, name string) (vm.Value, bool, error) {
				return constant, true, nil
			}
		}
		def.StaticValues = append(def.StaticValues, sv)
	}

	for _, f := range c.Functions {
		result, err := scalarValue(f.Result)
		if err != nil {
			return nil, errors.NewRegistrationError(c.Name, "function %q: %v", f.Name, err)
		}
		sf := vm.StaticFunctionDef{Name: f.Name, Attributes: attributes(f.ReadOnly, f.DontEnum, f.DontDelete)}
		if gen == vm.GenerationLegacy {
			sf.Call = func(engine *vm.VM, function vm.Value, this vm.Value, args []vm.Value) (vm.Value, error) {
				return result, nil
			}
		} else {
			sf.CallEx = func(engine *vm.VM, class *vm.ClassDescriptor, function vm.Value, this vm.Value, args []vm.Value) (vm.Value, error) {
				return result, nil
			}
		}
		def.StaticFunctions = append(def.StaticFunctions, sf)
	}

	return def, nil
}

func attributes(readOnly, dontEnum, dontDelete bool) vm.PropertyAttributes {
	attrs := vm.AttrNone
	if readOnly {
		attrs |= vm.AttrReadOnly
	}
	if dontEnum {
		attrs |= vm.AttrDontEnum
	}
	if dontDelete {
		attrs |= vm.AttrDontDelete
	}
	return attrs
}

// scalarValue maps a decoded YAML scalar to an engine value.
func scalarValue(raw any) (vm.Value, error) {
	switch v := raw.(type) {
	case nil:
		return vm.Null, nil
	case bool:
		return vm.BooleanValue(v), nil
	case int:
		if int64(int32(v)) == int64(v) {
			return vm.IntegerValue(int32(v)), nil
		}
		return vm.NumberValue(float64(v)), nil
	case int64:
		return vm.NumberValue(float64(v)), nil
	case float64:
		return vm.NumberValue(v), nil
	case string:
		return vm.NewString(v), nil
	default:
		return vm.Undefined, fmt.Errorf("unsupported constant type %T", raw)
	}
}
