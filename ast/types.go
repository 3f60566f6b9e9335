package ast

// TypeKind discriminates the structural Type forms.
type TypeKind int

const (
	// TypeUnknown means no annotation and inference hasn't resolved it.
	TypeUnknown TypeKind = iota
	// TypeInt is an integer.
	TypeInt
	// TypeFloat is a floating-point number.
	TypeFloat
	// TypeString is a string.
	TypeString
	// TypeBool is a boolean.
	TypeBool
	// TypeNil is the nil literal type.
	TypeNil
	// TypeAny is the explicit dynamic type.
	TypeAny
	// TypeFunc is a callable value.
	TypeFunc
	// TypeArray is an array with a tracked element type.
	TypeArray
	// TypeParam is a template type parameter (single uppercase letter).
	TypeParam
)

// Type is a structural type annotation. Arrays carry an element type,
// template type parameters carry their name.
type Type struct {
	Kind TypeKind
	Elem *Type  // set for TypeArray
	Name string // set for TypeParam
}

// Primitive type singletons. These are read-only; passes that need a new
// array or parameter type allocate one.
var (
	IntType     = &Type{Kind: TypeInt}
	FloatType   = &Type{Kind: TypeFloat}
	StringType  = &Type{Kind: TypeString}
	BoolType    = &Type{Kind: TypeBool}
	NilType     = &Type{Kind: TypeNil}
	AnyType     = &Type{Kind: TypeAny}
	FuncType    = &Type{Kind: TypeFunc}
	UnknownType = &Type{Kind: TypeUnknown}
)

// ArrayOf returns an array type with the given element type.
func ArrayOf(elem *Type) *Type { return &Type{Kind: TypeArray, Elem: elem} }

// ParamType returns a template type parameter reference.
func ParamType(name string) *Type { return &Type{Kind: TypeParam, Name: name} }

func (t *Type) String() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	case TypeNil:
		return "nil"
	case TypeAny:
		return "any"
	case TypeFunc:
		return "func"
	case TypeArray:
		return "[" + t.Elem.String() + "]"
	case TypeParam:
		return t.Name
	default:
		return "?"
	}
}

// IsResolved reports whether the type is concrete: not unknown and free of
// type parameters.
func (t *Type) IsResolved() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case TypeUnknown, TypeParam:
		return false
	case TypeArray:
		return t.Elem.IsResolved()
	default:
		return true
	}
}

// Equal reports structural type equality.
func (t *Type) Equal(o *Type) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Kind != o.Kind || t.Name != o.Name {
		return false
	}
	if t.Kind == TypeArray {
		return t.Elem.Equal(o.Elem)
	}
	return true
}

// TypeParams returns the names of type parameters appearing in t, in
// first-appearance order.
func (t *Type) TypeParams() []string {
	var names []string
	t.collectParams(&names)
	return names
}

func (t *Type) collectParams(names *[]string) {
	if t == nil {
		return
	}
	switch t.Kind {
	case TypeParam:
		for _, n := range *names {
			if n == t.Name {
				return
			}
		}
		*names = append(*names, t.Name)
	case TypeArray:
		t.Elem.collectParams(names)
	}
}
