package types

import (
	"fmt"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for common primitive types.
type Builtins struct {
	Invalid          TypeID
	Void             TypeID
	Bool             TypeID
	Int              TypeID
	Real             TypeID
	String           TypeID
	CString          TypeID
	Any              TypeID
	MethodToken      TypeID
	TypeDefaultToken TypeID
	IterTag          TypeID
	Domain           TypeID
	Dist             TypeID
	// IterRecord is the generic iterator-record base every concrete
	// iterator record dispatches to.
	IterRecord TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
type Interner struct {
	types    []Type
	index    map[Type]TypeID
	builtins Builtins
	records  []RecordInfo
	classes  []ClassInfo
	tuples   []TupleInfo
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index: make(map[Type]TypeID, 64),
	}
	in.records = append(in.records, RecordInfo{}) // reserve 0 as invalid sentinel
	in.classes = append(in.classes, ClassInfo{})
	in.tuples = append(in.tuples, TupleInfo{})
	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.Void = in.Intern(Type{Kind: KindVoid})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.Int = in.Intern(Type{Kind: KindInt})
	in.builtins.Real = in.Intern(Type{Kind: KindReal})
	in.builtins.String = in.Intern(Type{Kind: KindString})
	in.builtins.CString = in.Intern(Type{Kind: KindCString})
	in.builtins.Any = in.Intern(Type{Kind: KindAny})
	in.builtins.MethodToken = in.Intern(Type{Kind: KindMethodToken})
	in.builtins.TypeDefaultToken = in.Intern(Type{Kind: KindTypeDefaultToken})
	in.builtins.IterTag = in.Intern(Type{Kind: KindIterTag})
	in.builtins.Domain = in.Intern(Type{Kind: KindDomain})
	in.builtins.Dist = in.Intern(Type{Kind: KindDist})
	in.builtins.IterRecord = in.Intern(Type{Kind: KindIterRecord})
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	if id, ok := in.index[t]; ok {
		return id
	}
	return in.internRaw(t)
}

// internRaw adds the descriptor to the storage without consulting the map.
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[t] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// Len reports the number of interned descriptors including builtins.
func (in *Interner) Len() int { return len(in.types) }

// MakeRef returns the reference type for elem. Taking a reference of a
// reference is the identity.
func (in *Interner) MakeRef(elem TypeID) TypeID {
	if tt, ok := in.Lookup(elem); ok && tt.Kind == KindRef {
		return elem
	}
	return in.Intern(Type{Kind: KindRef, Elem: elem})
}

// MakeSync returns the sync-wrapped type for elem.
func (in *Interner) MakeSync(elem TypeID) TypeID {
	return in.Intern(Type{Kind: KindSync, Elem: elem})
}

// MakeSingle returns the single-wrapped type for elem.
func (in *Interner) MakeSingle(elem TypeID) TypeID {
	return in.Intern(Type{Kind: KindSingle, Elem: elem})
}

// MakeArray returns an array type over elem.
func (in *Interner) MakeArray(elem TypeID) TypeID {
	return in.Intern(Type{Kind: KindArray, Elem: elem})
}

// MakeIterRecord returns the iterator record type discriminated by origin.
// Each promoted call site owns a distinct iterator record, so the
// discriminator participates in identity.
func (in *Interner) MakeIterRecord(origin uint32, elem TypeID) TypeID {
	return in.Intern(Type{Kind: KindIterRecord, Elem: elem, Payload: origin})
}

// String renders a readable form of the type for diagnostics and dumps.
func (in *Interner) String(id TypeID) string {
	tt, ok := in.Lookup(id)
	if !ok {
		return "<none>"
	}
	switch tt.Kind {
	case KindRef:
		return "ref(" + in.String(tt.Elem) + ")"
	case KindSync:
		return "sync(" + in.String(tt.Elem) + ")"
	case KindSingle:
		return "single(" + in.String(tt.Elem) + ")"
	case KindArray:
		return "[" + in.String(tt.Elem) + "]"
	case KindRecord:
		if info, ok := in.RecordInfo(id); ok {
			return info.Name
		}
	case KindClass:
		if info, ok := in.ClassInfo(id); ok {
			return info.Name
		}
	case KindTuple:
		if info, ok := in.TupleInfo(id); ok {
			s := "("
			for i, e := range info.Elems {
				if i > 0 {
					s += ", "
				}
				s += in.String(e)
			}
			return s + ")"
		}
	case KindIterRecord:
		return fmt.Sprintf("iter-record#%d(%s)", tt.Payload, in.String(tt.Elem))
	}
	return tt.Kind.String()
}
