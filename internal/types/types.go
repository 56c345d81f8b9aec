package types

// TypeID is a stable index into the Interner. Zero is NoTypeID.
type TypeID uint32

// NoTypeID is the invalid type sentinel.
const NoTypeID TypeID = 0

// Kind enumerates structural type kinds of the Crest surface language as the
// resolution passes see them.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindVoid is the absent value type of procedures without a result.
	KindVoid
	KindBool
	KindInt
	KindReal
	// KindString is the managed Crest string.
	KindString
	// KindCString is the unmanaged C string used at extern boundaries.
	KindCString
	// KindAny matches every type; used for generic formals such as followThis.
	KindAny
	// KindMethodToken marks the hidden method-call marker formal.
	KindMethodToken
	// KindTypeDefaultToken is the sentinel type of the "use the type's
	// default" marker value.
	KindTypeDefaultToken
	// KindIterTag is the type of leader/follower iteration tags.
	KindIterTag
	// KindRef is a reference to Elem.
	KindRef
	// KindSync wraps Elem with full/empty synchronization.
	KindSync
	// KindSingle wraps Elem with write-once synchronization.
	KindSingle
	// KindArray is a record-wrapped array with element type Elem.
	KindArray
	// KindDomain is a record-wrapped index domain.
	KindDomain
	// KindDist is a record-wrapped distribution.
	KindDist
	// KindRecord is a user record; Payload indexes RecordInfo.
	KindRecord
	// KindClass is a user class; Payload indexes ClassInfo.
	KindClass
	// KindTuple is a tuple; Payload indexes TupleInfo.
	KindTuple
	// KindIterRecord is the iterator record produced for one promoted call
	// site; Payload is the originating wrapper's discriminator.
	KindIterRecord
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindReal:
		return "real"
	case KindString:
		return "string"
	case KindCString:
		return "c_string"
	case KindAny:
		return "any"
	case KindMethodToken:
		return "method-token"
	case KindTypeDefaultToken:
		return "type-default-token"
	case KindIterTag:
		return "iter-tag"
	case KindRef:
		return "ref"
	case KindSync:
		return "sync"
	case KindSingle:
		return "single"
	case KindArray:
		return "array"
	case KindDomain:
		return "domain"
	case KindDist:
		return "dist"
	case KindRecord:
		return "record"
	case KindClass:
		return "class"
	case KindTuple:
		return "tuple"
	case KindIterRecord:
		return "iter-record"
	}
	return "unknown"
}

// Type is the structural descriptor interned behind a TypeID.
// Elem is meaningful for ref/sync/single/array kinds; Payload indexes a
// side table for record/class/tuple kinds and discriminates iterator records.
type Type struct {
	Kind    Kind
	Elem    TypeID
	Payload uint32
}
