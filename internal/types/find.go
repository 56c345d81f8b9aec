package types

// kindOf is a nil-safe kind accessor used by the predicate helpers.
func (in *Interner) kindOf(id TypeID) Kind {
	tt, ok := in.Lookup(id)
	if !ok {
		return KindInvalid
	}
	return tt.Kind
}

// IsRef reports whether id is a reference type.
func (in *Interner) IsRef(id TypeID) bool { return in.kindOf(id) == KindRef }

// IsSync reports whether id is a sync-wrapped type.
func (in *Interner) IsSync(id TypeID) bool { return in.kindOf(id) == KindSync }

// IsSingle reports whether id is a single-wrapped type.
func (in *Interner) IsSingle(id TypeID) bool { return in.kindOf(id) == KindSingle }

// IsString reports whether id is the managed string type.
func (in *Interner) IsString(id TypeID) bool { return in.kindOf(id) == KindString }

// IsCString reports whether id is the unmanaged C string type.
func (in *Interner) IsCString(id TypeID) bool { return in.kindOf(id) == KindCString }

// IsTuple reports whether id is a tuple type.
func (in *Interner) IsTuple(id TypeID) bool { return in.kindOf(id) == KindTuple }

// IsVoid reports whether id is void (or missing entirely).
func (in *Interner) IsVoid(id TypeID) bool {
	return id == NoTypeID || in.kindOf(id) == KindVoid
}

// IsIterRecord reports whether id is an iterator record type.
func (in *Interner) IsIterRecord(id TypeID) bool { return in.kindOf(id) == KindIterRecord }

// IsRecordWrapped reports whether id is one of the record-wrapped collection
// types: arrays, domains and distributions.
func (in *Interner) IsRecordWrapped(id TypeID) bool {
	switch in.kindOf(id) {
	case KindArray, KindDomain, KindDist:
		return true
	}
	return false
}

// IsAggregate reports whether id defaults to by-reference passing under the
// blank intent rule.
func (in *Interner) IsAggregate(id TypeID) bool {
	switch in.kindOf(id) {
	case KindArray, KindDomain, KindDist, KindRecord, KindTuple:
		return true
	}
	return false
}

// Elem returns the wrapped element type for ref/sync/single/array kinds.
func (in *Interner) Elem(id TypeID) TypeID {
	tt, ok := in.Lookup(id)
	if !ok {
		return NoTypeID
	}
	switch tt.Kind {
	case KindRef, KindSync, KindSingle, KindArray, KindIterRecord:
		return tt.Elem
	}
	return NoTypeID
}

// ValType strips one level of reference, mirroring the value type of an
// actual passed by ref.
func (in *Interner) ValType(id TypeID) TypeID {
	if tt, ok := in.Lookup(id); ok && tt.Kind == KindRef {
		return tt.Elem
	}
	return id
}
