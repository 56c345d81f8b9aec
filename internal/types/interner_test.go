package types

import "testing"

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Int == NoTypeID || b.Bool == NoTypeID || b.CString == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	tt, _ := in.Lookup(b.CString)
	if tt.Kind != KindCString {
		t.Fatalf("expected c_string kind, got %v", tt.Kind)
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	elem := in.Builtins().Int
	arr1 := in.MakeArray(elem)
	arr2 := in.MakeArray(elem)
	if arr1 != arr2 {
		t.Fatalf("array types should be deduplicated")
	}
	if in.MakeSync(elem) == in.MakeSingle(elem) {
		t.Fatalf("sync and single must differ")
	}
}

func TestRefOfRefIsIdentity(t *testing.T) {
	in := NewInterner()
	ref := in.MakeRef(in.Builtins().Int)
	if in.MakeRef(ref) != ref {
		t.Fatalf("ref(ref(T)) must collapse to ref(T)")
	}
	if in.ValType(ref) != in.Builtins().Int {
		t.Fatalf("value type of ref(int) must be int")
	}
}

func TestRecordsAreNominal(t *testing.T) {
	in := NewInterner()
	fields := []Field{{Name: "x", Type: in.Builtins().Int}}
	r1 := in.RegisterRecord("R", fields)
	r2 := in.RegisterRecord("R", fields)
	if r1 == r2 {
		t.Fatalf("records are nominal; identical shapes must stay distinct")
	}
	f, ok := in.FieldNamed(r1, "x")
	if !ok || f.Type != in.Builtins().Int {
		t.Fatalf("field lookup failed")
	}
	if _, ok := in.FieldNamed(r1, "missing"); ok {
		t.Fatalf("phantom field found")
	}
}

func TestClassParentChain(t *testing.T) {
	in := NewInterner()
	base := in.RegisterClass("Base", NoTypeID, nil)
	derived := in.RegisterClass("Derived", base, nil)
	if in.Parent(derived) != base {
		t.Fatalf("parent link lost")
	}
	if in.Parent(base) != NoTypeID {
		t.Fatalf("root class has no parent")
	}
}

func TestTuplesDeduplicate(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	t1 := in.RegisterTuple([]TypeID{b.Int, b.Real})
	t2 := in.RegisterTuple([]TypeID{b.Int, b.Real})
	t3 := in.RegisterTuple([]TypeID{b.Real, b.Int})
	if t1 != t2 {
		t.Fatalf("identical tuples must intern to one type")
	}
	if t1 == t3 {
		t.Fatalf("element order participates in tuple identity")
	}
}

func TestIterRecordsDiscriminateByOrigin(t *testing.T) {
	in := NewInterner()
	elem := in.Builtins().Int
	r1 := in.MakeIterRecord(1, elem)
	r2 := in.MakeIterRecord(2, elem)
	if r1 == r2 {
		t.Fatalf("each promoted call site owns a distinct iterator record")
	}
	if !in.IsIterRecord(r1) || in.Elem(r1) != elem {
		t.Fatalf("iterator record shape lost")
	}
}

func TestRecordWrappedPredicate(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	arr := in.MakeArray(b.Int)
	for _, id := range []TypeID{arr, b.Domain, b.Dist} {
		if !in.IsRecordWrapped(id) {
			t.Errorf("%s must be record-wrapped", in.String(id))
		}
	}
	if in.IsRecordWrapped(b.Int) {
		t.Errorf("int is not record-wrapped")
	}
}
