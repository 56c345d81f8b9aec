package types

import (
	"fmt"

	"fortio.org/safecast"
)

// Field is a named member of a record or class.
type Field struct {
	Name string
	Type TypeID
}

// RecordInfo stores metadata for record types.
type RecordInfo struct {
	Name   string
	Fields []Field
}

// ClassInfo stores metadata for class types. Parent links form the dispatch
// hierarchy walked by the resolution oracle.
type ClassInfo struct {
	Name   string
	Parent TypeID // NoTypeID for a root class
	Fields []Field
}

// RegisterRecord creates a record type. Records are nominal: every call
// allocates a fresh descriptor even for an identical shape.
func (in *Interner) RegisterRecord(name string, fields []Field) TypeID {
	slot := in.appendRecordInfo(RecordInfo{Name: name, Fields: cloneFields(fields)})
	return in.internRaw(Type{Kind: KindRecord, Payload: slot})
}

// RegisterClass creates a class type with an optional parent.
func (in *Interner) RegisterClass(name string, parent TypeID, fields []Field) TypeID {
	slot, err := safecast.Conv[uint32](len(in.classes))
	if err != nil {
		panic(fmt.Errorf("class info overflow: %w", err))
	}
	in.classes = append(in.classes, ClassInfo{Name: name, Parent: parent, Fields: cloneFields(fields)})
	return in.internRaw(Type{Kind: KindClass, Payload: slot})
}

// RecordInfo retrieves record metadata by TypeID.
func (in *Interner) RecordInfo(id TypeID) (*RecordInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindRecord {
		return nil, false
	}
	if int(tt.Payload) >= len(in.records) {
		return nil, false
	}
	return &in.records[tt.Payload], true
}

// ClassInfo retrieves class metadata by TypeID.
func (in *Interner) ClassInfo(id TypeID) (*ClassInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindClass {
		return nil, false
	}
	if int(tt.Payload) >= len(in.classes) {
		return nil, false
	}
	return &in.classes[tt.Payload], true
}

// FieldNamed looks up a field of a record or class by name. Parent fields of
// classes are not consulted; constructors wire only their own fields.
func (in *Interner) FieldNamed(id TypeID, name string) (Field, bool) {
	if info, ok := in.RecordInfo(id); ok {
		for _, f := range info.Fields {
			if f.Name == name {
				return f, true
			}
		}
	}
	if info, ok := in.ClassInfo(id); ok {
		for _, f := range info.Fields {
			if f.Name == name {
				return f, true
			}
		}
	}
	return Field{}, false
}

// Parent returns the dispatch parent of a class type, or NoTypeID.
func (in *Interner) Parent(id TypeID) TypeID {
	if info, ok := in.ClassInfo(id); ok {
		return info.Parent
	}
	return NoTypeID
}

func (in *Interner) appendRecordInfo(info RecordInfo) uint32 {
	slot, err := safecast.Conv[uint32](len(in.records))
	if err != nil {
		panic(fmt.Errorf("record info overflow: %w", err))
	}
	in.records = append(in.records, info)
	return slot
}

func cloneFields(fields []Field) []Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}
