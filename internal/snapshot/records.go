// Package snapshot serializes an IR module with msgpack. The driver consumes
// snapshots produced by the front end; round-trip tests exercise the format.
// All spans are dropped, function spans included — snapshots feed tooling,
// not user diagnostics.
package snapshot

// Schema is bumped whenever the record layout changes; decoders reject
// mismatches instead of guessing.
const Schema uint16 = 2

// TypeRec mirrors one interned type descriptor.
type TypeRec struct {
	Kind    uint8  `msgpack:"k"`
	Elem    uint32 `msgpack:"e"`
	Payload uint32 `msgpack:"p"`
}

// FieldRec is a record/class field.
type FieldRec struct {
	Name string `msgpack:"n"`
	Type uint32 `msgpack:"t"`
}

// RecordRec mirrors record-type metadata.
type RecordRec struct {
	Name   string     `msgpack:"n"`
	Fields []FieldRec `msgpack:"f"`
}

// ClassRec mirrors class-type metadata.
type ClassRec struct {
	Name   string     `msgpack:"n"`
	Parent uint32     `msgpack:"p"`
	Fields []FieldRec `msgpack:"f"`
}

// ExprRec is the tagged-union encoding of one expression.
type ExprRec struct {
	Kind    uint8      `msgpack:"k"`
	Type    uint32     `msgpack:"t"`
	Var     uint32     `msgpack:"v,omitempty"`
	Formal  uint32     `msgpack:"f,omitempty"`
	TypeRef uint32     `msgpack:"r,omitempty"`
	Name    string     `msgpack:"n,omitempty"`
	Prim    uint8      `msgpack:"p,omitempty"`
	Fn      uint32     `msgpack:"fn,omitempty"`
	Field   string     `msgpack:"fl,omitempty"`
	Square  bool       `msgpack:"sq,omitempty"`
	Args    []*ExprRec `msgpack:"a,omitempty"`
	Names   []string   `msgpack:"an,omitempty"`
	Elems   []*ExprRec `msgpack:"el,omitempty"`
}

// StmtRec is the tagged-union encoding of one statement.
type StmtRec struct {
	Kind     uint8     `msgpack:"k"`
	Var      uint32    `msgpack:"v,omitempty"`
	Dst      *ExprRec  `msgpack:"d,omitempty"`
	Src      *ExprRec  `msgpack:"s,omitempty"`
	Value    *ExprRec  `msgpack:"vl,omitempty"`
	Cond     *ExprRec  `msgpack:"c,omitempty"`
	Index    *ExprRec  `msgpack:"i,omitempty"`
	Iter     *ExprRec  `msgpack:"it,omitempty"`
	Then     []StmtRec `msgpack:"th,omitempty"`
	Else     []StmtRec `msgpack:"e,omitempty"`
	Body     []StmtRec `msgpack:"b,omitempty"`
	Zippered bool      `msgpack:"z,omitempty"`
}

// FormalRec mirrors one formal.
type FormalRec struct {
	Name     string    `msgpack:"n"`
	Owner    uint32    `msgpack:"o"`
	Type     uint32    `msgpack:"t"`
	Intent   uint8     `msgpack:"i"`
	Flags    uint64    `msgpack:"fl"`
	Default  []StmtRec `msgpack:"d,omitempty"`
	HasDef   bool      `msgpack:"hd,omitempty"`
	TypeExpr []StmtRec `msgpack:"te,omitempty"`
	HasType  bool      `msgpack:"ht,omitempty"`
}

// VarRec mirrors one variable, literals included.
type VarRec struct {
	Name    string  `msgpack:"n"`
	Type    uint32  `msgpack:"t"`
	Flags   uint64  `msgpack:"fl"`
	HasImm  bool    `msgpack:"hi,omitempty"`
	ImmKind uint8   `msgpack:"ik,omitempty"`
	ImmInt  int64   `msgpack:"ii,omitempty"`
	ImmReal float64 `msgpack:"ir,omitempty"`
	ImmBool bool    `msgpack:"ib,omitempty"`
	ImmStr  string  `msgpack:"is,omitempty"`
}

// ScopeRec mirrors one visibility block.
type ScopeRec struct {
	Parent uint32 `msgpack:"p"`
	Owner  uint32 `msgpack:"o"`
}

// FuncRec mirrors one function.
type FuncRec struct {
	Name       string    `msgpack:"n"`
	CName      string    `msgpack:"cn"`
	Flags      uint64    `msgpack:"fl"`
	Formals    []uint32  `msgpack:"f"`
	ThisFormal uint32    `msgpack:"tf,omitempty"`
	ThisVar    uint32    `msgpack:"tv,omitempty"`
	RetType    uint32    `msgpack:"rt"`
	RetKind    uint8     `msgpack:"rk"`
	Throws     bool      `msgpack:"th,omitempty"`
	Body       []StmtRec `msgpack:"b,omitempty"`
	Where      *ExprRec  `msgpack:"w,omitempty"`
	Scope      uint32    `msgpack:"sc,omitempty"`
}

// GlobalsRec mirrors the module's distinguished symbols.
type GlobalsRec struct {
	MethodToken  uint32 `msgpack:"mt"`
	LeaderTag    uint32 `msgpack:"lt"`
	FollowerTag  uint32 `msgpack:"ft"`
	False        uint32 `msgpack:"f"`
	TypeDefault  uint32 `msgpack:"td"`
	ProgramScope uint32 `msgpack:"ps"`
}

// ModuleRec is the top-level snapshot payload.
type ModuleRec struct {
	Schema    uint16            `msgpack:"schema"`
	Files     []string          `msgpack:"files"`
	SeedTypes uint32            `msgpack:"seed"`
	Types     []TypeRec         `msgpack:"types"`
	Records   []RecordRec       `msgpack:"records,omitempty"`
	Classes   []ClassRec        `msgpack:"classes,omitempty"`
	Tuples    [][]uint32        `msgpack:"tuples,omitempty"`
	Funcs     []FuncRec         `msgpack:"funcs"`
	Formals   []FormalRec       `msgpack:"formals"`
	Vars      []VarRec          `msgpack:"vars"`
	Scopes    []ScopeRec        `msgpack:"scopes"`
	Defs      []uint32          `msgpack:"defs"`
	ParamMap  map[uint32]uint32 `msgpack:"params,omitempty"`
	Globals   GlobalsRec        `msgpack:"globals"`
}
