package ir

// FuncID identifies a function in the module arena. Zero is NoFuncID.
type FuncID uint32

// NoFuncID is the invalid function sentinel.
const NoFuncID FuncID = 0

// IsValid reports whether the ID refers to an arena entry.
func (id FuncID) IsValid() bool { return id != NoFuncID }

// FormalID identifies a formal in the module arena. Zero is NoFormalID.
type FormalID uint32

// NoFormalID is the invalid formal sentinel.
const NoFormalID FormalID = 0

func (id FormalID) IsValid() bool { return id != NoFormalID }

// VarID identifies a variable or temporary in the module arena.
type VarID uint32

// NoVarID is the invalid variable sentinel.
const NoVarID VarID = 0

func (id VarID) IsValid() bool { return id != NoVarID }

// ScopeID identifies a lexical visibility block.
type ScopeID uint32

// NoScopeID is the invalid scope sentinel.
const NoScopeID ScopeID = 0

func (id ScopeID) IsValid() bool { return id != NoScopeID }
