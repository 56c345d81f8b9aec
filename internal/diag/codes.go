package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Resolution-stage diagnostics (wrapper synthesis and friends).
	ResInfo                Code = 4000
	ResCastUnresolved      Code = 4001
	ResPromotionNote       Code = 4002
	ResCoercionDepth       Code = 4003
	ResSnapshotLoad        Code = 4004
	ResSnapshotUnsupported Code = 4005

	// Driver and project configuration.
	DrvInfo          Code = 7000
	DrvConfigInvalid Code = 7001
	DrvModuleBroken  Code = 7002
)

func (c Code) String() string {
	switch c {
	case UnknownCode:
		return "CRS0000"
	case ResInfo:
		return "CRS4000"
	case ResCastUnresolved:
		return "CRS4001"
	case ResPromotionNote:
		return "CRS4002"
	case ResCoercionDepth:
		return "CRS4003"
	case ResSnapshotLoad:
		return "CRS4004"
	case ResSnapshotUnsupported:
		return "CRS4005"
	case DrvInfo:
		return "CRS7000"
	case DrvConfigInvalid:
		return "CRS7001"
	case DrvModuleBroken:
		return "CRS7002"
	}
	return fmt.Sprintf("CRS%04d", uint16(c))
}
