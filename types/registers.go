package types

import "fmt"

// RegisterID indexes one of the 64 register slots.
type RegisterID = int

// RegisterCount is the size of the register file.
const RegisterCount = 64

// Reserved register ids. Registers below RegWritable are maintained by the
// interpreter and are not writable from instruction operands.
const (
	// RegZero always contains zero.
	RegZero RegisterID = 0x00
	// RegOne always contains one.
	RegOne RegisterID = 0x01
	// RegOF holds the overflow/underflow of the last arithmetic operation.
	RegOF RegisterID = 0x02
	// RegPC is the program counter, the memory address of the current
	// instruction.
	RegPC RegisterID = 0x03
	// RegSSP points to the bottom of the writable stack area.
	RegSSP RegisterID = 0x04
	// RegSP points past the top of the writable stack area.
	RegSP RegisterID = 0x05
	// RegFP points to the beginning of the current call frame.
	RegFP RegisterID = 0x06
	// RegHP points below the current bottom of the heap.
	RegHP RegisterID = 0x07
	// RegErr holds error codes for particular operations.
	RegErr RegisterID = 0x08
	// RegGGas is the remaining gas globally.
	RegGGas RegisterID = 0x09
	// RegCGas is the remaining gas in the current context.
	RegCGas RegisterID = 0x0a
	// RegBal is the forwarded balance for the current context.
	RegBal RegisterID = 0x0b
	// RegIS points to the start of the currently executing code.
	RegIS RegisterID = 0x0c
	// RegRet is the return value or pointer.
	RegRet RegisterID = 0x0d
	// RegRetL is the return value length in bytes.
	RegRetL RegisterID = 0x0e
	// RegFlag is the flags register.
	RegFlag RegisterID = 0x0f

	// RegWritable is the smallest caller-writable register.
	RegWritable RegisterID = 0x10
)

// Flag register bits.
const (
	// FlagUnsafeMath suppresses ArithmeticError panics, setting $err instead.
	FlagUnsafeMath Word = 0x01
	// FlagWrapping suppresses ArithmeticOverflow panics, setting $of instead.
	FlagWrapping Word = 0x02
)

// RegisterRole names an interpreter-reserved register.
type RegisterRole uint8

const (
	RoleZero RegisterRole = iota
	RoleOne
	RoleOF
	RolePC
	RoleSSP
	RoleSP
	RoleFP
	RoleHP
	RoleErr
	RoleGGas
	RoleCGas
	RoleBal
	RoleIS
	RoleRet
	RoleRetL
	RoleFlag
)

var roleNames = [...]string{
	"$zero", "$one", "$of", "$pc", "$ssp", "$sp", "$fp", "$hp",
	"$err", "$ggas", "$cgas", "$bal", "$is", "$ret", "$retl", "$flag",
}

func (r RegisterRole) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return fmt.Sprintf("$reserved%02x", uint8(r))
}

// RoleOf converts a register id into its reserved role. The conversion is
// bounds checked; general purpose registers have no role.
func RoleOf(id RegisterID) (RegisterRole, bool) {
	if id < 0 || id >= RegWritable {
		return 0, false
	}
	return RegisterRole(id), true
}

// IsReserved reports whether id is interpreter-maintained and therefore not
// writable from instruction operands.
func IsReserved(id RegisterID) bool {
	return id < RegWritable
}
