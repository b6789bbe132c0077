// Package dosfs opens files with DOS open semantics on top of an afero
// filesystem and reports file times as walltime values.
package dosfs

import (
	"errors"
	"fmt"
	"os"
)

// INT 21h file functions.
const (
	FuncCreate       uint8 = 0x3C
	FuncOpen         uint8 = 0x3D
	FuncCreateNew    uint8 = 0x5B
	FuncExtendedOpen uint8 = 0x6C
)

// Access modes passed in AL (3Dh) or BL (6Ch).
const (
	AccessRead      uint8 = 0
	AccessWrite     uint8 = 1
	AccessReadWrite uint8 = 2
)

// Extended open action flags passed in DL (6Ch).
const (
	ActionOpen    uint8 = 0x01
	ActionReplace uint8 = 0x02
	ActionCreate  uint8 = 0x10
)

// ErrInvalidOptions is returned for contradictory option sets.
var ErrInvalidOptions = errors.New("dosfs: invalid open options")

// Call describes the DOS request an OpenOptions set translates to.
type Call struct {
	Function uint8
	Access   uint8
	Action   uint8 // FuncExtendedOpen only
	SeekEnd  bool  // append: seek to end (42h) after opening
}

// OpenOptions configures how a file is opened. Build one with
// NewOpenOptions and chain the setters.
type OpenOptions struct {
	read      bool
	write     bool
	append    bool
	truncate  bool
	create    bool
	createNew bool
}

func NewOpenOptions() *OpenOptions { return &OpenOptions{} }

func (o *OpenOptions) Read(v bool) *OpenOptions      { o.read = v; return o }
func (o *OpenOptions) Write(v bool) *OpenOptions     { o.write = v; return o }
func (o *OpenOptions) Append(v bool) *OpenOptions    { o.append = v; return o }
func (o *OpenOptions) Truncate(v bool) *OpenOptions  { o.truncate = v; return o }
func (o *OpenOptions) Create(v bool) *OpenOptions    { o.create = v; return o }
func (o *OpenOptions) CreateNew(v bool) *OpenOptions { o.createNew = v; return o }

func (o *OpenOptions) validate() error {
	writable := o.write || o.append
	switch {
	case !o.read && !writable:
		return fmt.Errorf("%w: no access mode", ErrInvalidOptions)
	case !writable && (o.truncate || o.create || o.createNew):
		return fmt.Errorf("%w: create or truncate without write access", ErrInvalidOptions)
	case o.append && o.truncate && !o.createNew:
		return fmt.Errorf("%w: append with truncate", ErrInvalidOptions)
	}
	return nil
}

func (o *OpenOptions) access() uint8 {
	writable := o.write || o.append
	switch {
	case o.read && writable:
		return AccessReadWrite
	case writable:
		return AccessWrite
	}
	return AccessRead
}

// Request returns the DOS call that implements o.
func (o *OpenOptions) Request() (Call, error) {
	if err := o.validate(); err != nil {
		return Call{}, err
	}

	call := Call{Access: o.access(), SeekEnd: o.append}
	switch {
	case o.createNew:
		call.Function = FuncCreateNew
	case o.create && o.truncate:
		call.Function = FuncCreate
	case o.create:
		call.Function = FuncExtendedOpen
		call.Action = ActionOpen | ActionCreate
	case o.truncate:
		call.Function = FuncExtendedOpen
		call.Action = ActionReplace
	default:
		call.Function = FuncOpen
	}
	return call, nil
}

// flags maps o to host open flags.
func (o *OpenOptions) flags() (int, error) {
	if err := o.validate(); err != nil {
		return 0, err
	}

	var flag int
	switch o.access() {
	case AccessReadWrite:
		flag = os.O_RDWR
	case AccessWrite:
		flag = os.O_WRONLY
	default:
		flag = os.O_RDONLY
	}
	if o.append {
		flag |= os.O_APPEND
	}
	switch {
	case o.createNew:
		flag |= os.O_CREATE | os.O_EXCL
	case o.create:
		flag |= os.O_CREATE
	}
	if o.truncate && !o.createNew {
		flag |= os.O_TRUNC
	}
	return flag, nil
}
