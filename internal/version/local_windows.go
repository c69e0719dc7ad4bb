//go:build windows

package version

import (
	"fmt"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/windows"
)

const executableName = "MeineApp.exe"

var versionDLL = windows.NewLazySystemDLL("version.dll")

var (
	procGetFileVersionInfoSizeW = versionDLL.NewProc("GetFileVersionInfoSizeW")
	procGetFileVersionInfoW     = versionDLL.NewProc("GetFileVersionInfoW")
	procVerQueryValueW          = versionDLL.NewProc("VerQueryValueW")
)

// vsFixedFileInfo mirrors the Win32 VS_FIXEDFILEINFO struct layout for
// the fields this oracle needs.
type vsFixedFileInfo struct {
	Signature        uint32
	StrucVersion     uint32
	FileVersionMS    uint32
	FileVersionLS    uint32
	ProductVersionMS uint32
	ProductVersionLS uint32
	_                [8]uint32
}

// Local reads the four-part version stamped on slotDir's executable's
// PE VERSIONINFO resource. If the file is absent or the resource is
// unparsable, it returns UnknownVersion per spec §3/§4.4.
func Local(slotDir string) string {
	path := filepath.Join(slotDir, executableName)
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return UnknownVersion
	}

	size, _, _ := procGetFileVersionInfoSizeW.Call(uintptr(unsafe.Pointer(pathPtr)), 0)
	if size == 0 {
		return UnknownVersion
	}

	buf := make([]byte, size)
	ret, _, _ := procGetFileVersionInfoW.Call(
		uintptr(unsafe.Pointer(pathPtr)),
		0,
		uintptr(size),
		uintptr(unsafe.Pointer(&buf[0])),
	)
	if ret == 0 {
		return UnknownVersion
	}

	var fixedInfoPtr uintptr
	var fixedInfoLen uint32
	rootPtr, err := windows.UTF16PtrFromString(`\`)
	if err != nil {
		return UnknownVersion
	}
	ret, _, _ = procVerQueryValueW.Call(
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(rootPtr)),
		uintptr(unsafe.Pointer(&fixedInfoPtr)),
		uintptr(unsafe.Pointer(&fixedInfoLen)),
	)
	if ret == 0 || fixedInfoPtr == 0 {
		return UnknownVersion
	}

	info := (*vsFixedFileInfo)(unsafe.Pointer(fixedInfoPtr))
	return fmt.Sprintf("%d.%d.%d.%d",
		info.FileVersionMS>>16, info.FileVersionMS&0xffff,
		info.FileVersionLS>>16, info.FileVersionLS&0xffff,
	)
}
