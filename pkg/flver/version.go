package flver

import (
	"fmt"
	"slices"
)

// Version is the FLVER format version stored in the header, such as
// 0x2001A.
type Version int32

// Known FLVER2 versions.
const (
	VersionDemonsSouls  Version = 0x20005
	VersionDarkSouls1   Version = 0x2000C
	VersionDarkSouls2   Version = 0x20010
	VersionDarkSouls3   Version = 0x20014
	VersionBloodborne   Version = 0x20013
	VersionSekiro       Version = 0x2001A
	VersionFixedUVScale Version = 0x2000F
	VersionIndexSize    Version = 0x20013
	VersionMeshBoxExtra Version = 0x2001A
)

var supportedVersions = []Version{
	0x20005, 0x20007, 0x20009, 0x2000B, 0x2000C, 0x2000D, 0x2000E,
	0x2000F, 0x20010, 0x20013, 0x20014, 0x20016, 0x2001A,
}

// Supported reports whether the codec knows how to read v.
func (v Version) Supported() bool {
	return slices.Contains(supportedVersions, v)
}

// AtLeast returns true if v >= other.
func (v Version) AtLeast(other Version) bool {
	return v >= other
}

// String returns the version in hex, e.g. "0x2001A".
func (v Version) String() string {
	return fmt.Sprintf("0x%X", int32(v))
}

// uvFactor is the fixed-point scale of short UV coordinates.
func (v Version) uvFactor() float32 {
	if v.AtLeast(VersionFixedUVScale) {
		return 2048
	}
	return 1024
}

// faceSetHeaderSize is the on-disk size of one face set header.
func (v Version) faceSetHeaderSize() int {
	if v > VersionDemonsSouls {
		return 0x20
	}
	return 0x10
}
