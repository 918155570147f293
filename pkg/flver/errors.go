// Package flver reads and writes FLVER version 2 model files: the mesh
// container holding vertex buffers, buffer layouts, face sets, materials,
// bones and dummies.
package flver

import (
	"errors"
	"fmt"
)

// FLVER format errors.
var (
	ErrInvalidMagic         = errors.New("invalid FLVER magic: expected 'FLVER\\0'")
	ErrUnsupportedVersion   = errors.New("unsupported FLVER version")
	ErrClaim                = errors.New("pooled record not found or already claimed")
	ErrOrphaned             = errors.New("pooled records left unclaimed")
	ErrRepeatedSemantic     = errors.New("unexpected repeated layout semantic")
	ErrBufferIndex          = errors.New("unexpected vertex buffer index")
	ErrLayoutIndex          = errors.New("vertex buffer layout index out of range")
	ErrLayoutSize           = errors.New("vertex buffer size does not match its layout")
	ErrBufferRange          = errors.New("vertex buffer extends past the end of the file")
	ErrUnusedSlot           = errors.New("vertex attribute slot is not written by any buffer")
	ErrVertexCount          = errors.New("vertex buffers of one mesh disagree on vertex count")
	ErrUnknownLayoutType    = errors.New("unknown layout member type")
	ErrUnsupportedMember    = errors.New("unsupported layout member")
	ErrIndexRange           = errors.New("face index out of vertex range")
	ErrIndexSize            = errors.New("unsupported face set index size")
	ErrEdgeWriteUnsupported = errors.New("writing edge-compressed face sets is not supported")
	ErrNoDecompressor       = errors.New("edge-compressed face set needs a decompressor")
	ErrMaterialTextures     = errors.New("material texture range out of bounds")
	ErrGXListUnsupported    = errors.New("material GX lists are not supported")
	ErrBoneParent           = errors.New("bone parent chain is out of range or cyclic")
)

// ClaimError reports a pooled index that an owner tried to claim but that
// was either never in the pool or already taken by another owner.
type ClaimError struct {
	// Kind names the pool, such as "face set".
	Kind  string
	Index int
	// Owner names the record making the claim, such as "mesh 2".
	Owner string
}

func (err *ClaimError) Error() string {
	return fmt.Sprintf("%s: %s %d not found or already claimed", err.Owner, err.Kind, err.Index)
}

func (err *ClaimError) Unwrap() error {
	return ErrClaim
}

// SemanticError reports a layout member that cannot be decoded or encoded.
type SemanticError struct {
	Semantic LayoutSemantic
	Type     LayoutType
	Cause    error
}

func (err *SemanticError) Error() string {
	return fmt.Sprintf("%s as %s: %s", err.Semantic, err.Type, err.Cause.Error())
}

func (err *SemanticError) Unwrap() error {
	return err.Cause
}
