package flver

import (
	"fmt"
	"slices"

	"github.com/Faultbox/soulsfmt/pkg/binio"
	"github.com/Faultbox/soulsfmt/pkg/edge"
)

const (
	edgeGroupHeaderSize  = 0x10
	edgeMemberHeaderSize = 0x40

	// edgeScratchPerIndex sizes the decompression buffer per output index.
	// No header field gives the true decompressed size.
	edgeScratchPerIndex = 32
)

// EdgeGroup is a face set's index data in edge-compressed form. Its
// members decompress to consecutive runs of a triangle list.
type EdgeGroup struct {
	Unk02   int16
	Unk04   int32
	Unk0C   int32
	Members []EdgeMember
}

// EdgeMember is one compressed run of indices.
type EdgeMember struct {
	// Data is the compressed payload, copied out of the file.
	Data []byte
	// BaseIndex is added to every decompressed value.
	BaseIndex uint16
	// IndexCount is the number of indices the member decompresses to.
	IndexCount uint16

	Unk10 int16
	Unk12 int16
	Unk16 int16
	Unk18 int32
	Unk1C int32
	Unk30 [5]int16
}

// readEdgeGroup reads a group starting at the reader's position. Member
// data offsets are relative to the group start.
func readEdgeGroup(r *binio.Reader) (*EdgeGroup, error) {
	start := r.Position()
	g := &EdgeGroup{}
	memberCount := r.Int16()
	g.Unk02 = r.Int16()
	g.Unk04 = r.Int32()
	r.AssertInt32(0)
	g.Unk0C = r.Int32()
	if err := r.Err(); err != nil {
		return nil, err
	}
	if memberCount < 0 {
		return nil, fmt.Errorf("edge group: negative member count %d", memberCount)
	}

	g.Members = make([]EdgeMember, 0, memberCount)
	for i := 0; i < int(memberCount); i++ {
		var m EdgeMember
		dataLength := r.Int32()
		dataOffset := r.Int32()
		r.AssertInt32(0)
		r.AssertInt32(0)
		m.Unk10 = r.Int16()
		m.Unk12 = r.Int16()
		m.BaseIndex = r.Uint16()
		m.Unk16 = r.Int16()
		m.Unk18 = r.Int32()
		m.Unk1C = r.Int32()
		for j := 0; j < 4; j++ {
			r.AssertInt32(0)
		}
		for j := range m.Unk30 {
			m.Unk30[j] = r.Int16()
		}
		m.IndexCount = r.Uint16()
		r.AssertInt32(-1)
		m.Data = r.GetBytes(start+int(dataOffset), int(dataLength))
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("edge member %d: %w", i, err)
		}
		g.Members = append(g.Members, m)
	}
	return g, nil
}

// IndexCount returns the number of indices the group decompresses to.
func (g *EdgeGroup) IndexCount() int {
	n := 0
	for _, m := range g.Members {
		n += int(m.IndexCount)
	}
	return n
}

// Decompress runs d over every member in order and returns the
// concatenated triangle list, each value offset by its member's base index.
func (g *EdgeGroup) Decompress(d edge.Decompressor) ([]int, error) {
	if d == nil {
		return nil, ErrNoDecompressor
	}
	indices := make([]int, 0, g.IndexCount())
	for i, m := range g.Members {
		count := int(m.IndexCount)
		buf := make([]byte, max(count*edgeScratchPerIndex, len(m.Data)))
		copy(buf, m.Data)
		if err := d.DecompressIndices(count, buf); err != nil {
			return nil, fmt.Errorf("edge member %d: %w", i, err)
		}
		if err := edge.CheckBuffer(count, buf); err != nil {
			return nil, fmt.Errorf("edge member %d: %w", i, err)
		}
		// Decompressed values are always little-endian.
		for _, v := range binio.NewReader(buf).Uint16s(count) {
			indices = append(indices, int(m.BaseIndex)+int(v))
		}
	}
	return indices, nil
}

// Clone returns a deep copy of g.
func (g *EdgeGroup) Clone() *EdgeGroup {
	c := *g
	c.Members = make([]EdgeMember, len(g.Members))
	for i, m := range g.Members {
		m.Data = slices.Clone(m.Data)
		c.Members[i] = m
	}
	return &c
}
