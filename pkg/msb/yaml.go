package msb

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// paramDocument is the YAML form of a ModelParam.
type paramDocument struct {
	Version int32           `yaml:"version"`
	Models  []modelDocument `yaml:"models"`
}

type modelDocument struct {
	Type          string            `yaml:"type"`
	Name          string            `yaml:"name"`
	SibPath       string            `yaml:"sib_path"`
	Unk1C         int32             `yaml:"unk1c,omitempty"`
	InstanceCount int32             `yaml:"instance_count"`
	MapPiece      *mapPieceDocument `yaml:"map_piece,omitempty"`
}

type mapPieceDocument struct {
	UnkT00 bool    `yaml:"unk_t00"`
	UnkT01 bool    `yaml:"unk_t01"`
	UnkT02 bool    `yaml:"unk_t02"`
	UnkT04 float32 `yaml:"unk_t04"`
	UnkT08 float32 `yaml:"unk_t08"`
	UnkT0C float32 `yaml:"unk_t0c"`
	UnkT10 float32 `yaml:"unk_t10"`
	UnkT14 float32 `yaml:"unk_t14"`
	UnkT18 float32 `yaml:"unk_t18"`
}

// ExportYAML writes the table as YAML, models in on-disk order.
func (p *ModelParam) ExportYAML(w io.Writer, indent int) error {
	doc := paramDocument{Version: p.Version}
	for _, m := range p.Entries() {
		b := m.Base()
		md := modelDocument{
			Type:          m.Type().String(),
			Name:          b.Name,
			SibPath:       b.SibPath,
			Unk1C:         b.Unk1C,
			InstanceCount: b.instanceCount,
		}
		if mp, ok := m.(*MapPiece); ok {
			md.MapPiece = &mapPieceDocument{
				UnkT00: mp.UnkT00,
				UnkT01: mp.UnkT01,
				UnkT02: mp.UnkT02,
				UnkT04: mp.UnkT04,
				UnkT08: mp.UnkT08,
				UnkT0C: mp.UnkT0C,
				UnkT10: mp.UnkT10,
				UnkT14: mp.UnkT14,
				UnkT18: mp.UnkT18,
			}
		}
		doc.Models = append(doc.Models, md)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(indent)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encoding models: %w", err)
	}
	return enc.Close()
}

// ImportYAML reads a table written by ExportYAML. Models are grouped by
// variant as they are added, so the on-disk order follows the variant order
// rather than the document order.
func ImportYAML(r io.Reader) (*ModelParam, error) {
	var doc paramDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding models: %w", err)
	}

	// A missing version takes the default; any other cannot be read back.
	if doc.Version != 0 && doc.Version != ModelParamVersion {
		return nil, fmt.Errorf("%w: %d, want %d", ErrParamVersion, doc.Version, ModelParamVersion)
	}
	p := NewModelParam()
	for i, md := range doc.Models {
		tag, ok := parseModelType(md.Type)
		if !ok {
			return nil, fmt.Errorf("model %d: %w: %q", i, ErrUnknownModelType, md.Type)
		}
		m, _ := newModel(tag)
		b := m.Base()
		b.Name = md.Name
		b.SibPath = md.SibPath
		b.Unk1C = md.Unk1C
		b.instanceCount = md.InstanceCount

		if mp, ok := m.(*MapPiece); ok {
			if d := md.MapPiece; d != nil {
				mp.UnkT00, mp.UnkT01, mp.UnkT02 = d.UnkT00, d.UnkT01, d.UnkT02
				mp.UnkT04, mp.UnkT08, mp.UnkT0C = d.UnkT04, d.UnkT08, d.UnkT0C
				mp.UnkT10, mp.UnkT14, mp.UnkT18 = d.UnkT10, d.UnkT14, d.UnkT18
			}
		} else if md.MapPiece != nil {
			return nil, fmt.Errorf("model %d: %w: %s %q has map_piece data", i, ErrTypeDataOffset, tag, md.Name)
		}
		p.Add(m)
	}
	return p, nil
}
