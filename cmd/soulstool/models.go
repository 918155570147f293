package main

import (
	"flag"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/soulsfmt/pkg/msb"
)

func cmdExportModels(fs *flag.FlagSet) func(a *app) error {
	return func(a *app) error {
		if len(a.args) < 1 {
			return usageError("export-models <file.param> [out.yaml]")
		}

		p, err := msb.ParseModelParamFile(a.args[0], &msb.Options{Logger: a.log.Named("msb")})
		if err != nil {
			return err
		}

		if len(a.args) < 2 {
			return p.ExportYAML(a.stdout, a.cfg.Export.Indent)
		}
		out, err := os.Create(a.args[1])
		if err != nil {
			return err
		}
		if err := p.ExportYAML(out, a.cfg.Export.Indent); err != nil {
			out.Close()
			return err
		}
		a.log.Info("exported models", zap.Int("count", p.Len()), zap.String("path", a.args[1]))
		return out.Close()
	}
}

func cmdImportModels(fs *flag.FlagSet) func(a *app) error {
	parts := fs.String("parts", "", "YAML list of part model names used to recount instances")
	return func(a *app) error {
		if len(a.args) < 2 {
			return usageError("import-models [-parts parts.yaml] <in.yaml> <file.param>")
		}

		in, err := os.Open(a.args[0])
		if err != nil {
			return err
		}
		defer in.Close()

		p, err := msb.ImportYAML(in)
		if err != nil {
			return err
		}

		if *parts != "" {
			names, err := readPartModels(*parts)
			if err != nil {
				return err
			}
			p.CountInstances(names)
		}

		if err := p.WriteFile(a.args[1]); err != nil {
			return err
		}
		a.log.Info("imported models", zap.Int("count", p.Len()), zap.String("path", a.args[1]))
		return nil
	}
}

// readPartModels reads a YAML sequence of model names, one per scene part.
func readPartModels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var names []string
	if err := yaml.Unmarshal(data, &names); err != nil {
		return nil, err
	}
	return names, nil
}

func cmdConfig(fs *flag.FlagSet) func(a *app) error {
	save := fs.String("save", "", `Save the effective config to this path ("user" for the config dir)`)
	return func(a *app) error {
		switch *save {
		case "":
			enc := yaml.NewEncoder(a.stdout)
			enc.SetIndent(a.cfg.Export.Indent)
			if err := enc.Encode(a.cfg); err != nil {
				return err
			}
			return enc.Close()
		case "user":
			return a.cfg.Save()
		default:
			return a.cfg.SaveTo(*save)
		}
	}
}
