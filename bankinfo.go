package sf2

import (
	"fmt"
)

// BankDescription is a serializable summary of a loaded bank, used by
// inspection tooling (cmd/sf2dump marshals it as YAML).
type BankDescription struct {
	Name        string `yaml:"name,omitempty"`
	SoundEngine string `yaml:"sound_engine,omitempty"`
	Date        string `yaml:"date,omitempty"`
	Engineers   string `yaml:"engineers,omitempty"`
	Product     string `yaml:"product,omitempty"`
	Copyright   string `yaml:"copyright,omitempty"`
	Comments    string `yaml:"comments,omitempty"`
	Tools       string `yaml:"tools,omitempty"`

	Version string `yaml:"version"`

	Samples int `yaml:"samples"`

	Banks []BankInfo `yaml:"banks"`
}

type BankInfo struct {
	Num     uint16       `yaml:"bank"`
	Presets []PresetInfo `yaml:"presets"`
}

type PresetInfo struct {
	Program     uint16   `yaml:"program"`
	Name        string   `yaml:"name"`
	Instruments []string `yaml:"instruments,flow"`
}

// Describe summarizes the bank model for inspection output.
func Describe(sf *SoundFont) BankDescription {
	info := sf.Info()
	d := BankDescription{
		Name:        info.Name,
		SoundEngine: info.SoundEngine,
		Date:        info.Date,
		Engineers:   info.Engineers,
		Product:     info.Product,
		Copyright:   info.Copyright,
		Comments:    info.Comments,
		Tools:       info.Tools,
		Version:     versionString(sf),
		Samples:     len(sf.Samples()),
	}
	for _, b := range sf.Banks() {
		bi := BankInfo{Num: b.Num}
		for _, p := range b.Presets {
			pi := PresetInfo{
				Program: p.Program,
				Name:    p.Name,
			}
			for _, layer := range p.Layers {
				pi.Instruments = append(pi.Instruments, layer.Instrument.Name)
			}
			bi.Presets = append(bi.Presets, pi)
		}
		d.Banks = append(d.Banks, bi)
	}
	return d
}

func versionString(sf *SoundFont) string {
	v := sf.Version()
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}
