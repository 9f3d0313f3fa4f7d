package generator

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dhamidi/plugintools/converter"
	"github.com/dhamidi/plugintools/extractor"
)

// YAMLFileName is the file WriteYAML output is stored in.
const YAMLFileName = "plugin-descriptor.yaml"

// WriteYAML dumps pd with goals sorted by name and plain text descriptions.
func WriteYAML(w io.Writer, pd *extractor.PluginDescriptor) error {
	out := *pd
	out.Description = converter.PlainText(pd.Description)
	out.Mojos = nil
	for _, m := range sortedMojos(pd.Mojos) {
		mc := *m
		mc.Description = converter.PlainText(m.Description)
		mc.Deprecated = converter.PlainText(m.Deprecated)
		mc.Parameters = nil
		for _, p := range sortedParameters(m.Parameters) {
			pc := *p
			pc.Description = converter.PlainText(p.Description)
			pc.Deprecated = converter.PlainText(p.Deprecated)
			mc.Parameters = append(mc.Parameters, &pc)
		}
		out.Mojos = append(out.Mojos, &mc)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return err
	}
	return enc.Close()
}
