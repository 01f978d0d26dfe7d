package loader

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables overriding configuration.
//
// Nested keys are separated by "__", for example
// SOLARSCAN_PIPELINE__MODEL_TRAINER__EPOCHS for pipeline.model_trainer.epochs .
const EnvPrefix = "SOLARSCAN_"

// File returns a provider reading a yaml file, or nil if path is empty.
func File(path string) koanf.Provider {
	if path == "" {
		return nil
	}
	return file.Provider(path)
}

// Load overlays yaml documents from providers and then environment variables
// onto `into`, which should be filled with defaults.
//
// # Args
//
// - into: pointer to configuration struct, tagged with `koanf:"..."`.
//
// - root: key path of the section to be read. "" for the whole document.
//
// - envPrefix: prefix of environment variables. "" disables environment overlay.
//
// - providers: yaml sources. nil providers are skipped.
func Load[T any](into *T, root string, envPrefix string, providers ...koanf.Provider) error {
	k := koanf.New(".")
	parser := yaml.Parser()

	for _, p := range providers {
		if p == nil {
			continue
		}
		if err := k.Load(p, parser); err != nil {
			return err
		}
	}

	if envPrefix != "" {
		if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
			return strings.ReplaceAll(
				strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".",
			)
		}), nil); err != nil {
			return err
		}
	}

	return k.Unmarshal(root, into)
}

// Dump renders v as a yaml document using its koanf tags.
func Dump(v any) ([]byte, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(v, "koanf"), nil); err != nil {
		return nil, err
	}
	return k.Marshal(yaml.Parser())
}
