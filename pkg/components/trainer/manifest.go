package trainer

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	xe "github.com/opst/solarscan/pkg/errors"
	kio "github.com/opst/solarscan/pkg/io"
	"github.com/opst/solarscan/pkg/utils/yamler"
	"gopkg.in/yaml.v3"
)

const (
	// name of the manifest in the dataset
	SourceManifest = "data.yaml"

	// name of the manifest rewritten for training
	CustomManifest = "custom_data.yaml"
)

// PrepareCustomManifest writes the training manifest into the trainer directory,
// and returns its path.
//
// train, val and test are pointed to absolute paths of images in the feature store.
// nc and names are taken from the dataset manifest as they are.
func (mt *ModelTrainer) PrepareCustomManifest() (string, error) {
	featureStore, err := filepath.Abs(mt.featureStorePath)
	if err != nil {
		return "", xe.Categorize(xe.ErrTraining, err)
	}

	src := filepath.Join(featureStore, SourceManifest)
	content, err := os.ReadFile(src)
	if err != nil {
		return "", xe.CategorizeWithNote(xe.ErrConfig, "reading "+src, err)
	}

	nc, names, err := classesOf(content)
	if err != nil {
		return "", xe.CategorizeWithNote(xe.ErrConfig, "parsing "+src, err)
	}

	manifest := yamler.Map(
		yamler.Entry(
			yamler.Text("train", yamler.WithHeadComment("generated from "+src)),
			yamler.Str(filepath.Join(featureStore, "train", "images")),
		),
		yamler.Entry(yamler.Text("val"), yamler.Str(filepath.Join(featureStore, "valid", "images"))),
		yamler.Entry(yamler.Text("test"), yamler.Str(filepath.Join(featureStore, "test", "images"))),
		yamler.Entry(yamler.Text("nc"), nc),
		yamler.Entry(yamler.Text("names"), names),
	)

	dir, err := filepath.Abs(mt.config.ModelTrainerDir)
	if err != nil {
		return "", xe.Categorize(xe.ErrTraining, err)
	}
	dest := filepath.Join(dir, CustomManifest)
	f, err := kio.CreateAll(dest, 0644, 0755)
	if err != nil {
		return "", xe.CategorizeWithNote(xe.ErrTraining, "writing "+dest, err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(manifest); err != nil {
		return "", xe.CategorizeWithNote(xe.ErrTraining, "writing "+dest, err)
	}
	if err := enc.Close(); err != nil {
		return "", xe.CategorizeWithNote(xe.ErrTraining, "writing "+dest, err)
	}
	if err := f.Close(); err != nil {
		return "", xe.CategorizeWithNote(xe.ErrTraining, "writing "+dest, err)
	}

	mt.logger.Infof("training manifest is written: %s", dest)
	return dest, nil
}

// classesOf extracts nc and names nodes from a dataset manifest.
func classesOf(content []byte) (nc *yaml.Node, names *yaml.Node, err error) {
	doc := yaml.Node{}
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("manifest should be a mapping")
	}
	root := doc.Content[0]

	for i := 0; i+1 < len(root.Content); i += 2 {
		switch root.Content[i].Value {
		case "nc":
			nc = root.Content[i+1]
		case "names":
			names = root.Content[i+1]
		}
	}

	if nc == nil {
		return nil, nil, fmt.Errorf("nc is not found")
	}
	if names == nil {
		return nil, nil, fmt.Errorf("names is not found")
	}

	n, err := strconv.Atoi(nc.Value)
	if nc.Kind != yaml.ScalarNode || err != nil {
		return nil, nil, fmt.Errorf("nc should be an integer: %q", nc.Value)
	}

	var count int
	switch names.Kind {
	case yaml.SequenceNode:
		count = len(names.Content)
	case yaml.MappingNode:
		count = len(names.Content) / 2
	default:
		return nil, nil, fmt.Errorf("names should be a list or a mapping")
	}
	if n != count {
		return nil, nil, fmt.Errorf("nc (%d) does not match number of names (%d)", n, count)
	}

	return nc, names, nil
}
