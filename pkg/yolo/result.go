package yolo

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Collect reads what a prediction left in project/name for the source image.
//
// Detections are counted from labels/<stem>.txt, one line per object.
// When the label file is absent, nothing has been detected.
func Collect(project, name, source string) (Prediction, error) {
	runDir := filepath.Join(project, name)
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	detections, err := countLabels(filepath.Join(runDir, "labels", stem+".txt"))
	if err != nil {
		return Prediction{}, err
	}

	entries, err := os.ReadDir(runDir)
	if err != nil {
		return Prediction{}, err
	}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())) != stem {
			continue
		}
		return Prediction{
			Detections:     detections,
			AnnotatedImage: filepath.Join(runDir, e.Name()),
		}, nil
	}
	return Prediction{}, fmt.Errorf("%w: %s in %s", ErrNoAnnotatedImage, stem, runDir)
}

func countLabels(path string) (int, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	s := bufio.NewScanner(f)
	for s.Scan() {
		if strings.TrimSpace(s.Text()) != "" {
			n += 1
		}
	}
	return n, s.Err()
}
