package validation

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	xe "github.com/opst/solarscan/pkg/errors"
)

const (
	statusPrefix  = "Validation status: "
	missingPrefix = "Missing files: "
)

// FormatStatus renders content of the status file.
//
//	Validation status: False
//	Missing files: ['valid', 'data.yaml']
//
// The second line is written only when something is missing.
func FormatStatus(status bool, missing []string) string {
	b := new(strings.Builder)
	b.WriteString(statusPrefix)
	if status {
		b.WriteString("True")
	} else {
		b.WriteString("False")
	}
	b.WriteString("\n")

	if len(missing) != 0 {
		quoted := make([]string, len(missing))
		for i, m := range missing {
			quoted[i] = "'" + m + "'"
		}
		b.WriteString(missingPrefix + "[" + strings.Join(quoted, ", ") + "]\n")
	}
	return b.String()
}

// ReadStatusFile reads a status file written by DataValidation.
func ReadStatusFile(path string) (status bool, missing []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return false, nil, xe.Categorize(xe.ErrValidationIO, err)
	}
	defer f.Close()

	status, missing, err = parseStatus(bufio.NewScanner(f))
	if err != nil {
		return false, nil, xe.CategorizeWithNote(xe.ErrValidationIO, "reading "+path, err)
	}
	return status, missing, nil
}

func parseStatus(s *bufio.Scanner) (bool, []string, error) {
	if !s.Scan() {
		if err := s.Err(); err != nil {
			return false, nil, err
		}
		return false, nil, fmt.Errorf("status file is empty")
	}

	var status bool
	switch v := strings.TrimPrefix(strings.TrimSpace(s.Text()), statusPrefix); v {
	case "True":
		status = true
	case "False":
		status = false
	default:
		return false, nil, fmt.Errorf("unexpected status line: %q", s.Text())
	}

	missing := []string{}
	if s.Scan() {
		line := strings.TrimSpace(s.Text())
		list, ok := strings.CutPrefix(line, missingPrefix)
		if !ok {
			return false, nil, fmt.Errorf("unexpected line: %q", line)
		}
		list = strings.TrimSuffix(strings.TrimPrefix(list, "["), "]")
		for _, item := range strings.Split(list, ",") {
			item = strings.Trim(strings.TrimSpace(item), "'\"")
			if item != "" {
				missing = append(missing, item)
			}
		}
	}
	if err := s.Err(); err != nil {
		return false, nil, err
	}
	return status, missing, nil
}
