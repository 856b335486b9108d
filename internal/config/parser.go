package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	stagehanderrors "github.com/alexisbeaulieu97/stagehand/pkg/errors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// ParseSuite loads a suite file from disk, validates it, and returns the resulting model.
func ParseSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, stagehanderrors.NewParseError(path, 0, err)
	}
	return ParseSuiteBytes(path, data)
}

// ParseSuiteBytes decodes and validates a suite document. path is only used
// in error messages. Unknown keys are rejected.
func ParseSuiteBytes(path string, data []byte) (*Suite, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var suite Suite
	if err := decoder.Decode(&suite); err != nil {
		if errors.Is(err, io.EOF) {
			err = fmt.Errorf("document is empty")
		}
		return nil, stagehanderrors.NewParseError(path, extractLine(err), err)
	}

	if err := ValidateSuite(&suite); err != nil {
		return nil, err
	}

	return &suite, nil
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	_, scanErr := fmt.Sscanf(matches[1], "%d", &line)
	if scanErr != nil {
		return 0
	}

	return line
}
