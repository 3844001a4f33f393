package payloadfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"formcfg/internal/errs"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the decoder from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported payload file extension %q", filepath.Ext(path))
	}
}

// Load decodes the payload at path into out. A path of "-" reads stdin as JSON.
func Load(path string, out any) error {
	if strings.TrimSpace(path) == "-" {
		return Decode(os.Stdin, FormatJSON, out)
	}

	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return errs.Wrapf(err, "open payload file %s", path)
	}
	defer f.Close()

	if err := Decode(f, format, out); err != nil {
		return errs.Wrapf(err, "decode payload file %s", path)
	}
	return nil
}

func Decode(r io.Reader, format Format, out any) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return errs.Wrap(err, "read payload")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fmt.Errorf("payload is empty")
	}

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		return dec.Decode(out)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		return dec.Decode(out)
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		return dec.Decode(out)
	default:
		return fmt.Errorf("unsupported payload format %q", format)
	}
}
