// Package gate decides whether a run may start.
package gate

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

const DefaultKey = "maintenance"

// Maintenance reads a maintenance flag from a deployment config file. PHP
// files (ownCloud's config.php) are scanned for a `'key' => bool` entry;
// anything else is handed to viper by extension.
type Maintenance struct {
	Path   string
	Key    string
	Logger *slog.Logger
}

// InMaintenance reports the flag. A missing or unreadable file is logged
// and treated as not in maintenance; a file that cannot be parsed is an
// error.
func (m Maintenance) InMaintenance(_ context.Context) (bool, error) {
	key := m.Key
	if key == "" {
		key = DefaultKey
	}
	if m.Path == "" {
		return false, nil
	}

	data, err := os.ReadFile(m.Path)
	if err != nil {
		m.logger().Warn("maintenance config not readable, assuming site is online",
			slog.String("path", m.Path), slog.String("error", err.Error()))
		return false, nil
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(m.Path)), ".")
	if ext == "php" {
		return phpFlag(data, key)
	}
	return viperFlag(data, ext, key)
}

func (m Maintenance) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

var (
	phpBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	// A line comment starts a line or follows whitespace, so "http://" in a
	// quoted value is left alone.
	phpLineComment = regexp.MustCompile(`(?m)(^|\s)(//|#).*$`)
)

func phpFlag(data []byte, key string) (bool, error) {
	data = phpBlockComment.ReplaceAll(data, nil)
	data = phpLineComment.ReplaceAll(data, []byte("$1"))

	re := regexp.MustCompile(`['"]` + regexp.QuoteMeta(key) + `['"]\s*=>\s*([^,\s)]+)`)
	match := re.FindSubmatch(data)
	if match == nil {
		return false, nil
	}
	switch strings.ToLower(string(match[1])) {
	case "true", "1":
		return true, nil
	case "false", "0", "null":
		return false, nil
	default:
		return false, fmt.Errorf("unsupported value %q for %q", match[1], key)
	}
}

func viperFlag(data []byte, ext, key string) (bool, error) {
	v := viper.New()
	v.SetConfigType(ext)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return false, fmt.Errorf("failed to parse maintenance config: %w", err)
	}
	if !v.IsSet(key) {
		return false, nil
	}
	return v.GetBool(key), nil
}
