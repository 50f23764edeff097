package gate_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"group-renamer/internal/engine"
	"group-renamer/internal/gate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ownCloudConfig = `<?php
$CONFIG = array (
  'instanceid' => 'oc8f2a1b',
  'datadirectory' => '/var/www/owncloud/data',
  'dbtype' => 'mysql',
  'maintenance' => %s,
  'theme' => '',
);
`

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestMaintenance(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		key     string
		want    bool
		wantErr bool
	}{
		{name: "php on", file: "config.php", content: fmt.Sprintf(ownCloudConfig, "true"), want: true},
		{name: "php off", file: "config.php", content: fmt.Sprintf(ownCloudConfig, "false")},
		{name: "php upper case", file: "config.php", content: fmt.Sprintf(ownCloudConfig, "TRUE"), want: true},
		{name: "php key absent", file: "config.php", content: "<?php\n$CONFIG = array ('dbtype' => 'mysql');\n"},
		{name: "php double quotes", file: "config.php", content: "<?php $CONFIG = array(\"maintenance\"=>true);", want: true},
		{name: "php unsupported value", file: "config.php", content: fmt.Sprintf(ownCloudConfig, "'yes'"), wantErr: true},
		{name: "php custom key", file: "config.php", content: "<?php $CONFIG = array('readonly' => true, 'maintenance' => false);", key: "readonly", want: true},
		{name: "php commented line ignored", file: "config.php", content: "<?php\n$CONFIG = array (\n  // 'maintenance' => true,\n  'maintenance' => false,\n);\n"},
		{name: "php hash comment ignored", file: "config.php", content: "<?php\n$CONFIG = array (\n  # 'maintenance' => true,\n  'dbtype' => 'mysql',\n);\n"},
		{name: "php block comment ignored", file: "config.php", content: "<?php\n/*\n  'maintenance' => true,\n*/\n$CONFIG = array ('maintenance' => false);\n"},
		{name: "php trailing comment", file: "config.php", content: "<?php\n$CONFIG = array (\n  'overwrite.cli.url' => 'http://localhost',\n  'maintenance' => true, // until the migration ends\n);\n", want: true},
		{name: "yaml on", file: "site.yaml", content: "maintenance: true\n", want: true},
		{name: "yaml nested key", file: "site.yaml", content: "site:\n  maintenance: true\n", key: "site.maintenance", want: true},
		{name: "json off", file: "site.json", content: `{"maintenance": false}`},
		{name: "toml key absent", file: "site.toml", content: "name = \"owncloud\"\n"},
		{name: "yaml broken", file: "site.yaml", content: "maintenance: [true\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := gate.Maintenance{Path: write(t, tt.file, tt.content), Key: tt.key}
			got, err := g.InMaintenance(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMaintenance_MissingFileIsOnline(t *testing.T) {
	var buf bytes.Buffer
	g := gate.Maintenance{
		Path:   filepath.Join(t.TempDir(), "config.php"),
		Logger: slog.New(slog.NewTextHandler(&buf, nil)),
	}

	got, err := g.InMaintenance(context.Background())
	require.NoError(t, err)
	assert.False(t, got)
	assert.Contains(t, buf.String(), "maintenance config not readable")
}

func TestMaintenance_NoPath(t *testing.T) {
	got, err := gate.Maintenance{}.InMaintenance(context.Background())
	require.NoError(t, err)
	assert.False(t, got)
}

func TestMaintenance_IsEngineGate(t *testing.T) {
	var _ engine.Gate = gate.Maintenance{}
}
