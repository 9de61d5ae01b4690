package config

import (
	"flag"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

func writeConfig(t *testing.T, content string) (string, func()) {
	t.Helper()
	dir, err := ioutil.TempDir("", "osmfeatures_config")
	if err != nil {
		t.Fatal(err)
	}
	fname := filepath.Join(dir, "config.json")
	if err := ioutil.WriteFile(fname, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return fname, func() { os.RemoveAll(dir) }
}

func TestParseRead(t *testing.T) {
	o, err := Parse("read", []string{"-mapping", "mapping.yml", "-overwritecache", "input.pbf"})
	if err != nil {
		t.Fatal(err)
	}
	if o.PbfFile != "input.pbf" || !o.Overwritecache || o.MappingFile != "mapping.yml" {
		t.Errorf("unexpected options %+v", o)
	}
	if o.CacheDir != defaultCacheDir || o.CacheBackend != defaultCacheBackend {
		t.Errorf("unexpected defaults %+v", o)
	}
	if !o.Reads() || o.Writes() {
		t.Error("read command writes")
	}

	if _, err := Parse("read", []string{"-mapping", "mapping.yml"}); err == nil {
		t.Error("read without PBF file accepted")
	}
}

func TestParseWriteChecks(t *testing.T) {
	_, err := Parse("write", []string{"-srid", "1234", "-shards", "0"})
	oerr, ok := errors.Cause(err).(*OptionsError)
	if !ok {
		t.Fatal("expected OptionsError, got", err)
	}
	// mapping, srid, output and shards
	if len(oerr.Errors) != 4 {
		t.Error(oerr)
	}

	if _, err := Parse("write", []string{"-mapping", "m.yml", "-output", "-", "extra"}); err == nil {
		t.Error("extra argument accepted")
	}
	if _, err := Parse("write", []string{"-h"}); err != flag.ErrHelp {
		t.Error("expected ErrHelp", err)
	}
	if _, err := Parse("import", nil); err == nil {
		t.Error("unknown command accepted")
	}
}

func TestConfigFile(t *testing.T) {
	fname, cleanup := writeConfig(t, `{
		"cachedir": "/tmp/from-config",
		"cache_backend": "leveldb",
		"mapping": "config.yml",
		"srid": 4326,
		"output": "out.geojson",
		"shards": 3,
		"match_holes": true,
		"quiet": true
	}`)
	defer cleanup()

	o, err := Parse("write", []string{"-config", fname, "-mapping", "cmdline.yml", "-shards", "5", "-quiet=false"})
	if err != nil {
		t.Fatal(err)
	}
	if o.MappingFile != "cmdline.yml" || o.Shards != 5 || o.Quiet {
		t.Errorf("command line not preferred %+v", o)
	}
	if o.CacheDir != "/tmp/from-config" || o.CacheBackend != "leveldb" || o.Srid != 4326 {
		t.Errorf("config not applied %+v", o)
	}
	if o.Output != "out.geojson" || !o.MatchHoles || o.StrictOuter {
		t.Errorf("config not applied %+v", o)
	}
}

func TestConfigFileInvalid(t *testing.T) {
	fname, cleanup := writeConfig(t, `{"cachedir": 1}`)
	defer cleanup()
	if _, err := Parse("read", []string{"-config", fname, "-mapping", "m.yml", "in.pbf"}); err == nil {
		t.Error("invalid config accepted")
	}
	if _, err := Parse("read", []string{"-config", fname + ".missing", "in.pbf"}); err == nil {
		t.Error("missing config accepted")
	}
}
