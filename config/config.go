// Package config parses the command line flags and the optional JSON
// config file of all commands. Flags on the command line take precedence
// over values from the config file.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/pkg/errors"
)

// Config is the JSON config file.
type Config struct {
	CacheDir     string `json:"cachedir"`
	CacheBackend string `json:"cache_backend"`
	MappingFile  string `json:"mapping"`
	Srid         int    `json:"srid"`
	Connection   string `json:"connection"`
	Output       string `json:"output"`
	Shards       int    `json:"shards"`
	MatchHoles   *bool  `json:"match_holes"`
	StrictOuter  *bool  `json:"strict_outer"`
	Quiet        *bool  `json:"quiet"`
	Debug        *bool  `json:"debug"`
	Httpprofile  string `json:"httpprofile"`
}

const defaultSrid = 3857
const defaultCacheDir = "/tmp/imposm-features"
const defaultCacheBackend = "badger"

type Options struct {
	Command        string
	ConfigFile     string
	CacheDir       string
	CacheBackend   string
	MappingFile    string
	Srid           int
	Connection     string
	Output         string
	Shards         int
	MatchHoles     bool
	StrictOuter    bool
	Quiet          bool
	Debug          bool
	Httpprofile    string
	Overwritecache bool

	// PbfFile is the input of read and run.
	PbfFile string
}

// Reads and Writes report whether the command runs the first and second
// pass.
func (o *Options) Reads() bool  { return o.Command == "read" || o.Command == "run" }
func (o *Options) Writes() bool { return o.Command == "write" || o.Command == "run" }

func newFlagSet(cmd string, o *Options) *flag.FlagSet {
	flags := flag.NewFlagSet(cmd, flag.ContinueOnError)
	flags.StringVar(&o.ConfigFile, "config", "", "config (json)")
	flags.StringVar(&o.CacheDir, "cachedir", defaultCacheDir, "cache directory")
	flags.StringVar(&o.CacheBackend, "cache-backend", defaultCacheBackend, "cache backend (badger or leveldb)")
	flags.StringVar(&o.MappingFile, "mapping", "", "mapping file")
	flags.BoolVar(&o.Quiet, "quiet", false, "quiet log output")
	flags.BoolVar(&o.Debug, "debug", false, "log rejected elements")
	flags.StringVar(&o.Httpprofile, "httpprofile", "", "bind address for profile server")

	if cmd == "read" || cmd == "run" {
		flags.BoolVar(&o.Overwritecache, "overwritecache", false, "overwrite existing cache")
	}
	if cmd == "write" || cmd == "run" {
		flags.IntVar(&o.Srid, "srid", defaultSrid, "srs id of the output (3857 or 4326)")
		flags.StringVar(&o.Connection, "connection", "", "PostGIS connection parameters")
		flags.StringVar(&o.Output, "output", "", "GeoJSON output file (- for stdout)")
		flags.IntVar(&o.Shards, "shards", runtime.NumCPU(), "number of parallel writers")
		flags.BoolVar(&o.MatchHoles, "match-holes", false, "only add holes to the ring containing them")
		flags.BoolVar(&o.StrictOuter, "strict-outer", false, "fail on ways that are outer of multiple multipolygons")
	}
	return flags
}

func usage(w io.Writer, flags *flag.FlagSet) func() {
	return func() {
		switch flags.Name() {
		case "read", "run":
			fmt.Fprintf(w, "Usage: %s %s [args] file.osm.pbf\n\n", os.Args[0], flags.Name())
		default:
			fmt.Fprintf(w, "Usage: %s %s [args]\n\n", os.Args[0], flags.Name())
		}
		flags.PrintDefaults()
	}
}

// Parse parses the arguments of cmd (read, write or run). The returned
// error is flag.ErrHelp if -h was requested, the usage is already
// printed in this case.
func Parse(cmd string, args []string) (Options, error) {
	o := Options{Command: cmd}
	switch cmd {
	case "read", "write", "run":
	default:
		return o, errors.Errorf("unknown command '%s'", cmd)
	}
	flags := newFlagSet(cmd, &o)
	flags.SetOutput(os.Stderr)
	flags.Usage = usage(os.Stderr, flags)
	if err := flags.Parse(args); err != nil {
		return o, err
	}

	set := make(map[string]bool)
	flags.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if err := o.updateFromConfig(set); err != nil {
		return o, err
	}

	if o.Reads() {
		if flags.NArg() != 1 {
			return o, errors.New("expected exactly one PBF file")
		}
		o.PbfFile = flags.Arg(0)
	} else if flags.NArg() != 0 {
		return o, errors.Errorf("unexpected arguments %v", flags.Args())
	}

	if errs := o.check(); len(errs) != 0 {
		return o, &OptionsError{errs}
	}
	return o, nil
}

// updateFromConfig fills all options that were not set on the command line
// from the config file.
func (o *Options) updateFromConfig(set map[string]bool) error {
	if o.ConfigFile == "" {
		return nil
	}
	f, err := os.Open(o.ConfigFile)
	if err != nil {
		return err
	}
	defer f.Close()

	conf := &Config{}
	if err := json.NewDecoder(f).Decode(conf); err != nil {
		return errors.Wrapf(err, "parsing config %s", o.ConfigFile)
	}

	setString := func(name string, dst *string, v string) {
		if !set[name] && v != "" {
			*dst = v
		}
	}
	setBool := func(name string, dst *bool, v *bool) {
		if !set[name] && v != nil {
			*dst = *v
		}
	}
	setString("cachedir", &o.CacheDir, conf.CacheDir)
	setString("cache-backend", &o.CacheBackend, conf.CacheBackend)
	setString("mapping", &o.MappingFile, conf.MappingFile)
	setString("httpprofile", &o.Httpprofile, conf.Httpprofile)
	setBool("quiet", &o.Quiet, conf.Quiet)
	setBool("debug", &o.Debug, conf.Debug)

	if o.Writes() {
		setString("connection", &o.Connection, conf.Connection)
		setString("output", &o.Output, conf.Output)
		if !set["srid"] && conf.Srid != 0 {
			o.Srid = conf.Srid
		}
		if !set["shards"] && conf.Shards != 0 {
			o.Shards = conf.Shards
		}
		setBool("match-holes", &o.MatchHoles, conf.MatchHoles)
		setBool("strict-outer", &o.StrictOuter, conf.StrictOuter)
	}
	return nil
}

func (o *Options) check() []error {
	errs := []error{}
	if o.MappingFile == "" {
		errs = append(errs, errors.New("missing mapping"))
	}
	if o.CacheBackend != "badger" && o.CacheBackend != "leveldb" {
		errs = append(errs, errors.Errorf("unknown cache backend '%s'", o.CacheBackend))
	}
	if o.Writes() {
		if o.Srid != 3857 && o.Srid != 4326 {
			errs = append(errs, errors.New("only -srid=3857 or -srid=4326 are supported"))
		}
		if o.Connection == "" && o.Output == "" {
			errs = append(errs, errors.New("missing -connection or -output"))
		}
		if o.Shards < 1 {
			errs = append(errs, errors.New("-shards needs to be at least 1"))
		}
	}
	return errs
}

// OptionsError lists all invalid options.
type OptionsError struct {
	Errors []error
}

func (e *OptionsError) Error() string {
	msg := "errors in config/options:"
	for _, err := range e.Errors {
		msg += "\n\t" + err.Error()
	}
	return msg
}
