package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"seqmine/util"

	"github.com/getsentry/sentry-go"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

const (
	DEVELOPMENT = "development"
	STAGING     = "staging"
	PRODUCTION  = "production"
)

const (
	STORAGE_DISK = "disk"
	STORAGE_GCS  = "gcs"
	STORAGE_S3   = "s3"
)

const (
	OUTPUT_FORMAT_SPMF = "spmf"
	OUTPUT_FORMAT_JSON = "json"
)

const ENV_PREFIX = "seqmine"

type Configuration struct {
	Env                string        `yaml:"env" split_words:"true"`
	AppName            string        `yaml:"app_name" split_words:"true"`
	InputPath          string        `yaml:"input_path" split_words:"true"`
	OutputPath         string        `yaml:"output_path" split_words:"true"`
	MinSupportCount    *int          `yaml:"min_support_count" split_words:"true"`
	MinSupportRatio    *float64      `yaml:"min_support_ratio" split_words:"true"`
	Storage            string        `yaml:"storage" split_words:"true"`
	BucketName         string        `yaml:"bucket_name" split_words:"true"`
	Region             string        `yaml:"region" split_words:"true"`
	LocalDiskTmpDir    string        `yaml:"local_disk_tmp_dir" split_words:"true"`
	NumRoutines        int           `yaml:"num_routines" split_words:"true"`
	MaxNodes           int64         `yaml:"max_nodes" split_words:"true"`
	Timeout            time.Duration `yaml:"timeout" split_words:"true"`
	OutputFormat       string        `yaml:"output_format" split_words:"true"`
	DisableBackscan    bool          `yaml:"disable_backscan" split_words:"true"`
	LogLevel           string        `yaml:"log_level" split_words:"true"`
	SentryDsn          string        `yaml:"sentry_dsn" split_words:"true"`
	GcpProjectId       string        `yaml:"gcp_project_id" split_words:"true"`
	GcpProjectLocation string        `yaml:"gcp_project_location" split_words:"true"`
}

func DefaultConfiguration() *Configuration {
	return &Configuration{
		Env:             DEVELOPMENT,
		AppName:         "run_pattern_mine",
		Storage:         STORAGE_DISK,
		BucketName:      "/usr/local/var/seqmine/cloud_storage",
		Region:          "us-east-1",
		LocalDiskTmpDir: "/usr/local/var/seqmine/local_disk/tmp",
		NumRoutines:     1,
		OutputFormat:    OUTPUT_FORMAT_SPMF,
		LogLevel:        "",
	}
}

// Flags binds one flag per configuration field. Only flags set on the
// command line override the file and environment.
type Flags struct {
	fs              *flag.FlagSet
	ConfigFilePath  *string
	values          *Configuration
	minSupportCount *int
	minSupportRatio *float64
}

func RegisterFlags(fs *flag.FlagSet) *Flags {
	d := DefaultConfiguration()
	f := &Flags{fs: fs, values: &Configuration{}}
	f.ConfigFilePath = fs.String("config_filepath", "", "Optional yaml config file.")
	fs.StringVar(&f.values.Env, "env", d.Env, "development, staging or production.")
	fs.StringVar(&f.values.AppName, "app_name", d.AppName, "Name used in logs and metrics.")
	fs.StringVar(&f.values.InputPath, "input", "", "Sequence database path, relative to the storage root.")
	fs.StringVar(&f.values.OutputPath, "output", "", "Closed patterns path. Defaults to the run dir.")
	f.minSupportCount = fs.Int("min_support_count", 0, "Minimum support as a number of sequences.")
	f.minSupportRatio = fs.Float64("min_support_ratio", 0, "Minimum support as a fraction of sequences in [0,1].")
	fs.StringVar(&f.values.Storage, "storage", d.Storage, "disk, gcs or s3.")
	fs.StringVar(&f.values.BucketName, "bucket_name", d.BucketName, "Bucket name, or base dir for disk.")
	fs.StringVar(&f.values.Region, "region", d.Region, "S3 region.")
	fs.StringVar(&f.values.LocalDiskTmpDir, "local_disk_tmp_dir", d.LocalDiskTmpDir, "Dir for temporary result files.")
	fs.IntVar(&f.values.NumRoutines, "num_routines", d.NumRoutines, "Workers exploring length-1 prefixes.")
	fs.Int64Var(&f.values.MaxNodes, "max_nodes", 0, "Search node budget, 0 for none.")
	fs.DurationVar(&f.values.Timeout, "timeout", 0, "Run timeout, 0 for none.")
	fs.StringVar(&f.values.OutputFormat, "output_format", d.OutputFormat, "spmf or json.")
	fs.BoolVar(&f.values.DisableBackscan, "disable_backscan", false, "Disable subtree pruning.")
	fs.StringVar(&f.values.LogLevel, "log_level", "", "Overrides the level implied by env.")
	fs.StringVar(&f.values.SentryDsn, "sentry_dsn", "", "Sentry DSN, errors are reported when set.")
	fs.StringVar(&f.values.GcpProjectId, "gcp_project_id", "", "Project for the stackdriver exporter.")
	fs.StringVar(&f.values.GcpProjectLocation, "gcp_project_location", "", "Location for the stackdriver exporter.")
	return f
}

// apply copies the explicitly set flags into c.
func (f *Flags) apply(c *Configuration) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "env":
			c.Env = f.values.Env
		case "app_name":
			c.AppName = f.values.AppName
		case "input":
			c.InputPath = f.values.InputPath
		case "output":
			c.OutputPath = f.values.OutputPath
		case "min_support_count":
			count := *f.minSupportCount
			c.MinSupportCount = &count
		case "min_support_ratio":
			ratio := *f.minSupportRatio
			c.MinSupportRatio = &ratio
		case "storage":
			c.Storage = f.values.Storage
		case "bucket_name":
			c.BucketName = f.values.BucketName
		case "region":
			c.Region = f.values.Region
		case "local_disk_tmp_dir":
			c.LocalDiskTmpDir = f.values.LocalDiskTmpDir
		case "num_routines":
			c.NumRoutines = f.values.NumRoutines
		case "max_nodes":
			c.MaxNodes = f.values.MaxNodes
		case "timeout":
			c.Timeout = f.values.Timeout
		case "output_format":
			c.OutputFormat = f.values.OutputFormat
		case "disable_backscan":
			c.DisableBackscan = f.values.DisableBackscan
		case "log_level":
			c.LogLevel = f.values.LogLevel
		case "sentry_dsn":
			c.SentryDsn = f.values.SentryDsn
		case "gcp_project_id":
			c.GcpProjectId = f.values.GcpProjectId
		case "gcp_project_location":
			c.GcpProjectLocation = f.values.GcpProjectLocation
		}
	})
}

// Load builds the configuration from defaults, the yaml file, SEQMINE_*
// environment variables and the flags set on the command line, in that
// order. The flag set must already be parsed.
func Load(f *Flags) (*Configuration, error) {
	c := DefaultConfiguration()
	if f != nil && *f.ConfigFilePath != "" {
		if err := loadFile(*f.ConfigFilePath, c); err != nil {
			return nil, err
		}
	}
	if err := envconfig.Process(ENV_PREFIX, c); err != nil {
		return nil, errors.Wrap(err, "failed to read config from environment")
	}
	if f != nil {
		f.apply(c)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func loadFile(path string, c *Configuration) error {
	configFileAbsPath, _ := filepath.Abs(path)
	logCtx := log.WithFields(log.Fields{"file": configFileAbsPath})

	raw, err := os.ReadFile(configFileAbsPath)
	if err != nil {
		logCtx.WithError(err).Error("Failed to load config")
		return errors.Wrapf(err, "failed to read config file %s", path)
	}
	if err := yaml.UnmarshalStrict(raw, c); err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal yaml")
		return errors.Wrapf(err, "failed to parse config file %s", path)
	}
	logCtx.Debug("Config File Loaded")
	return nil
}

func (c *Configuration) Validate() error {
	switch c.Env {
	case DEVELOPMENT, STAGING, PRODUCTION:
	default:
		return fmt.Errorf("invalid env %q", c.Env)
	}
	if c.InputPath == "" {
		return errors.New("input path is required")
	}
	if c.MinSupportCount == nil && c.MinSupportRatio == nil {
		return errors.New("one of min_support_count or min_support_ratio is required")
	}
	if c.MinSupportCount != nil && c.MinSupportRatio != nil {
		return errors.New("min_support_count and min_support_ratio are exclusive")
	}
	if c.MinSupportCount != nil && *c.MinSupportCount < 0 {
		return fmt.Errorf("min_support_count %d is negative", *c.MinSupportCount)
	}
	if c.MinSupportRatio != nil && (*c.MinSupportRatio < 0 || *c.MinSupportRatio > 1) {
		return fmt.Errorf("min_support_ratio %v outside [0,1]", *c.MinSupportRatio)
	}
	switch c.Storage {
	case STORAGE_DISK, STORAGE_GCS, STORAGE_S3:
	default:
		return fmt.Errorf("invalid storage %q", c.Storage)
	}
	if c.BucketName == "" {
		return errors.New("bucket_name is required")
	}
	switch c.OutputFormat {
	case OUTPUT_FORMAT_SPMF, OUTPUT_FORMAT_JSON:
	default:
		return fmt.Errorf("invalid output_format %q", c.OutputFormat)
	}
	if c.NumRoutines < 1 {
		return fmt.Errorf("num_routines %d must be at least 1", c.NumRoutines)
	}
	if c.MaxNodes < 0 {
		return fmt.Errorf("max_nodes %d is negative", c.MaxNodes)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout %v is negative", c.Timeout)
	}
	if c.LogLevel != "" {
		if _, err := log.ParseLevel(c.LogLevel); err != nil {
			return errors.Wrap(err, "invalid log_level")
		}
	}
	return nil
}

func (c *Configuration) IsDevelopment() bool {
	return strings.Compare(c.Env, DEVELOPMENT) == 0
}

// InitLogging sets the json formatter and the level: debug in development,
// info otherwise, unless log_level is set.
func InitLogging(c *Configuration) {
	// Log as JSON instead of the default ASCII formatter.
	log.SetFormatter(&log.JSONFormatter{})

	level := log.InfoLevel
	if c.IsDevelopment() {
		level = log.DebugLevel
	}
	if c.LogLevel != "" {
		if parsed, err := log.ParseLevel(c.LogLevel); err == nil {
			level = parsed
		}
	}
	log.SetLevel(level)
}

// InitSentry reports errors and panics to sentry when a DSN is configured.
// It returns a flush function to defer in main.
func InitSentry(c *Configuration) (func(), error) {
	if c.SentryDsn == "" {
		return func() {}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         c.SentryDsn,
		Environment: c.Env,
		ServerName:  c.AppName,
	})
	if err != nil {
		return func() {}, errors.Wrap(err, "failed to init sentry")
	}
	log.AddHook(util.NewSentryHook(sentry.CurrentHub()))
	return func() { sentry.Flush(2 * time.Second) }, nil
}
