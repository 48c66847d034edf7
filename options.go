package lblgen

// Per run options from the command line.

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// Options are the per run settings of the generator.
type Options struct {
	Materials       []string // Material categories to sample from.
	Proportions     []int    // Percentage of objects per material; must add up to 100.
	ObjectsPerImage int
	ImageCount      int
	Background      string // A file name in the background directory or RandomBackground.
	OutputLocation  string // The directory for rendered images and the dataset description.

	ReuseCrushes bool // Sample from previously crushed models.
	OnlyCrush    bool // Crush the sampled models and stop before scene setup.
	DontCrush    bool // Use the models as they are.

	Seed *int64 // The run seed; nil draws one from entropy.

	ConfigPath string // The configuration document.
	AssetDir   string // Holds the model, crushed model and background directories.

	Splits               []int  // Cumulative split percentages for additional dataset files.
	TFRecordPath         string // TFRecord output; empty disables the export.
	TFRecordLabelMapPath string
	NumShards            int
	KittiDir             string // KITTI label output directory; empty disables the export.
	CropObjects          bool   // Export a crop of every annotated object.
	JPEGQuality          int
	Interactive          bool
}

// DefaultOptions returns the options used when no command line arguments are given.
func DefaultOptions() *Options {
	return &Options{
		Materials:       []string{"Aluminium"},
		Proportions:     []int{100},
		ObjectsPerImage: 1,
		ImageCount:      1,
		Background:      RandomBackground,
		OutputLocation:  "images/",
		ConfigPath:      "configuration.yaml",
		AssetDir:        ".",
		Splits:          []int{100},
		NumShards:       1,
		JPEGQuality:     90,
	}
}

// Crush reports whether sampled models are crushed before they are placed.
func (o *Options) Crush() bool {
	return !o.ReuseCrushes && !o.DontCrush
}

// Validate checks the option combinations. All failures are *ConfigError.
func (o *Options) Validate() error {
	if len(o.Materials) == 0 {
		return configErrorf("at least one material is required")
	}
	if len(o.Materials) != len(o.Proportions) {
		return configErrorf("got %d materials but %d proportions", len(o.Materials),
			len(o.Proportions))
	}
	sum := 0
	for _, p := range o.Proportions {
		if p < 0 {
			return configErrorf("proportions must not be negative, got %d", p)
		}
		sum += p
	}
	if sum != 100 {
		return configErrorf("the proportions must add up to 100, got %d", sum)
	}
	if o.ObjectsPerImage < 0 {
		return configErrorf("objects per image must not be negative, got %d", o.ObjectsPerImage)
	}
	if o.ImageCount < 0 {
		return configErrorf("image count must not be negative, got %d", o.ImageCount)
	}

	crushSwitches := 0
	for _, b := range []bool{o.ReuseCrushes, o.OnlyCrush, o.DontCrush} {
		if b {
			crushSwitches++
		}
	}
	if crushSwitches > 1 {
		return configErrorf("only one of reuse_crushes, only_crush and dont_crush may be set")
	}

	if err := validateSplits(o.Splits); err != nil {
		return err
	}
	if o.TFRecordPath != "" && o.TFRecordLabelMapPath == "" {
		return configErrorf("the TFRecord export requires a label map file path")
	}
	if o.NumShards < 1 {
		return configErrorf("the number of shards must be positive, got %d", o.NumShards)
	}
	if o.JPEGQuality < 1 || o.JPEGQuality > 100 {
		return configErrorf("the JPEG quality must be in [1, 100], got %d", o.JPEGQuality)
	}
	return nil
}

// expandPaths replaces a leading "~" in all path options with the home directory.
func (o *Options) expandPaths() error {
	for _, p := range []*string{&o.OutputLocation, &o.ConfigPath, &o.AssetDir, &o.TFRecordPath,
		&o.TFRecordLabelMapPath, &o.KittiDir} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return configErrorf("cannot expand %q: %v", *p, err)
		}
		*p = expanded
	}
	return nil
}

// stringList is a comma-separated list flag. Repeating the flag appends to the list; the first
// use replaces the default.
type stringList struct {
	values *[]string
	set    bool
}

func (l *stringList) String() string {
	if l.values == nil {
		return ""
	}
	return strings.Join(*l.values, ",")
}

func (l *stringList) Set(s string) error {
	if !l.set {
		*l.values = nil
		l.set = true
	}
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			*l.values = append(*l.values, v)
		}
	}
	return nil
}

// intList is the integer variant of stringList.
type intList struct {
	values *[]int
	set    bool
}

func (l *intList) String() string {
	if l.values == nil {
		return ""
	}
	s := make([]string, len(*l.values))
	for i, v := range *l.values {
		s[i] = strconv.Itoa(v)
	}
	return strings.Join(s, ",")
}

func (l *intList) Set(s string) error {
	if !l.set {
		*l.values = nil
		l.set = true
	}
	for _, v := range strings.Split(s, ",") {
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid integer %q", v)
		}
		*l.values = append(*l.values, i)
	}
	return nil
}

// seedValue records an optional int64 flag.
type seedValue struct {
	seed **int64
}

func (v seedValue) String() string {
	if v.seed == nil || *v.seed == nil {
		return ""
	}
	return strconv.FormatInt(**v.seed, 10)
}

func (v seedValue) Set(s string) error {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid seed %q", s)
	}
	*v.seed = &i
	return nil
}

// NewFlagSet returns a flag set that parses the command line into o. Short and long flag names
// write to the same option.
func NewFlagSet(name string, o *Options, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	materials := &stringList{values: &o.Materials}
	proportions := &intList{values: &o.Proportions}
	splits := &stringList{values: new([]string)}
	*splits.values = []string{"100"}

	both := func(short, long string, register func(name string)) {
		register(short)
		register(long)
	}

	both("m", "materials", func(n string) {
		fs.Var(materials, n, "Comma-separated material `names` to sample from")
	})
	both("p", "proportions", func(n string) {
		fs.Var(proportions, n,
			"Comma-separated `percentages` of objects per material; must add up to 100")
	})
	both("c", "objects_per_image", func(n string) {
		fs.IntVar(&o.ObjectsPerImage, n, o.ObjectsPerImage, "The number of objects per image")
	})
	both("i", "image_count", func(n string) {
		fs.IntVar(&o.ImageCount, n, o.ImageCount, "The number of images to render")
	})
	both("b", "background", func(n string) {
		fs.StringVar(&o.Background, n, o.Background,
			"The background image `file` name, or \"random\"")
	})
	both("o", "output_location", func(n string) {
		fs.StringVar(&o.OutputLocation, n, o.OutputLocation,
			"The `path` to the output directory for images and labels")
	})
	both("rc", "reuse_crushes", func(n string) {
		fs.BoolVar(&o.ReuseCrushes, n, o.ReuseCrushes,
			"Use existing crushed models instead of creating them")
	})
	both("oc", "only_crush", func(n string) {
		fs.BoolVar(&o.OnlyCrush, n, o.OnlyCrush,
			"Only crush the models of the given materials, do not render")
	})
	both("dc", "dont_crush", func(n string) {
		fs.BoolVar(&o.DontCrush, n, o.DontCrush, "Do not crush the models")
	})
	both("s", "seed", func(n string) {
		fs.Var(seedValue{seed: &o.Seed}, n, "The random `seed` for reproducible runs")
	})

	fs.StringVar(&o.ConfigPath, "config", o.ConfigPath, "The configuration document `path`")
	fs.StringVar(&o.AssetDir, "assets", o.AssetDir,
		"The `path` to the directory with the Models, Crushed Models and Backgrounds directories")
	fs.Var(&splitFlag{list: splits, splits: &o.Splits}, "split",
		"Comma-separated output split `percentages` for additional dataset files; must add up"+
			" to 100")
	fs.StringVar(&o.TFRecordPath, "tfrecord", o.TFRecordPath,
		"The TFRecord output `path` (empty disables the export)")
	fs.StringVar(&o.TFRecordLabelMapPath, "tfrecord-label-map-file", o.TFRecordLabelMapPath,
		"The TFRecord label map file `path`")
	fs.IntVar(&o.NumShards, "num-shards", o.NumShards,
		"The number of TFRecord shard files to create")
	fs.StringVar(&o.KittiDir, "kitti", o.KittiDir,
		"The KITTI label output directory `path` (empty disables the export)")
	fs.BoolVar(&o.CropObjects, "crop-objects", o.CropObjects,
		"Crop the annotated objects from the rendered images")
	fs.IntVar(&o.JPEGQuality, "jpeg-quality", o.JPEGQuality,
		"The quality to use when encoding JPEGs [1, 100]")
	fs.BoolVar(&o.Interactive, "interactive", o.Interactive,
		"Prompt for materials, proportions and counts")

	return fs
}

// splitFlag parses split percentages and stores them as a cumulative distribution.
type splitFlag struct {
	list   *stringList
	splits *[]int
}

func (f *splitFlag) String() string {
	if f.list == nil {
		return ""
	}
	return f.list.String()
}

func (f *splitFlag) Set(s string) error {
	if err := f.list.Set(s); err != nil {
		return err
	}
	cumulative := make([]int, 0, len(*f.list.values))
	sum := 0
	for _, v := range *f.list.values {
		i, err := strconv.Atoi(v)
		if err != nil || i < 0 || i > 100 {
			return fmt.Errorf("invalid split percentage %q", v)
		}
		sum += i
		cumulative = append(cumulative, sum)
	}
	*f.splits = cumulative
	return nil
}

// ParseArgs parses and validates the command line arguments (without the program name). Usage
// errors and invalid combinations are returned as *ConfigError.
func ParseArgs(args []string, output io.Writer) (*Options, error) {
	o := DefaultOptions()
	fs := NewFlagSet("lblgen", o, output)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, err
		}
		return nil, &ConfigError{Msg: err.Error()}
	}
	if fs.NArg() > 0 {
		return nil, configErrorf("unexpected arguments: %v", fs.Args())
	}
	if err := o.expandPaths(); err != nil {
		return nil, err
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}
