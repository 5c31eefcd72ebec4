package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"morphsplit/config"
	"morphsplit/internal/adapter/cache"
	"morphsplit/internal/adapter/codec"
	"morphsplit/internal/adapter/fs"
	"morphsplit/internal/adapter/lexicon"
	"morphsplit/internal/adapter/store"
	"morphsplit/internal/domain"
	"morphsplit/internal/logging"
	"morphsplit/internal/port"
	"morphsplit/internal/usecase"
)

// Exit codes.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitConfig       = 2
	ExitCache        = 3
	ExitDecode       = 4
	ExitSegmentation = 5
)

type options struct {
	cfgFile  string
	analyzer string
	morfflex string
	from     string
	to       string
	save     string
	load     string
	fresh    bool
	input    string
	output   string
	level    string
	format   string
	progress bool
	tokens   int

	cfg *config.Config
}

// NewRootCmd creates the morphsplit command reading from stdin and writing
// to stdout and stderr.
func NewRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	o := &options{}

	cmd := &cobra.Command{
		Use:   "morphsplit BASE_DICTIONARY",
		Short: "Segment a corpus into morphs and convert between formats",
		Long: `morphsplit reads sentences, splits every word into morphs using a
derivational dictionary, and writes the segmented corpus in another format.

The segmentation model is built from the dictionaries on the first run and
saved as a snapshot. Later runs load the snapshot and skip the build.

Formats: spl, vbpe, hbpe, hmorph.

Example usage:
  morphsplit derinet-2-0.tsv.gz < corpus.txt > corpus.bpe
  morphsplit derinet-2-0.tsv.gz -m morfflex.tsv.xz -a czech.tagger -t hmorph -i corpus.txt`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return &domain.ConfigError{
					Field:   "base dictionary",
					Message: fmt.Sprintf("expected exactly one path argument, got %d", len(args)),
				}
			}
			return nil
		},
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return o.resolve(cmd, args[0])
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(stdin, stdout, stderr)
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &domain.ConfigError{Field: "flags", Message: err.Error()}
	})

	f := cmd.Flags()
	f.StringVar(&o.cfgFile, "config", "", "config file (default is ./"+config.FileName+")")
	f.StringVarP(&o.analyzer, "analyzer", "a", "", "morphological analyzer resource")
	f.StringVarP(&o.morfflex, "morfflex", "m", "", "inflectional enrichment dictionary")
	f.StringVarP(&o.from, "from", "f", codec.FormatSPL, "input format")
	f.StringVarP(&o.to, "to", "t", codec.FormatVBPE, "output format")
	f.StringVarP(&o.save, "save-snapshot", "s", config.DefaultSnapshot, "where to save a freshly built model")
	f.StringVarP(&o.load, "load-snapshot", "l", config.DefaultSnapshot, "snapshot to load if it exists")
	f.BoolVar(&o.fresh, "check-fresh", false, "rebuild when the dictionaries changed since the snapshot was saved")
	f.StringVarP(&o.input, "input", "i", "", "input file (default is stdin)")
	f.StringVarP(&o.output, "output", "o", "", "output file (default is stdout)")
	f.StringVar(&o.level, "log-level", "info", "log level: debug, info, warn, error")
	f.StringVar(&o.format, "log-format", logging.FormatConsole, "log format: console or json")
	f.BoolVar(&o.progress, "progress", false, "show progress on stderr")
	f.IntVar(&o.tokens, "segment-cache", 0, "memoize the segmentation of up to this many distinct tokens (0 disables)")

	return cmd
}

// resolve merges defaults, the config file, the environment and flags, in
// that order, and validates the result.
func (o *options) resolve(cmd *cobra.Command, base string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return &domain.ConfigError{Field: "env", Message: "cannot read .env", Err: err}
	}

	var cfg *config.Config
	var err error
	if o.cfgFile != "" {
		if _, statErr := os.Stat(o.cfgFile); statErr != nil {
			return &domain.ConfigError{Field: "config", Message: "cannot read " + o.cfgFile, Err: statErr}
		}
		cfg, err = config.Load(o.cfgFile)
	} else {
		dir, wdErr := os.Getwd()
		if wdErr != nil {
			return fmt.Errorf("failed to get working directory: %w", wdErr)
		}
		cfg, err = config.LoadFromDir(dir)
	}
	if err != nil {
		return &domain.ConfigError{Field: "config", Message: "failed to load config", Err: err}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return err
	}

	cfg.Resources.Derinet = base
	flags := cmd.Flags()
	strs := []struct {
		name  string
		value string
		field *string
	}{
		{"analyzer", o.analyzer, &cfg.Resources.Analyzer},
		{"morfflex", o.morfflex, &cfg.Resources.Morfflex},
		{"from", o.from, &cfg.Formats.From},
		{"to", o.to, &cfg.Formats.To},
		{"save-snapshot", o.save, &cfg.Snapshot.Save},
		{"load-snapshot", o.load, &cfg.Snapshot.Load},
		{"log-level", o.level, &cfg.Logging.Level},
		{"log-format", o.format, &cfg.Logging.Format},
	}
	for _, s := range strs {
		if flags.Changed(s.name) {
			*s.field = s.value
		}
	}
	if flags.Changed("check-fresh") {
		cfg.Snapshot.CheckFresh = o.fresh
	}
	if flags.Changed("progress") {
		cfg.Progress = o.progress
	}
	if flags.Changed("segment-cache") {
		cfg.SegmentCache = o.tokens
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	o.cfg = cfg
	return nil
}

func (o *options) run(stdin io.Reader, stdout, stderr io.Writer) error {
	cfg := o.cfg

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, stderr)
	if err != nil {
		return &domain.ConfigError{Field: "logging", Message: err.Error()}
	}
	defer log.Sync()

	log.Info("morphsplit started",
		zap.String("from", cfg.Formats.From),
		zap.String("to", cfg.Formats.To),
		zap.String("base", cfg.Resources.Derinet),
	)

	from, err := codec.Lookup(cfg.Formats.From)
	if err != nil {
		return err
	}
	to, err := codec.Lookup(cfg.Formats.To)
	if err != nil {
		return err
	}

	var progress io.Writer
	if cfg.Progress {
		progress = stderr
	}
	opener := fs.NewOpener(progress)

	models := usecase.NewModelCache(
		lexicon.NewBuilder(opener, log),
		store.NewBoltSnapshotStore(0),
		store.Blake3Fingerprinter{},
		log,
	)
	models.LoadPath = cfg.Snapshot.Load
	models.SavePath = cfg.Snapshot.Save
	models.CheckFresh = cfg.Snapshot.CheckFresh

	acquired, err := models.Acquire(cfg.Refs())
	if err != nil {
		return err
	}
	log.Info("model ready",
		zap.Bool("cache_hit", acquired.CacheHit),
		zap.Duration("elapsed", acquired.Elapsed),
	)

	in := stdin
	if o.input != "" {
		f, err := os.Open(o.input)
		if err != nil {
			return &domain.ConfigError{Field: "input", Message: "cannot open " + o.input, Err: err}
		}
		defer f.Close()
		in = f
	}

	out := stdout
	var outFile *os.File
	if o.output != "" {
		outFile, err = os.Create(o.output)
		if err != nil {
			return &domain.ConfigError{Field: "output", Message: "cannot create " + o.output, Err: err}
		}
		defer outFile.Close()
		out = outFile
	}

	segmenter, tokens, err := segmenterFor(acquired.Model, cfg.SegmentCache)
	if err != nil {
		return err
	}

	var onSentence usecase.ProgressFunc
	if cfg.Progress {
		bar := progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(stderr),
			progressbar.OptionSetDescription("segmenting"),
			progressbar.OptionShowCount(),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(stderr)
			}),
		)
		defer bar.Finish()
		onSentence = func(n int) { bar.Set(n) }
	}

	result, err := usecase.NewTranscoder(log).Run(from.NewDecoder(in), to.NewEncoder(out), segmenter, onSentence)
	if err != nil {
		log.Error("transcoding aborted",
			zap.Int("sentences_written", result.Sentences),
			zap.Error(err),
		)
		return err
	}

	if outFile != nil {
		if err := outFile.Close(); err != nil {
			return fmt.Errorf("failed to close output: %w", err)
		}
	}

	fields := []zap.Field{
		zap.Int("sentences", result.Sentences),
		zap.Int("words", result.Words),
		zap.Duration("elapsed", result.Elapsed),
	}
	if tokens != nil {
		hits, misses := tokens.Stats()
		fields = append(fields, zap.Int("cache_hits", hits), zap.Int("cache_misses", misses))
	}
	log.Info("finished", fields...)
	return nil
}

// segmenterFor returns model itself when size is 0, so every sentence
// reaches the model exactly once. A positive size puts a token cache of that
// size in front of it.
func segmenterFor(model port.Segmenter, size int) (port.Segmenter, *cache.SegmentCache, error) {
	if size <= 0 {
		return model, nil, nil
	}
	tokens, err := cache.NewSegmentCache(size)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create segment cache: %w", err)
	}
	return cache.NewCachedSegmenter(model, tokens), tokens, nil
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, domain.ErrConfiguration):
		return ExitConfig
	case errors.Is(err, domain.ErrCache):
		return ExitCache
	case errors.Is(err, domain.ErrDecode):
		return ExitDecode
	case errors.Is(err, domain.ErrSegmentation):
		return ExitSegmentation
	default:
		return ExitFailure
	}
}

// Run executes the command with args and returns the exit status. The
// diagnostic for a failed run is written to stderr.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := NewRootCmd(stdin, stdout, stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err != nil {
		fmt.Fprintf(stderr, "morphsplit: %v\n", err)
	}
	return ExitCode(err)
}

func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
