package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type TranscodeOptions struct {
	GlobalOptions

	From       string
	To         string
	Output     string
	Indent     int
	SchemaPath string
	Watch      bool

	from docFormat
	to   docFormat
}

func DefaultTranscodeOptions() *TranscodeOptions {
	return &TranscodeOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Output:        "-",
	}
}

func NewCmdTranscode() *cobra.Command {
	o := DefaultTranscodeOptions()
	cmd := &cobra.Command{
		Use:   "transcode [input-file]",
		Short: "Convert a document between cbor, json and yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *TranscodeOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.StringVarP(&o.From, "from", "f", o.From, fmt.Sprintf("Input format, one of (%s). Guessed from the file extension when omitted.", legalFormatList()))
	fs.StringVarP(&o.To, "to", "t", o.To, fmt.Sprintf("Output format, one of (%s). Guessed from the output extension when omitted.", legalFormatList()))
	fs.StringVarP(&o.Output, "output", "o", o.Output, "Output file, '-' for stdout.")
	fs.IntVar(&o.Indent, "indent", o.Indent, "Indent width for json output, 0 emits compact output.")
	fs.StringVar(&o.SchemaPath, "schema", o.SchemaPath, "JSON Schema file to validate the document against before encoding.")
	fs.BoolVarP(&o.Watch, "watch", "w", false, "Keep running and re-convert whenever the input file changes.")
}

func (o *TranscodeOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := o.GlobalOptions.Complete(cmd, args); err != nil {
		return err
	}
	input := ""
	if len(args) > 0 {
		input = args[0]
	}
	cfg := o.Config()
	if o.From == "" {
		o.From = string(guessDocFormat(input))
	}
	if o.From == "" && cfg.Defaults != nil {
		o.From = cfg.Defaults.Format
	}
	if o.To == "" {
		o.To = string(guessDocFormat(o.Output))
	}
	if o.To == "" {
		// transcoding to the input format is a no-op, flip to the
		// other wire format
		if o.From == cborFormat {
			o.To = jsonFormat
		} else {
			o.To = cborFormat
		}
	}
	if !cmd.Flags().Changed("indent") && cfg.Defaults != nil {
		o.Indent = cfg.Defaults.Indent
	}
	if o.SchemaPath == "" && cfg.Schema != nil {
		o.SchemaPath = cfg.Schema.Path
	}
	return nil
}

func (o *TranscodeOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	var err error
	if o.from, err = parseDocFormat(o.From); err != nil {
		return err
	}
	if o.to, err = parseDocFormat(o.To); err != nil {
		return err
	}
	if o.Indent < 0 || o.Indent > 8 {
		return fmt.Errorf("indent must be between 0 and 8, got %d", o.Indent)
	}
	if o.Watch && (len(args) == 0 || args[0] == "-") {
		return fmt.Errorf("--watch requires an input file, not stdin")
	}
	return nil
}

func (o *TranscodeOptions) Run(ctx context.Context, args []string) error {
	input := ""
	if len(args) > 0 {
		input = args[0]
	}
	if err := o.convert(input); err != nil {
		return err
	}
	if o.Watch {
		return o.watch(ctx, input)
	}
	return nil
}

func (o *TranscodeOptions) convert(input string) error {
	data, err := readInput(input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inputName(input), err)
	}
	doc, err := decodeDocument(data, o.from)
	if err != nil {
		return fmt.Errorf("decoding %s as %s: %w", inputName(input), o.from, err)
	}
	if o.SchemaPath != "" {
		if err := validateAgainstSchema(o.SchemaPath, doc); err != nil {
			return fmt.Errorf("validating %s: %w", inputName(input), err)
		}
	}
	out, err := encodeDocument(doc, o.to, o.Indent)
	if err != nil {
		return fmt.Errorf("encoding as %s: %w", o.to, err)
	}
	if err := writeOutput(o.Output, out); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// watch re-runs the conversion on every write to the input file until the
// context is canceled or the process is interrupted. It watches the parent
// directory because editors typically replace files instead of rewriting
// them in place.
func (o *TranscodeOptions) watch(ctx context.Context, input string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(input)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(input), err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	o.Logger().Infof("watching %s for changes", input)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(input) {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			if err := o.convert(input); err != nil {
				o.Logger().Errorf("transcode: %v", err)
				continue
			}
			o.Logger().Infof("converted %s", input)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			o.Logger().Errorf("watch: %v", err)
		}
	}
}
