package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type ValidateOptions struct {
	GlobalOptions

	From       string
	SchemaPath string

	from docFormat
}

func DefaultValidateOptions() *ValidateOptions {
	return &ValidateOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdValidate() *cobra.Command {
	o := DefaultValidateOptions()
	cmd := &cobra.Command{
		Use:   "validate [input-file]",
		Short: "Check that a document is well formed and matches a schema",
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

func (o *ValidateOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.StringVarP(&o.From, "from", "f", o.From, fmt.Sprintf("Input format, one of (%s). Guessed from the file extension when omitted.", legalFormatList()))
	fs.StringVar(&o.SchemaPath, "schema", o.SchemaPath, "JSON Schema file to validate against. Defaults to the schema from the config file.")
}

func (o *ValidateOptions) Complete(cmd *cobra.Command, args []string) error {
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
	if o.SchemaPath == "" && cfg.Schema != nil {
		o.SchemaPath = cfg.Schema.Path
	}
	return nil
}

func (o *ValidateOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	var err error
	o.from, err = parseDocFormat(o.From)
	return err
}

func (o *ValidateOptions) Run(ctx context.Context, args []string) error {
	input := ""
	if len(args) > 0 {
		input = args[0]
	}
	data, err := readInput(input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inputName(input), err)
	}
	doc, err := decodeDocument(data, o.from)
	if err != nil {
		return fmt.Errorf("%s is not well formed %s: %w", inputName(input), o.from, err)
	}
	if o.SchemaPath == "" {
		fmt.Printf("%s: well formed %s\n", inputName(input), o.from)
		return nil
	}
	if err := validateAgainstSchema(o.SchemaPath, doc); err != nil {
		return fmt.Errorf("%s does not match %s: %w", inputName(input), o.SchemaPath, err)
	}
	fmt.Printf("%s: valid against %s\n", inputName(input), o.SchemaPath)
	return nil
}
