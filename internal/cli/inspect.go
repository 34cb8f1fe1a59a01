package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tagwire/tagwire/pkg/serializer"
	"github.com/tagwire/tagwire/pkg/tagval"
)

type InspectOptions struct {
	GlobalOptions

	From string

	from docFormat
}

func DefaultInspectOptions() *InspectOptions {
	return &InspectOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdInspect() *cobra.Command {
	o := DefaultInspectOptions()
	cmd := &cobra.Command{
		Use:   "inspect [input-file]",
		Short: "Print the structure, kinds and tags of a document",
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

func (o *InspectOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.StringVarP(&o.From, "from", "f", o.From, fmt.Sprintf("Input format, one of (%s). Guessed from the file extension when omitted.", legalFormatList()))
}

func (o *InspectOptions) Complete(cmd *cobra.Command, args []string) error {
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
	return nil
}

func (o *InspectOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	var err error
	o.from, err = parseDocFormat(o.From)
	return err
}

func (o *InspectOptions) Run(ctx context.Context, args []string) error {
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
		return fmt.Errorf("decoding %s as %s: %w", inputName(input), o.from, err)
	}

	format := tagval.FormatJSON
	if o.from == cborFormat {
		format = tagval.FormatCBOR
	}
	s, err := serializer.New(serializer.WithFormat(format))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tKIND\tTAG\tDETAIL\tGO TYPE")
	nodes := printTree(w, s, "$", doc)
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%s: %s, %d %s\n",
		inputName(input),
		humanize.Bytes(uint64(len(data))),
		nodes,
		lo.Ternary(nodes == 1, "node", "nodes"))
	return printGoShape(s, doc)
}

// printGoShape decodes the document once more through the serializer so
// the summary shows what an application would get back for an untyped
// target.
func printGoShape(s *serializer.Serializer, doc tagval.Value) error {
	var out any
	if err := s.Deserialize(doc, &out); err != nil {
		return fmt.Errorf("deserializing document: %w", err)
	}
	fmt.Printf("go shape: %T\n", out)
	return nil
}

func printTree(w io.Writer, s *serializer.Serializer, path string, v tagval.Value) int {
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", path, v.Kind(), tagLabel(v), detail(v), goType(s, v))
	nodes := 1
	switch v.Kind() {
	case tagval.KindArray:
		for i, item := range v.Items() {
			nodes += printTree(w, s, fmt.Sprintf("%s[%d]", path, i), item)
		}
	case tagval.KindMap:
		for _, m := range v.Members() {
			nodes += printTree(w, s, memberPath(path, m.Key), m.Value)
		}
	}
	return nodes
}

// goType reports the Go type a tagged node would deserialize into for an
// untyped target, "-" when nothing claims the tag.
func goType(s *serializer.Serializer, v tagval.Value) string {
	if !v.IsTagged() {
		return "-"
	}
	t, ok := s.GuessType(v.Tag(), v.Kind())
	if !ok {
		return "-"
	}
	return t.String()
}

func memberPath(parent string, key tagval.Value) string {
	if key.Kind() == tagval.KindInt {
		return fmt.Sprintf("%s[%d]", parent, key.AsInt())
	}
	s := key.AsString()
	if isBareKey(s) {
		return parent + "." + s
	}
	return parent + "[" + strconv.Quote(s) + "]"
}

func isBareKey(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-' || r == '@':
		default:
			return false
		}
	}
	return true
}

func tagLabel(v tagval.Value) string {
	if !v.IsTagged() {
		return "-"
	}
	if name := tagval.TagName(v.Tag()); name != "" {
		return fmt.Sprintf("%d (%s)", v.Tag(), name)
	}
	return strconv.FormatUint(v.Tag(), 10)
}

func detail(v tagval.Value) string {
	switch v.Kind() {
	case tagval.KindBool:
		return strconv.FormatBool(v.AsBool())
	case tagval.KindInt:
		return strconv.FormatInt(v.AsInt(), 10)
	case tagval.KindFloat:
		return strconv.FormatFloat(v.AsFloat(), 'g', -1, 64)
	case tagval.KindString:
		return truncateQuoted(v.AsString(), 40)
	case tagval.KindBytes:
		return humanize.Bytes(uint64(v.Len()))
	case tagval.KindArray:
		return fmt.Sprintf("%d %s", v.Len(), lo.Ternary(v.Len() == 1, "item", "items"))
	case tagval.KindMap:
		return fmt.Sprintf("%d %s", v.Len(), lo.Ternary(v.Len() == 1, "member", "members"))
	default:
		return ""
	}
}

func truncateQuoted(s string, max int) string {
	if len(s) > max {
		s = s[:max] + "..."
	}
	return strconv.Quote(s)
}
