package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/tnicklin/dosrt/cp437"
	"github.com/tnicklin/dosrt/dosfs"
)

// fs is where encode and decode read and write files.
var fs afero.Fs = afero.NewOsFs()

func addEncodeCommand(parent *cobra.Command) {
	var (
		out    string
		strict bool
	)

	encode := &cobra.Command{
		Use:   "encode [text...]",
		Short: "Convert UTF-8 text to CP437",
		Long: `Convert the arguments, or stdin when there are none, to code page 437.

Console control codes (bell, backspace, tab, newline, carriage return) pass
through unless --strict is set, in which case every character must have a
CP437 glyph and control codes become '?' like any other unmappable rune.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var src io.Reader = strings.NewReader(strings.Join(args, " "))
			if len(args) == 0 {
				src = cmd.InOrStdin()
			}

			if out == "" {
				return encodeTo(cmd.OutOrStdout(), src, strict)
			}
			f, err := dosfs.Create(fs, out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			return multierr.Append(encodeTo(f, src, strict), f.Close())
		},
	}
	encode.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")
	encode.Flags().BoolVar(&strict, "strict", false, "map control codes to '?'")
	parent.AddCommand(encode)

	decode := &cobra.Command{
		Use:   "decode FILE",
		Short: "Print a CP437 file as UTF-8",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := dosfs.Open(fs, args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			data, err := io.ReadAll(f)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), cp437.Decode(data))
			return err
		},
	}
	parent.AddCommand(decode)
}

func encodeTo(dst io.Writer, src io.Reader, strict bool) error {
	if strict {
		text, err := io.ReadAll(src)
		if err != nil {
			return err
		}
		_, err = dst.Write(cp437.Encode(string(text)))
		return err
	}

	w := cp437.NewWriter(dst)
	if _, err := io.Copy(w, src); err != nil {
		return err
	}
	return w.Close()
}
