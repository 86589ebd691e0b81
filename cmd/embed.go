package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"autoembed/internal/embed"
)

// Embed flags, shared by the root command and "embed".
var (
	flagImage bool
	flagLocal bool
	flagAttrs map[string]string
	flagJSON  bool
)

var embedCmd = &cobra.Command{
	Use:   "embed <url>",
	Short: "Print the embed markup for a URL",
	Example: `  autoembed embed http://www.youtube.com/watch?v=dQw4w9WgXcQ
  autoembed embed --image http://www.youtube.com/watch?v=dQw4w9WgXcQ
  autoembed embed --local --attr type=video/x-flv media/clip.flv`,
	Args: cobra.ExactArgs(1),
	RunE: embedRun,
}

func init() {
	addEmbedFlags(embedCmd)
}

func addEmbedFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&flagImage, "image", "i", false, "Print the thumbnail URL instead of the markup")
	cmd.Flags().BoolVarP(&flagLocal, "local", "l", false, "Treat the argument as a local media file")
	cmd.Flags().StringToStringVarP(&flagAttrs, "attr", "a", nil, "Override an <object> attribute, as name=value (repeatable)")
	cmd.Flags().BoolVarP(&flagJSON, "json", "j", false, "Print the embed as JSON")
}

// embedRun is the default command: autoembed <url>
func embedRun(cmd *cobra.Command, args []string) (err error) {
	if len(args) == 0 {
		return cmd.Help()
	}
	target := args[0]

	a, err := newApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer closeApp(a, &err)

	var e *embed.Embed
	if flagLocal {
		debugf("embedding local file: %s", target)
		e, err = a.resolveLocal(cmd.Context(), target)
	} else {
		debugf("embedding: %s", target)
		e, err = a.rewriter.Resolve(cmd.Context(), target)
	}
	if err != nil {
		return err
	}
	debugf("matched provider: %s", e.Rule().Title)

	if len(flagAttrs) > 0 {
		e.SetAttribs(flagAttrs)
	}

	out := cmd.OutOrStdout()
	switch {
	case flagImage:
		img, ok := e.ImageURL()
		if !ok {
			return fmt.Errorf("%s has no thumbnail", e.Rule().Title)
		}
		fmt.Fprintln(out, img)
	case flagJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(e.Document()); err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
	default:
		fmt.Fprintln(out, e.HTML())
	}
	return nil
}
