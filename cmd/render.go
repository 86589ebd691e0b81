package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagOutput     string
	flagNoSanitize bool
)

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Rewrite a Markdown or HTML post with embeds",
	Long: `Render a post, replacing every paragraph that holds nothing but a link to
a supported site with that site's embed markup. Markdown posts may start
with YAML front matter (title, embed_width, embed_height, autoembed).`,
	Args: cobra.ExactArgs(1),
	RunE: renderRun,
}

func init() {
	renderCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Write the HTML to a file instead of stdout")
	renderCmd.Flags().BoolVar(&flagNoSanitize, "no-sanitize", false, "Keep the post's markup as written")
}

func renderRun(cmd *cobra.Command, args []string) (err error) {
	if flagNoSanitize {
		cfg.Sanitize = false
	}

	a, err := newApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer closeApp(a, &err)

	debugf("rendering: %s", args[0])
	page, err := a.rewriter.RenderFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if flagOutput == "" || flagOutput == "-" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), page.HTML)
		return err
	}
	if err := os.WriteFile(flagOutput, []byte(page.HTML+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Rendered: %s\n", flagOutput)
	return nil
}
