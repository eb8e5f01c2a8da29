package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/kubeadapt/kubeadapt-console/pkg/model"
)

func (c *cli) renderCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render form state (YAML or JSON) into a Deployment manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			text, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			form := model.NewFormState()
			if err := yaml.UnmarshalStrict([]byte(text), &form); err != nil {
				return fmt.Errorf("decode form state: %w", err)
			}

			client, err := c.client()
			if err != nil {
				return err
			}
			out, err := client.Render(cmd.Context(), form)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "filename", "f", "", "form state file, - for stdin")
	return cmd
}

func (c *cli) parseCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Extract the form fields a manifest sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := c.output()
			if err != nil {
				return err
			}
			text, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			client, err := c.client()
			if err != nil {
				return err
			}
			patch, err := client.Parse(cmd.Context(), text)
			if err != nil {
				return err
			}
			return printStructured(cmd, format, patch)
		},
	}
	cmd.Flags().StringVarP(&file, "filename", "f", "", "manifest file, - for stdin")
	return cmd
}

func (c *cli) validateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a Deployment manifest and list every field error",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			text, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			client, err := c.client()
			if err != nil {
				return err
			}
			res, err := client.Validate(cmd.Context(), text)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.Valid {
				_, err = fmt.Fprintln(out, "valid")
				return err
			}
			for _, fe := range res.Errors {
				fmt.Fprintln(out, fe.String())
			}
			return fmt.Errorf("manifest is invalid: %d error(s)", len(res.Errors))
		},
	}
	cmd.Flags().StringVarP(&file, "filename", "f", "", "manifest file, - for stdin")
	return cmd
}

func (c *cli) templatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates [type]",
		Short: "List starter manifests, or print one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}

			if len(args) == 1 {
				tpl, err := client.Template(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), tpl.YAML)
				return err
			}

			tpls, err := client.Templates(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tDESCRIPTION")
			for _, t := range tpls {
				fmt.Fprintf(tw, "%s\t%s\n", t.Type, t.Description)
			}
			return tw.Flush()
		},
	}
}

// printStructured writes v as YAML or indented JSON.
func printStructured(cmd *cobra.Command, format string, v any) error {
	var (
		b   []byte
		err error
	)
	if format == "json" {
		b, err = json.MarshalIndent(v, "", "  ")
		b = append(b, '\n')
	} else {
		b, err = yaml.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(b)
	return err
}
