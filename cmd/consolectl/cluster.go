package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/api/resource"
	"sigs.k8s.io/yaml"

	"github.com/kubeadapt/kubeadapt-console/pkg/model"
)

func (c *cli) applyCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Create or update the object a manifest describes",
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
			res, err := client.Apply(cmd.Context(), text)
			if err != nil {
				return err
			}
			return printResult(cmd, res)
		},
	}
	cmd.Flags().StringVarP(&file, "filename", "f", "", "manifest file, - for stdin")
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the object a manifest names",
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
			res, err := client.Delete(cmd.Context(), text)
			if err != nil {
				return err
			}
			return printResult(cmd, res)
		},
	}
	cmd.Flags().StringVarP(&file, "filename", "f", "", "manifest file, - for stdin")
	return cmd
}

func (c *cli) resourcesCmd() *cobra.Command {
	var namespace string
	cmd := &cobra.Command{
		Use:   "resources KIND",
		Short: "List cached cluster objects of one kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := c.output()
			if err != nil {
				return err
			}
			client, err := c.client()
			if err != nil {
				return err
			}
			raw, err := client.Resources(cmd.Context(), args[0], namespace)
			if err != nil {
				return err
			}

			var out []byte
			if format == "json" {
				var buf bytes.Buffer
				if err := json.Indent(&buf, raw, "", "  "); err != nil {
					return err
				}
				buf.WriteByte('\n')
				out = buf.Bytes()
			} else if out, err = yaml.JSONToYAML(raw); err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "limit to one namespace")
	return cmd
}

func (c *cli) logsCmd() *cobra.Command {
	var (
		opts model.LogOptions
		tail int64
	)
	cmd := &cobra.Command{
		Use:   "logs POD",
		Short: "Print a container's logs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}
			opts.Pod = args[0]
			if tail >= 0 {
				opts.TailLines = &tail
			}
			return client.Logs(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.Namespace, "namespace", "n", "default", "pod namespace")
	cmd.Flags().StringVarP(&opts.Container, "container", "c", "", "container name, required for multi-container pods")
	cmd.Flags().Int64Var(&tail, "tail", -1, "lines from the end to show, -1 for all")
	cmd.Flags().BoolVarP(&opts.Follow, "follow", "f", false, "stream new lines until interrupted")
	return cmd
}

func (c *cli) statsCmd() *cobra.Command {
	var namespace string
	cmd := &cobra.Command{
		Use:   "stats POD",
		Short: "Show a pod's current CPU and memory usage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := c.output()
			if err != nil {
				return err
			}
			client, err := c.client()
			if err != nil {
				return err
			}
			ps, err := client.Stats(cmd.Context(), namespace, args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed(flagOutput) {
				return printStructured(cmd, format, ps)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CONTAINER\tCPU\tMEMORY")
			for _, cu := range ps.Containers {
				cpu := resource.NewMilliQuantity(int64(math.Round(cu.CPUUsageCores*1000)), resource.DecimalSI)
				mem := resource.NewQuantity(cu.MemoryUsageBytes, resource.BinarySI)
				fmt.Fprintf(tw, "%s\t%s\t%s\n", cu.Name, cpu, mem)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "default", "pod namespace")
	return cmd
}

func printResult(cmd *cobra.Command, res model.ApplyResult) error {
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s/%s %s\n", strings.ToLower(res.Kind), res.Name, res.Action)
	return err
}
