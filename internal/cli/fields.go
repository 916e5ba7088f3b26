package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// FieldInfo describes a declared filter field in command output.
type FieldInfo struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Type        string `json:"type"`
	Target      string `json:"target"`
	Clause      string `json:"clause"`
	Description string `json:"description,omitempty"`
}

// NewFieldsCommand creates the fields command.
func NewFieldsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "fields",
		Short:         "List the fields of a filter definition",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFields(rootOpts, cmd)
		},
	}
}

func runFields(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	loaded, err := opts.load()
	if err != nil {
		return err
	}

	var infos []FieldInfo
	for _, f := range loaded.Definition.Fields() {
		infos = append(infos, FieldInfo{
			Name:        f.Name,
			Kind:        f.Kind.Name(),
			Type:        string(f.ValueType),
			Target:      f.Target.String(),
			Clause:      f.Clause.String(),
			Description: f.Description,
		})
	}
	if formatter.JSON() {
		return formatter.Success(infos)
	}

	w := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD\tKIND\tTYPE\tTARGET\tCLAUSE")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", info.Name, info.Kind, info.Type, info.Target, info.Clause)
	}
	return w.Flush()
}
