package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/larder/pkg/schema"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect the loaded schema",
	}
	cmd.AddCommand(newSchemaShowCmd())
	return cmd
}

func newSchemaShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print registered model types and their fields",
		Args:  cobra.NoArgs,
		RunE:  runSchemaShow,
	}
}

// schemaFieldJSON is the JSON projection of one field.
type schemaFieldJSON struct {
	Name      string            `json:"name"`
	StorageID int               `json:"storage_id"`
	Kind      string            `json:"kind"`
	Targets   []string          `json:"targets,omitempty"`
	Subs      []schemaFieldJSON `json:"subs,omitempty"`
}

// schemaTypeJSON is the JSON projection of one model type.
type schemaTypeJSON struct {
	Name       string            `json:"name"`
	StorageID  int               `json:"storage_id"`
	Supertypes []string          `json:"supertypes,omitempty"`
	Fields     []schemaFieldJSON `json:"fields"`
}

func runSchemaShow(cmd *cobra.Command, args []string) error {
	cfg, err := larderConfig()
	if err != nil {
		return exitError(cmd, exitUserError, err.Error())
	}
	reg, err := schema.LoadFile(cfg.SchemaFile)
	if err != nil {
		return exitError(cmd, exitUserError, fmt.Sprintf("load schema: %v", err))
	}

	types := reg.Types().Sorted()

	if flags.jsonMode {
		out := make([]schemaTypeJSON, 0, len(types))
		for _, t := range types {
			out = append(out, typeJSON(t))
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	w := cmd.OutOrStdout()
	for _, t := range types {
		fmt.Fprintf(w, "%s (#%d)", t.Name, t.StorageID)
		if len(t.Supertypes) > 0 {
			fmt.Fprintf(w, " is-a %s", strings.Join(t.Supertypes, ", "))
		}
		fmt.Fprintln(w)
		for _, f := range t.Fields {
			printField(w, f, "  ")
		}
	}
	return nil
}

func typeJSON(t *schema.ModelType) schemaTypeJSON {
	out := schemaTypeJSON{
		Name:       t.Name,
		StorageID:  t.StorageID,
		Supertypes: t.Supertypes,
		Fields:     make([]schemaFieldJSON, 0, len(t.Fields)),
	}
	for _, f := range t.Fields {
		out.Fields = append(out.Fields, fieldJSON(f))
	}
	return out
}

func fieldJSON(f *schema.Field) schemaFieldJSON {
	out := schemaFieldJSON{
		Name:      f.Name,
		StorageID: f.StorageID,
		Kind:      f.Kind.String(),
		Targets:   f.Targets,
	}
	for _, sub := range f.Subs {
		out.Subs = append(out.Subs, fieldJSON(sub))
	}
	return out
}

func printField(w io.Writer, f *schema.Field, indent string) {
	line := fmt.Sprintf("%s%s (#%d, %s", indent, f.Name, f.StorageID, f.Kind)
	if len(f.Targets) > 0 {
		line += " -> " + strings.Join(f.Targets, ", ")
	}
	line += ")"
	fmt.Fprintln(w, line)
	for _, sub := range f.Subs {
		printField(w, sub, indent+"  ")
	}
}
