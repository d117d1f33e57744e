package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newResolveCmd() *cobra.Command {
	var startTypes []string

	cmd := &cobra.Command{
		Use:   "resolve PATH",
		Short: "Resolve a reference path expression against the schema",
		Long: "Resolve parses and type-checks a chain-of-references path expression\n" +
			"starting from the given model types, printing the reference fields it\n" +
			"traverses and the types reachable at each step.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, startTypes, args[0])
		},
	}
	cmd.Flags().StringArrayVarP(&startTypes, "type", "t", nil, "starting model type (repeatable)")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

// resolveJSON is the JSON projection of a resolved path.
type resolveJSON struct {
	Path            string     `json:"path"`
	ReferenceFields []int      `json:"reference_fields"`
	TypeSets        [][]string `json:"type_sets"`
	StartingTypes   []string   `json:"starting_types"`
	TargetTypes     []string   `json:"target_types"`
	Singular        bool       `json:"singular"`
}

func runResolve(cmd *cobra.Command, startTypes []string, path string) error {
	l, err := openLarder()
	if err != nil {
		return exitError(cmd, exitSysError, err.Error())
	}
	defer l.Close()

	rp, err := l.Resolve(startTypes, path)
	if err != nil {
		return exitError(cmd, exitUserError, err.Error())
	}

	if flags.jsonMode {
		sets := rp.TypeSets()
		out := resolveJSON{
			Path:            rp.String(),
			ReferenceFields: rp.ReferenceFields(),
			TypeSets:        make([][]string, 0, len(sets)),
			StartingTypes:   rp.StartingTypes().Names(),
			TargetTypes:     rp.TargetTypes().Names(),
			Singular:        rp.IsSingular(),
		}
		for _, s := range sets {
			out.TypeSets = append(out.TypeSets, s.Names())
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "path: %q\n", rp.String())
	fmt.Fprintf(w, "steps: %d\n", rp.Size())
	fmt.Fprintf(w, "singular: %v\n", rp.IsSingular())
	fmt.Fprintf(w, "fields: %v\n", rp.ReferenceFields())
	for i, s := range rp.TypeSets() {
		label := fmt.Sprintf("types[%d]", i)
		if i == 0 {
			label = "start"
		} else if i == rp.Size() {
			label = "target"
		}
		fmt.Fprintf(w, "%s: %s\n", label, strings.Join(s.Names(), ", "))
	}
	return nil
}
