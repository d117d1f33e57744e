package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/larder/pkg/store"
)

func newObjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "object",
		Short: "Create, inspect, and delete stored objects",
	}
	cmd.AddCommand(newObjectCreateCmd())
	cmd.AddCommand(newObjectGetCmd())
	cmd.AddCommand(newObjectSetCmd())
	cmd.AddCommand(newObjectDeleteCmd())
	cmd.AddCommand(newObjectListCmd())
	return cmd
}

func newObjectCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create TYPE",
		Short: "Create a new object of the given type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := openLarder()
			if err != nil {
				return exitError(cmd, exitSysError, err.Error())
			}
			defer l.Close()

			id, err := l.Objects.Create(args[0])
			if err != nil {
				return exitError(cmd, exitUserError, err.Error())
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func newObjectGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get TYPE ID FIELD",
		Short: "Read a field value from an object",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := openLarder()
			if err != nil {
				return exitError(cmd, exitSysError, err.Error())
			}
			defer l.Close()

			value, err := l.Objects.GetField(args[0], args[1], args[2])
			if err != nil {
				return exitError(cmd, exitUserError, err.Error())
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			if flags.jsonMode {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(value)
		},
	}
}

func newObjectSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set TYPE ID FIELD VALUE",
		Short: "Write a field value on an object",
		Long: "Set writes a field value. VALUE is parsed as JSON when possible;\n" +
			"otherwise it is stored as a plain string. Reference fields take an\n" +
			"object {\"type\": ..., \"id\": ...}.",
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := openLarder()
			if err != nil {
				return exitError(cmd, exitSysError, err.Error())
			}
			defer l.Close()

			var value any
			if err := json.Unmarshal([]byte(args[3]), &value); err != nil {
				value = args[3]
			}
			if ref, ok := asRef(value); ok {
				value = ref
			}
			if err := l.Objects.SetField(args[0], args[1], args[2], value); err != nil {
				return exitError(cmd, exitUserError, err.Error())
			}
			return nil
		},
	}
}

// asRef recognizes a decoded {"type": ..., "id": ...} object as a
// reference value.
func asRef(value any) (store.Ref, bool) {
	m, ok := value.(map[string]any)
	if !ok || len(m) != 2 {
		return store.Ref{}, false
	}
	typeName, ok := m["type"].(string)
	if !ok {
		return store.Ref{}, false
	}
	id, ok := m["id"].(string)
	if !ok {
		return store.Ref{}, false
	}
	return store.Ref{Type: typeName, ID: id}, true
}

func newObjectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete TYPE ID",
		Short: "Delete an object and all of its fields",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := openLarder()
			if err != nil {
				return exitError(cmd, exitSysError, err.Error())
			}
			defer l.Close()

			if err := l.Objects.Delete(args[0], args[1]); err != nil {
				return exitError(cmd, exitUserError, err.Error())
			}
			return nil
		},
	}
}

func newObjectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list TYPE",
		Short: "List object IDs of the given type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := openLarder()
			if err != nil {
				return exitError(cmd, exitSysError, err.Error())
			}
			defer l.Close()

			ids, err := l.Objects.ObjectIDs(args[0])
			if err != nil {
				return exitError(cmd, exitUserError, err.Error())
			}
			if flags.jsonMode {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(ids)
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}
