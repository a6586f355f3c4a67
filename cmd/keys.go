package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/upliftlab/affirmd/internal/engine"
	"github.com/upliftlab/affirmd/internal/kvstore"
	"github.com/upliftlab/affirmd/internal/prompt"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Inspect and edit the versioned prompt configuration store",
}

func openStore() *kvstore.SQLiteStore {
	store, err := kvstore.NewSQLiteStore(GetConfig().Store.Path)
	if err != nil {
		exitErr(err)
	}
	return store
}

var keysListCmd = &cobra.Command{
	Use:   "list [version] [implementation]",
	Short: "List keys, optionally scoped to one version/implementation",
	Args:  cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer func() { _ = store.Close() }()
		ctx := cmd.Context()

		if len(args) == 2 {
			entries, err := store.EntriesFor(ctx, args[0], args[1])
			if err != nil {
				exitErr(err)
			}
			for _, e := range entries {
				fmt.Printf("%s\t%s\n", e.Key, string(e.Value))
			}
			return
		}

		keys, err := store.AllKeys(ctx)
		if err != nil {
			exitErr(err)
		}
		for _, k := range keys {
			fmt.Println(k)
		}
	},
}

var keysGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the value stored under a key",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer func() { _ = store.Close() }()

		entry, err := store.EntryByKey(cmd.Context(), args[0])
		if err != nil {
			exitErr(err)
		}
		fmt.Println(string(entry.Value))
	},
}

var keysSetCmd = &cobra.Command{
	Use:   "set <key> <text>",
	Short: "Create or update a text entry",
	Long: `Stores {"text": <text>} under the key, creating the entry when it does
not exist yet. Keys follow the version.keyName.implementation form, e.g.
af-01.prompt.default.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer func() { _ = store.Close() }()
		ctx := cmd.Context()

		key, text := args[0], args[1]
		if _, ok := kvstore.DecodeKey(key); !ok {
			exitErr(fmt.Errorf("key %q is not of the form version.keyName.implementation", key))
		}

		entry, err := store.EntryByKey(ctx, key)
		if err == nil {
			if err := store.UpdateValue(ctx, entry.ID, kvstore.TextValue(text)); err != nil {
				exitErr(err)
			}
			fmt.Println("updated", key)
			return
		}
		if _, err := store.CreateEntry(ctx, key, kvstore.TextValue(text)); err != nil {
			exitErr(err)
		}
		fmt.Println("created", key)
	},
}

var keysSetJSONCmd = &cobra.Command{
	Use:   "set-json <key> <json>",
	Short: "Create or update an entry with a raw JSON value",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer func() { _ = store.Close() }()
		ctx := cmd.Context()

		key, raw := args[0], args[1]
		if !json.Valid([]byte(raw)) {
			exitErr(fmt.Errorf("value is not valid JSON"))
		}

		entry, err := store.EntryByKey(ctx, key)
		if err == nil {
			if err := store.UpdateValue(ctx, entry.ID, json.RawMessage(raw)); err != nil {
				exitErr(err)
			}
			fmt.Println("updated", key)
			return
		}
		if _, err := store.CreateEntry(ctx, key, json.RawMessage(raw)); err != nil {
			exitErr(err)
		}
		fmt.Println("created", key)
	},
}

var keysRenameCmd = &cobra.Command{
	Use:   "rename <key> <newKey>",
	Short: "Rename a key in place, keeping its id and history",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer func() { _ = store.Close() }()
		ctx := cmd.Context()

		entry, err := store.EntryByKey(ctx, args[0])
		if err != nil {
			exitErr(err)
		}
		if err := store.RenameKey(ctx, entry.ID, args[1]); err != nil {
			exitErr(err)
		}
		fmt.Println("renamed", args[0], "->", args[1])
	},
}

var keysRmCmd = &cobra.Command{
	Use:   "rm <key>",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer func() { _ = store.Close() }()
		ctx := cmd.Context()

		entry, err := store.EntryByKey(ctx, args[0])
		if err != nil {
			exitErr(err)
		}
		if err := store.DeleteEntry(ctx, entry.ID); err != nil {
			exitErr(err)
		}
		fmt.Println("deleted", args[0])
	},
}

var keysCopyImplCmd = &cobra.Command{
	Use:   "copy-impl <version> <source> <new>",
	Short: "Copy every entry of one implementation under a new name",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer func() { _ = store.Close() }()

		copied, err := store.CreateImplementation(cmd.Context(), args[0], args[1], args[2])
		if err != nil {
			exitErr(err)
		}
		fmt.Printf("copied %d entries from %s.%s to %s.%s\n", copied, args[0], args[1], args[0], args[2])
	},
}

var keysSeedCmd = &cobra.Command{
	Use:   "seed <version>",
	Short: "Seed a version's default implementation with the built-in templates",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		version := args[0]
		exp, ok := engine.LookupExperiment(version)
		if !ok {
			exitErr(fmt.Errorf("unknown version %q (registered: %s)",
				version, strings.Join(engine.Versions(), ", ")))
		}

		store := openStore()
		defer func() { _ = store.Close() }()
		ctx := cmd.Context()

		seeds := map[string]string{
			kvstore.KeySystemPrompt: prompt.DefaultSystemPrompt,
			kvstore.KeyUserPrompt:   engine.DefaultTemplate(exp.Shape),
			kvstore.KeyTemperature:  strconv.FormatFloat(exp.DefaultTemperature, 'f', -1, 64),
		}
		for keyName, text := range seeds {
			key := kvstore.EncodeKey(version, keyName, kvstore.DefaultImplementation)
			if err := seedEntry(ctx, store, key, text); err != nil {
				exitErr(err)
			}
		}
		fmt.Printf("seeded %s.%s\n", version, kvstore.DefaultImplementation)
	},
}

// seedEntry creates a key only when it does not exist; existing entries are
// left alone so re-seeding never clobbers operator edits.
func seedEntry(ctx context.Context, store kvstore.Store, key, text string) error {
	_, err := store.CreateEntry(ctx, key, kvstore.TextValue(text))
	if errors.Is(err, kvstore.ErrDuplicateKey) {
		fmt.Println("exists, skipping", key)
		return nil
	}
	return err
}

func init() {
	keysCmd.AddCommand(keysListCmd, keysGetCmd, keysSetCmd, keysSetJSONCmd,
		keysRenameCmd, keysRmCmd, keysCopyImplCmd, keysSeedCmd)
	rootCmd.AddCommand(keysCmd)
}
