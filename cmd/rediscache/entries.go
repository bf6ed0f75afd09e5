package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/davicafu/rediscache/internal/cache/domain"
	"github.com/davicafu/rediscache/pkg/logger"
)

var (
	lifetime     int
	tags         []string
	fromStdin    bool
	skipValidity bool
	cleanMode    string
)

var getCmd = &cobra.Command{
	Use:   "get [ID]",
	Short: "Print the payload stored under ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, cleanup, err := newBackend(cmd.Context(), logger.Logger())
		if err != nil {
			return err
		}
		defer cleanup()

		data, ok, err := backend.Load(cmd.Context(), args[0], skipValidity)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%q not found", args[0])
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var setCmd = &cobra.Command{
	Use:   "set [ID] [VALUE]",
	Short: "Store VALUE (or stdin with --stdin) under ID",
	Long: `Store a payload under ID.

--lifetime 0 stores the entry without expiry; omitting it uses the configured
default lifetime (CACHE_LIFETIME).`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		switch {
		case fromStdin:
			b, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			data = b
		case len(args) == 2:
			data = []byte(args[1])
		default:
			return fmt.Errorf("missing VALUE (or use --stdin)")
		}

		backend, cleanup, err := newBackend(cmd.Context(), logger.Logger())
		if err != nil {
			return err
		}
		defer cleanup()

		lt := domain.UseDefaultLifetime
		if cmd.Flags().Changed("lifetime") {
			lt = lifetime
		}
		if _, err := backend.Save(cmd.Context(), data, args[0], tags, lt); err != nil {
			return err
		}
		return printJSON(cmd, map[string]interface{}{"saved": true, "id": args[0], "bytes": len(data)})
	},
}

var delCmd = &cobra.Command{
	Use:   "del [ID]",
	Short: "Remove the entry stored under ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, cleanup, err := newBackend(cmd.Context(), logger.Logger())
		if err != nil {
			return err
		}
		defer cleanup()

		removed, err := backend.Remove(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]bool{"removed": removed})
	},
}

var idsCmd = &cobra.Command{
	Use:   "ids",
	Short: "List the ids stored in the configured database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, cleanup, err := newBackend(cmd.Context(), logger.Logger())
		if err != nil {
			return err
		}
		defer cleanup()

		ids, err := backend.GetIDs(cmd.Context())
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

var metaCmd = &cobra.Command{
	Use:   "meta [ID]",
	Short: "Show expiry and write time of ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, cleanup, err := newBackend(cmd.Context(), logger.Logger())
		if err != nil {
			return err
		}
		defer cleanup()

		md, ok, err := backend.GetMetadatas(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%q not found", args[0])
		}

		out := map[string]interface{}{
			"mtime": time.Unix(md.Mtime, 0).UTC().Format(time.RFC3339),
			"tags":  md.Tags,
		}
		if md.Never() {
			out["expire"] = "never"
		} else {
			out["expire"] = time.Unix(md.ExpireAt, 0).UTC().Format(time.RFC3339)
		}
		return printJSON(cmd, out)
	},
}

var touchCmd = &cobra.Command{
	Use:   "touch [ID] [EXTRA_SECONDS]",
	Short: "Extend the remaining lifetime of ID",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		extra, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid EXTRA_SECONDS %q: %w", args[1], err)
		}

		backend, cleanup, err := newBackend(cmd.Context(), logger.Logger())
		if err != nil {
			return err
		}
		defer cleanup()

		ok, err := backend.Touch(cmd.Context(), args[0], extra)
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]bool{"touched": ok})
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean the configured database",
	Long: `Clean the configured database.

Only --mode all has an effect: it flushes the whole database, regardless of
the prefix. Other modes are accepted and reported as unsupported.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, cleanup, err := newBackend(cmd.Context(), logger.Logger())
		if err != nil {
			return err
		}
		defer cleanup()

		ok, err := backend.Clean(cmd.Context(), domain.CleaningMode(cleanMode), tags)
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]bool{"cleaned": ok})
	},
}

var capsCmd = &cobra.Command{
	Use:   "caps",
	Short: "Print the backend capabilities",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, cleanup, err := newBackend(cmd.Context(), logger.Logger())
		if err != nil {
			return err
		}
		defer cleanup()
		return printJSON(cmd, backend.GetCapabilities())
	},
}

func init() {
	getCmd.Flags().BoolVar(&skipValidity, "skip-validity", false, "accepted for compatibility; expiry is enforced by the store")

	setCmd.Flags().IntVarP(&lifetime, "lifetime", "l", 0, "lifetime in seconds (0 = never expires)")
	setCmd.Flags().StringSliceVar(&tags, "tag", nil, "tag (not supported by the redis backend, reported only)")
	setCmd.Flags().BoolVar(&fromStdin, "stdin", false, "read the payload from stdin")

	cleanCmd.Flags().StringVar(&cleanMode, "mode", string(domain.ModeAll), "cleaning mode (all, old, matchingTag, notMatchingTag, matchingAnyTag)")
	cleanCmd.Flags().StringSliceVar(&tags, "tag", nil, "tags for tag-based modes")

	rootCmd.AddCommand(getCmd, setCmd, delCmd, idsCmd, metaCmd, touchCmd, cleanCmd, capsCmd)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

