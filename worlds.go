package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tidegate/worldctl/internal/worldcache"
	"github.com/tidegate/worldctl/internal/worlds"
)

func newWorldsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worlds",
		Short: "List worlds",
		Long: `List all worlds visible to the authenticated admin.

Each successful fetch is cached locally; --cached renders the last
snapshot without contacting the API.`,
		RunE: runWorlds,
	}

	cmd.Flags().Bool("cached", false, "render the last cached snapshot instead of fetching")

	return cmd
}

func runWorlds(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	cached, _ := cmd.Flags().GetBool("cached")

	cache, err := worldcache.New(a.cfg.CachePath, a.logger)
	if err != nil {
		return fmt.Errorf("opening worlds cache: %w", err)
	}
	defer cache.Close()

	if cached {
		return renderCachedWorlds(cmd, cache)
	}

	if !a.session.IsAuthenticated() {
		return fmt.Errorf("not logged in (run 'worldctl login')")
	}

	list, err := worlds.List(cmd.Context(), a.client, a.retrier, a.session.Token())
	if err != nil {
		return fmt.Errorf("fetching worlds: %w", err)
	}

	// Cache failures must not hide a successful fetch.
	if cacheErr := cache.Replace(cmd.Context(), list); cacheErr != nil {
		a.logger.Warn("failed to cache worlds snapshot", "error", cacheErr.Error())
	}

	return renderWorlds(list)
}

func renderCachedWorlds(cmd *cobra.Command, cache *worldcache.Store) error {
	fetchedAt, err := cache.FetchedAt(cmd.Context())
	if err != nil {
		return err
	}

	if fetchedAt.IsZero() {
		return fmt.Errorf("no cached snapshot (run 'worldctl worlds' while logged in)")
	}

	list, err := cache.List(cmd.Context())
	if err != nil {
		return err
	}

	statusf(flagQuiet, "Cached snapshot from %s\n", formatTime(fetchedAt))

	return renderWorlds(list)
}

func renderWorlds(list []worlds.World) error {
	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(list)
	}

	if len(list) == 0 {
		fmt.Println("No worlds.")

		return nil
	}

	headers := []string{"ID", "NAME", "STATUS", "PLAYERS", "CREATED"}
	rows := make([][]string, 0, len(list))

	for _, w := range list {
		created := ""
		if !w.CreatedAt.IsZero() {
			created = formatTime(w.CreatedAt)
		}

		rows = append(rows, []string{
			w.ID,
			w.Name,
			statusTitle(w.Status),
			strconv.Itoa(w.Players),
			created,
		})
	}

	printTable(os.Stdout, headers, rows)

	return nil
}
