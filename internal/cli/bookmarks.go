package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tessro/woodshed/internal/core"
	werrors "github.com/tessro/woodshed/internal/errors"
)

var bookmarksCmd = &cobra.Command{
	Use:     "bookmarks",
	Aliases: []string{"bm"},
	Short:   "Manage saved loops",
	Long:    `Commands for listing, relabelling and deleting saved practice loops.`,
}

var bookmarksListCmd = &cobra.Command{
	Use:   "list [song-key]",
	Short: "List songs with saved loops, or the loops of one song",
	Long: `Without arguments, list every song that has been practiced along with its
key and number of saved loops. With a song key, list that song's loops.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBookmarksList,
}

var bookmarksLabelCmd = &cobra.Command{
	Use:   "label <id> <label>",
	Short: "Rename a saved loop",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runBookmarksLabel,
}

var bookmarksRmCmd = &cobra.Command{
	Use:     "rm <id>...",
	Aliases: []string{"delete"},
	Short:   "Delete saved loops",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runBookmarksRm,
}

func init() {
	bookmarksCmd.AddCommand(bookmarksListCmd)
	bookmarksCmd.AddCommand(bookmarksLabelCmd)
	bookmarksCmd.AddCommand(bookmarksRmCmd)
	rootCmd.AddCommand(bookmarksCmd)
}

func runBookmarksList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openBookmarks()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if len(args) == 1 {
		marks, err := store.List(ctx, args[0])
		if err != nil {
			return err
		}
		if JSONOutput() {
			return json.NewEncoder(os.Stdout).Encode(marks)
		}
		if len(marks) == 0 {
			fmt.Println("No saved loops for this song")
			return nil
		}
		printBookmarks(marks)
		return nil
	}

	tracks, err := store.Tracks(ctx)
	if err != nil {
		return err
	}
	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(tracks)
	}
	if len(tracks) == 0 {
		fmt.Println("No songs practiced yet")
		return nil
	}

	table := NewTable("KEY", "SONG", "ARTIST", "LOOPS", "LAST PRACTICED")
	for _, t := range tracks {
		last := "-"
		if !t.UpdatedAt.IsZero() {
			last = humanize.Time(t.UpdatedAt)
		}
		table.Row(t.Key, TruncateString(t.Name, 40), TruncateString(t.Artist, 30), strconv.Itoa(t.Bookmarks), last)
	}
	table.Flush()
	return nil
}

func runBookmarksLabel(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	label := strings.Join(args[1:], " ")

	store, err := openBookmarks()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.UpdateLabel(cmd.Context(), id, label); err != nil {
		return err
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"status": "updated",
			"id":     id,
			"label":  label,
		})
	}
	fmt.Printf("Bookmark %d is now %q\n", id, label)
	return nil
}

func runBookmarksRm(cmd *cobra.Command, args []string) error {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	store, err := openBookmarks()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	result := &werrors.PartialResult[[]int64]{}
	for _, id := range ids {
		if err := store.Delete(cmd.Context(), id); err != nil {
			result.AddError(fmt.Errorf("bookmark %d: %w", id, err))
			continue
		}
		result.Data = append(result.Data, id)
	}

	if JSONOutput() {
		out := map[string]interface{}{
			"status":  "deleted",
			"deleted": result.Data,
		}
		if result.HasErrors() {
			out["status"] = "partial"
			out["error"] = result.ErrorSummary()
		}
		if err := json.NewEncoder(os.Stdout).Encode(out); err != nil {
			return err
		}
		return result.Err()
	}

	for _, id := range result.Data {
		fmt.Printf("Deleted bookmark %d\n", id)
	}
	return result.Err()
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid bookmark id %q", s)
	}
	return id, nil
}

func printBookmarks(marks core.Bookmarks) {
	table := NewTable("ID", "LOOP", "LENGTH", "LABEL")
	for _, b := range marks.Sorted() {
		table.Row(
			strconv.FormatInt(b.ID, 10),
			b.Region().String(),
			fmt.Sprintf("%.1fs", b.Region().Duration()),
			b.Label,
		)
	}
	table.Flush()
}
