package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	apiFlag     string
	timeoutFlag time.Duration
)

func newRootCmd(out io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "photoctl",
		Short:         "CLI client for the photo service REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Photo service base URL")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 30*time.Second, "Request timeout")
	client := func() *photoClient { return newPhotoClient(apiFlag, timeoutFlag) }

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List photos of the default album, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			cursor, _ := cmd.Flags().GetString("cursor")
			page, err := client().List(cmd.Context(), limit, cursor)
			if err != nil {
				return err
			}
			return printJSON(out, page)
		},
	}
	listCmd.Flags().IntP("limit", "l", 0, "Page size (server default when 0)")
	listCmd.Flags().StringP("cursor", "c", "", "Cursor returned by a previous page")

	getCmd := &cobra.Command{
		Use:   "get <photoId>",
		Short: "Show the rows of one photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := client().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(out, page)
		},
	}

	uploadCmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload image files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := client().Upload(cmd.Context(), args)
			if err != nil {
				return err
			}
			return printJSON(out, map[string]interface{}{"photos": res})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <photoId>...",
		Short: "Delete photos of an album",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			album, _ := cmd.Flags().GetString("album")
			res, err := client().Delete(cmd.Context(), album, args)
			if err != nil {
				return err
			}
			return printJSON(out, res)
		},
	}
	deleteCmd.Flags().String("album", "all", "Album ID")

	rootCmd.AddCommand(listCmd, getCmd, uploadCmd, deleteCmd)
	return rootCmd
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
