// Command pilotctl is an offline companion to the server: it normalizes saved
// model output, signs request bodies and prints the canned fallback content.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"pilotscope/internal/config"
	"pilotscope/internal/fallback"
	"pilotscope/internal/model"
	"pilotscope/internal/normalize"
	"pilotscope/internal/service"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "pilotctl",
		Short:        "Tools for the pilotscope assessment backend",
		SilenceUsage: true,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.AddCommand(newNormalizeCmd(), newSignCmd(), newFallbackCmd())
	return root
}

func newNormalizeCmd() *cobra.Command {
	var kind string
	var count int
	cmd := &cobra.Command{
		Use:   "normalize [file|-]",
		Short: "Extract and normalize a saved model response",
		Long: `Runs JSON extraction and normalization over raw model output, exactly as the
server does, and prints the normalized JSON. Reads stdin when the file is "-" or omitted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			requestType, err := parseType(kind)
			if err != nil {
				return err
			}
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			var result interface{}
			if requestType == model.RequestGenerateReport {
				result, err = normalize.DecodeReport(string(raw))
			} else {
				result, err = normalize.DecodeQuestions(string(raw), count)
			}
			if err != nil {
				return fmt.Errorf("normalize: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&kind, "type", "questions", "questions or report")
	cmd.Flags().IntVar(&count, "count", config.DefaultQuestionCount, "expected number of questions")
	return cmd
}

func newSignCmd() *cobra.Command {
	var secret, bodyPath, nonce, timestamp string
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print the signature headers for a request body",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("HMAC_SECRET")
			}
			if secret == "" {
				return fmt.Errorf("--secret or HMAC_SECRET is required")
			}
			body, err := readInput(cmd, []string{bodyPath})
			if err != nil {
				return err
			}
			if nonce == "" {
				nonce = uuid.NewString()
			}
			if timestamp == "" {
				timestamp = strconv.FormatInt(time.Now().Unix(), 10)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", service.HeaderSignature, service.Sign([]byte(secret), timestamp, nonce, body))
			fmt.Fprintf(out, "%s: %s\n", service.HeaderTimestamp, timestamp)
			fmt.Fprintf(out, "%s: %s\n", service.HeaderNonce, nonce)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "shared HMAC secret (default $HMAC_SECRET)")
	cmd.Flags().StringVar(&bodyPath, "body", "-", "request body file, - for stdin")
	cmd.Flags().StringVar(&nonce, "nonce", "", "nonce (default: random uuid)")
	cmd.Flags().StringVar(&timestamp, "timestamp", "", "unix timestamp (default: now)")
	return cmd
}

func newFallbackCmd() *cobra.Command {
	var kind string
	var count int
	cmd := &cobra.Command{
		Use:   "fallback",
		Short: "Print the canned content served when generation fails",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			requestType, err := parseType(kind)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), fallback.For(requestType, count))
		},
	}
	cmd.Flags().StringVar(&kind, "type", "questions", "questions or report")
	cmd.Flags().IntVar(&count, "count", config.DefaultQuestionCount, "number of questions")
	return cmd
}

func parseType(kind string) (model.RequestType, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "questions", string(model.RequestGenerateQuestions):
		return model.RequestGenerateQuestions, nil
	case "report", string(model.RequestGenerateReport):
		return model.RequestGenerateReport, nil
	}
	return "", fmt.Errorf("unknown --type %q (want questions or report)", kind)
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "" || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", args[0], err)
	}
	return data, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
