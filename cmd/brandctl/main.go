// brandctl drives the transform API from the command line: upload an
// image, wait for the pipeline to finish and print the result.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"brandify/internal/transform"
)

var logger zerolog.Logger

func main() {
	_ = godotenv.Load()

	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	rootCmd := &cobra.Command{
		Use:   "brandctl",
		Short: "Client for the brand style transform API",
	}
	rootCmd.AddCommand(newTransformCmd())

	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newTransformCmd() *cobra.Command {
	var (
		serverURL string
		filePath  string
		style     string
		interval  time.Duration
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Upload an image and wait for the styled result",
		RunE: func(cmd *cobra.Command, args []string) error {
			if filePath == "" {
				return fmt.Errorf("--file is required")
			}
			snap, err := createTransform(serverURL, filePath, style)
			if err != nil {
				return err
			}
			logger.Info().Str("session_id", snap.SessionID).Msg("transform started")

			final, err := waitForResult(serverURL, snap.SessionID, interval, timeout)
			if err != nil {
				return err
			}
			return printResult(final)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "transform API base URL")
	cmd.Flags().StringVarP(&filePath, "file", "f", "", "image file to transform")
	cmd.Flags().StringVarP(&style, "style", "s", "", "optional style directive")
	cmd.Flags().DurationVar(&interval, "poll-interval", time.Second, "status poll interval")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall wait timeout")
	return cmd
}

func createTransform(serverURL, filePath, style string) (transform.Snapshot, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return transform.Snapshot{}, fmt.Errorf("read image: %w", err)
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("image", filepath.Base(filePath))
	if err != nil {
		return transform.Snapshot{}, err
	}
	if _, err := part.Write(data); err != nil {
		return transform.Snapshot{}, err
	}
	if style != "" {
		if err := form.WriteField("style", style); err != nil {
			return transform.Snapshot{}, err
		}
	}
	if err := form.Close(); err != nil {
		return transform.Snapshot{}, err
	}

	resp, err := http.Post(serverURL+"/v1/transforms", form.FormDataContentType(), &body)
	if err != nil {
		return transform.Snapshot{}, fmt.Errorf("create transform: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return transform.Snapshot{}, err
	}
	if resp.StatusCode != http.StatusAccepted {
		return transform.Snapshot{}, fmt.Errorf("create transform: http %d: %s", resp.StatusCode, raw)
	}
	var snap transform.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return transform.Snapshot{}, fmt.Errorf("decode response: %w", err)
	}
	return snap, nil
}

func waitForResult(serverURL, sessionID string, interval, timeout time.Duration) (transform.Snapshot, error) {
	deadline := time.Now().Add(timeout)
	lastProgress := ""
	for time.Now().Before(deadline) {
		resp, err := http.Get(fmt.Sprintf("%s/v1/transforms/%s", serverURL, sessionID))
		if err != nil {
			return transform.Snapshot{}, fmt.Errorf("poll transform: %w", err)
		}
		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return transform.Snapshot{}, err
		}
		if resp.StatusCode != http.StatusOK {
			return transform.Snapshot{}, fmt.Errorf("poll transform: http %d: %s", resp.StatusCode, raw)
		}
		var snap transform.Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return transform.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
		}
		if snap.Progress != "" && snap.Progress != lastProgress {
			logger.Info().Msg(snap.Progress)
			lastProgress = snap.Progress
		}
		if snap.Phase.Terminal() {
			return snap, nil
		}
		time.Sleep(interval)
	}
	return transform.Snapshot{}, fmt.Errorf("transform did not finish within %s", timeout)
}

func printResult(snap transform.Snapshot) error {
	if snap.Phase != transform.PhaseSucceeded {
		return fmt.Errorf("transform failed (%s): %s", snap.ErrorKind, snap.Error)
	}
	fmt.Println(snap.ImageURL)
	if snap.Details == nil {
		return nil
	}
	if snap.Details.TransformationDescription != "" {
		fmt.Println("description:", snap.Details.TransformationDescription)
	}
	if snap.Details.StyleElementsApplied != "" {
		fmt.Println("style elements:", snap.Details.StyleElementsApplied)
	}
	if snap.Details.ColorPaletteUsed != "" {
		fmt.Println("color palette:", snap.Details.ColorPaletteUsed)
	}
	return nil
}
