package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/lunar-city/ticketbot/pkg/service/paste"
	"github.com/lunar-city/ticketbot/pkg/utils/logging"
)

// Transcript holds CLI flags for the transcript upload backend
type Transcript struct {
	backend        string
	pastebinAPIKey string
	gcsBucket      string
	gcsPrefix      string
}

func (x *Transcript) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "transcript-backend",
			Usage:       "Transcript upload backend (pastebin, gcs, or none)",
			Category:    "Transcript",
			Value:       "none",
			Sources:     cli.EnvVars("TICKETBOT_TRANSCRIPT_BACKEND"),
			Destination: &x.backend,
		},
		&cli.StringFlag{
			Name:        "pastebin-api-key",
			Usage:       "Pastebin developer API key",
			Category:    "Transcript",
			Sources:     cli.EnvVars("TICKETBOT_PASTEBIN_API_KEY"),
			Destination: &x.pastebinAPIKey,
		},
		&cli.StringFlag{
			Name:        "gcs-bucket",
			Usage:       "GCS bucket for transcript objects",
			Category:    "Transcript",
			Sources:     cli.EnvVars("TICKETBOT_GCS_BUCKET"),
			Destination: &x.gcsBucket,
		},
		&cli.StringFlag{
			Name:        "gcs-prefix",
			Usage:       "Object name prefix inside the GCS bucket",
			Category:    "Transcript",
			Value:       "transcripts",
			Sources:     cli.EnvVars("TICKETBOT_GCS_PREFIX"),
			Destination: &x.gcsPrefix,
		},
	}
}

// Configure builds the transcript uploader. The returned closer
// releases backend resources.
func (x *Transcript) Configure(ctx context.Context) (paste.Uploader, func(), error) {
	switch x.backend {
	case "pastebin":
		if x.pastebinAPIKey == "" {
			return nil, nil, goerr.New("pastebin-api-key is required for the pastebin backend")
		}
		logging.Default().Info("Using Pastebin transcript backend")
		return paste.NewPastebin(x.pastebinAPIKey), func() {}, nil

	case "gcs":
		uploader, err := paste.NewCloudStorage(ctx, x.gcsBucket, x.gcsPrefix)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to initialize GCS transcript backend")
		}
		logging.Default().Info("Using GCS transcript backend", "bucket", x.gcsBucket)
		closer := func() {
			if err := uploader.Close(); err != nil {
				logging.Default().Error("failed to close GCS client", "error", err)
			}
		}
		return uploader, closer, nil

	case "none":
		logging.Default().Info("Transcript upload disabled")
		return paste.Discard{}, func() {}, nil

	default:
		return nil, nil, goerr.New("invalid transcript backend", goerr.V("backend", x.backend))
	}
}
