// Package publisher uploads composed videos to YouTube through the Data API
// v3 using a refresh-token OAuth flow.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
	"reelsmith/internal/services/llm"
	"reelsmith/internal/worklist"
)

// Publisher uploads one video per work item.
type Publisher struct {
	cfg    config.YouTube
	logger *slog.Logger

	// newService is swapped in tests to avoid real API calls.
	newService func(ctx context.Context) (*youtube.Service, error)
}

// New constructs a publisher from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Publisher{
		cfg:    cfg.YouTube,
		logger: logger.With(logging.String(logging.FieldComponent, "publisher")),
	}
	p.newService = p.buildService
	return p
}

func (p *Publisher) buildService(ctx context.Context) (*youtube.Service, error) {
	if p.cfg.ClientID == "" || p.cfg.ClientSecret == "" || p.cfg.RefreshToken == "" {
		return nil, services.Wrap(services.ErrConfiguration, worklist.StagePublish, "auth",
			"YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET, and YOUTUBE_REFRESH_TOKEN must be set", nil)
	}

	conf := &oauth2.Config{
		ClientID:     p.cfg.ClientID,
		ClientSecret: p.cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope},
	}
	token := &oauth2.Token{
		RefreshToken: p.cfg.RefreshToken,
		// Force an immediate refresh so auth problems surface before upload.
		Expiry: time.Now().Add(-time.Hour),
	}

	svc, err := youtube.NewService(ctx, option.WithTokenSource(conf.TokenSource(ctx, token)))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, worklist.StagePublish, "auth", "create youtube service", err)
	}
	return svc, nil
}

func wrapUploadError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		marker := services.ErrTransient
		switch {
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			marker = services.ErrConfiguration
		case apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != http.StatusTooManyRequests:
			marker = services.ErrValidation
		}
		return services.Wrap(marker, worklist.StagePublish, "upload",
			fmt.Sprintf("youtube api: http %d: %s", apiErr.Code, apiErr.Message), err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return services.Wrap(services.ErrTransient, worklist.StagePublish, "upload", "youtube upload", err)
}

// Publish uploads the video file and returns the public watch URL.
func (p *Publisher) Publish(ctx context.Context, item worklist.Item, script *llm.Script, videoPath string) (string, error) {
	svc, err := p.newService(ctx)
	if err != nil {
		return "", err
	}

	meta := BuildMetadata(item, script)
	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:                meta.Title,
			Description:          meta.Description,
			Tags:                 meta.Tags,
			CategoryId:           p.cfg.CategoryID,
			DefaultLanguage:      p.cfg.DefaultLanguage,
			DefaultAudioLanguage: p.cfg.DefaultLanguage,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           p.cfg.PrivacyStatus,
			SelfDeclaredMadeForKids: p.cfg.MadeForKids,
		},
	}

	file, err := os.Open(videoPath)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, worklist.StagePublish, "upload",
			fmt.Sprintf("open video file %s", videoPath), err)
	}
	defer file.Close()

	log := logging.WithContext(ctx, p.logger)
	if info, err := file.Stat(); err == nil {
		log.Info("uploading video",
			logging.String("title", meta.Title),
			logging.Int64("size_bytes", info.Size()),
			logging.String("privacy", p.cfg.PrivacyStatus))
	}

	uploaded, err := svc.Videos.Insert([]string{"snippet", "status"}, video).
		NotifySubscribers(p.cfg.NotifySubscribers).
		Media(file).Context(ctx).Do()
	if err != nil {
		return "", wrapUploadError(err)
	}

	watchURL := fmt.Sprintf("https://www.youtube.com/watch?v=%s", uploaded.Id)
	log.Info("video published",
		logging.String("video_id", uploaded.Id),
		logging.String("url", watchURL))
	return watchURL, nil
}

// HealthCheck verifies OAuth credentials are present without uploading.
func (p *Publisher) HealthCheck(ctx context.Context) error {
	if p.cfg.ClientID == "" || p.cfg.ClientSecret == "" || p.cfg.RefreshToken == "" {
		return services.Wrap(services.ErrConfiguration, worklist.StagePublish, "health",
			"youtube oauth credentials missing from environment", nil)
	}
	return nil
}
