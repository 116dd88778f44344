package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"nonemergency-bot/pkg/metrics"
)

// attachmentURLs resolves a message's image attachments to fetchable
// content URLs. Telegram photos arrive as a preview pyramid; we take the
// largest size. Image documents count too.
func (r *Router) attachmentURLs(msg *tgbotapi.Message) []string {
	var urls []string

	if len(msg.Photo) > 0 {
		ph := msg.Photo[len(msg.Photo)-1]
		if u, err := r.fileURL(ph.FileID); err == nil {
			urls = append(urls, u)
		} else {
			r.Log.Error("resolve photo failed", "chat_id", msg.Chat.ID, "err", err)
			metrics.APIFailures.WithLabelValues("telegram").Inc()
		}
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		if u, err := r.fileURL(msg.Document.FileID); err == nil {
			urls = append(urls, u)
		} else {
			r.Log.Error("resolve document failed", "chat_id", msg.Chat.ID, "err", err)
			metrics.APIFailures.WithLabelValues("telegram").Inc()
		}
	}
	return urls
}

func (r *Router) fileURL(fileID string) (string, error) {
	file, err := r.Bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", r.Bot.Token, file.FilePath), nil
}

// Download fetches attachment content by URL. Passed to the wizard as
// its Fetcher.
func Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return io.ReadAll(resp.Body)
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}
