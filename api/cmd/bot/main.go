package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nonemergency-bot/api/internal/config"
	"nonemergency-bot/api/internal/dialog"
	"nonemergency-bot/api/internal/luis"
	"nonemergency-bot/api/internal/store"
	"nonemergency-bot/api/internal/telegram"
	"nonemergency-bot/api/internal/vision"
	"nonemergency-bot/api/internal/vision/azure"
	"nonemergency-bot/api/internal/vision/gemini"
	"nonemergency-bot/pkg/metrics"
)

const firstCrimeRef = 100

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	metrics.Init()

	// --- Postgres ---
	dsn := resolveDSN()
	if dsn == "" {
		log.Fatal("database DSN is empty: set DATABASE_URL or POSTGRES_* env vars")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("sql.Open: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(1 * time.Hour)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			log.Fatalf("db.Ping: %v", err)
		}
		logger.Info("db connected", "summary", safeDSNSummary(dsn))
	}
	reports := store.NewReportRepo(db)

	// Crime references resume past anything already archived.
	refs := dialog.NewRefSequence(firstCrimeRef)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if last, ok, err := reports.LastCrimeRef(ctx); err != nil {
			log.Fatalf("reports.LastCrimeRef: %v", err)
		} else if ok && last >= firstCrimeRef {
			refs = dialog.NewRefSequence(last + 1)
		}
	}

	// --- External services ---
	classifier := luis.New(cfg.LUISEndpoint, cfg.LUISAppID, cfg.LUISSubscriptionKey)
	var tagger vision.Tagger
	switch cfg.VisionEngine {
	case "gemini":
		tagger = gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		tagger = azure.New(cfg.VisionEndpoint, cfg.VisionAPIKey)
	}
	logger.Info("vision engine selected", "engine", tagger.Name())

	// --- Telegram bot ---
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal(err)
	}
	bot.Debug = false

	wizard := dialog.NewWizard(classifier, tagger, telegram.Download, refs, logger)
	router := &telegram.Router{
		Bot:      bot,
		Sessions: dialog.NewSessions(),
		Wizard:   wizard,
		Reports:  reports,
		Log:      logger,
	}

	// --- HTTP mux (DefaultServeMux, so ListenForWebhook slots in) ---
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db: not ok\n" + err.Error()))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	// operator lookup of an archived report by reference number
	http.HandleFunc("/reports", func(w http.ResponseWriter, r *http.Request) {
		ref, err := strconv.ParseInt(r.URL.Query().Get("ref"), 10, 64)
		if err != nil {
			http.Error(w, "ref must be an integer", http.StatusBadRequest)
			return
		}
		rep, err := reports.FindByCrimeRef(r.Context(), ref)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rep)
	})

	addr := "0.0.0.0:" + cfg.Port
	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		startWebhookMode(addr, bot, router, webhookURL, logger)
	} else {
		startPollingMode(addr, bot, router, logger)
	}
}

// ---------------- Modes -----------------

func startWebhookMode(addr string, bot *tgbotapi.BotAPI, router *telegram.Router, baseURL string, logger *slog.Logger) {
	path := "/webhook/" + shortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		log.Fatal(err)
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		log.Fatal(err)
	}

	updates := bot.ListenForWebhook(path)
	go func() {
		for upd := range updates {
			router.HandleUpdate(upd)
		}
		logger.Info("webhook updates channel closed")
	}()

	logger.Info("webhook listening", "addr", addr, "path", path)
	if err := http.ListenAndServe(addr, nil); err != nil { // DefaultServeMux
		log.Fatal(err)
	}
}

func startPollingMode(addr string, bot *tgbotapi.BotAPI, router *telegram.Router, logger *slog.Logger) {
	go func() {
		logger.Info("health server listening", "addr", addr)
		if err := http.ListenAndServe(addr, nil); err != nil { // DefaultServeMux
			log.Fatal(err)
		}
	}()

	runPolling(context.Background(), bot, logger, router.HandleUpdate)
}

// ---------------- Polling loop -----------------

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") { // HTTP 429 from Telegram
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return 1 * time.Second
}

func runPolling(ctx context.Context, bot *tgbotapi.BotAPI, logger *slog.Logger, handle func(tgbotapi.Update)) {
	offset := 0
	baseDelay := 1 * time.Second
	maxDelay := 15 * time.Second

	for {
		select {
		case <-ctx.Done():
			logger.Info("polling: context cancelled")
			return
		default:
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30 // long polling timeout (sec)

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := retryDelayFromError(err)
			if d < baseDelay {
				d = baseDelay
			}
			if d > maxDelay {
				d = maxDelay
			}
			logger.Error("polling error", "err", err, "retry_in", d)
			time.Sleep(d)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}

		if len(updates) == 0 {
			time.Sleep(200 * time.Millisecond)
		}
	}
}

// ---------------- Helpers -----------------

func resolveDSN() string {
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		return v
	}
	user := getenvDefault("POSTGRES_USER", "policebot")
	pass := os.Getenv("POSTGRES_PASSWORD")
	host := getenvDefault("PGHOST", "db")
	port := getenvDefault("PGPORT", "5432")
	dbName := getenvDefault("POSTGRES_DB", "policebot")

	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, pass),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + dbName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func getenvDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func shortHash(s string) string {
	// FNV-ish path token for the webhook; stable per bot token
	h := uint64(1469598103934665603)
	const prime = 1099511628211
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		out[i] = hexdigits[h&0xF]
		h >>= 4
	}
	return string(out)
}

func safeDSNSummary(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "dsn: parse error"
	}
	user := u.User.Username()
	host := u.Host
	port := ""
	if h, p, err := net.SplitHostPort(u.Host); err == nil {
		host, port = h, p
	}
	dbName := strings.TrimPrefix(u.Path, "/")
	if port == "" {
		return "host=" + host + " db=" + dbName + " user=" + user
	}
	return "host=" + host + " port=" + port + " db=" + dbName + " user=" + user
}
