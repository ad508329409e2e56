package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mudler/xlog"

	"github.com/yanami/soulmaker/core/autopilot"
	"github.com/yanami/soulmaker/core/journal"
	"github.com/yanami/soulmaker/core/sse"
	"github.com/yanami/soulmaker/core/tracker"
	"github.com/yanami/soulmaker/pkg/bilibili"
	"github.com/yanami/soulmaker/pkg/llm"
	"github.com/yanami/soulmaker/pkg/weather"
	"github.com/yanami/soulmaker/services/connectors"
	"github.com/yanami/soulmaker/services/research"
	"github.com/yanami/soulmaker/webui"
)

var apiKey = os.Getenv("API_KEY")
var apiBaseURL = os.Getenv("API_BASE_URL")
var modelName = os.Getenv("MODEL_NAME")
var timeout = os.Getenv("SOULMAKER_TIMEOUT")
var stateDir = os.Getenv("SOULMAKER_STATE_DIR")
var address = os.Getenv("SOULMAKER_ADDRESS")
var maxIterationsEnv = os.Getenv("SOULMAKER_MAX_ITERATIONS")
var characterFile = os.Getenv("SOULMAKER_CHARACTER_FILE")
var apiKeysEnv = os.Getenv("SOULMAKER_API_KEYS")
var telegramToken = os.Getenv("SOULMAKER_TELEGRAM_TOKEN")
var telegramAdmins = os.Getenv("SOULMAKER_TELEGRAM_ADMINS")
var autopilotCron = os.Getenv("SOULMAKER_AUTOPILOT_CRON")

var maxIterations = 5

func init() {
	// fail fast on missing credentials, never discover it mid-call
	if apiKey == "" {
		panic("API_KEY not set")
	}
	if apiBaseURL == "" {
		apiBaseURL = "https://api.deepseek.com/v1"
	}
	if modelName == "" {
		modelName = "deepseek-chat"
	}
	if timeout == "" {
		timeout = "2m"
	}
	if address == "" {
		address = ":3000"
	}
	if stateDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			panic(err)
		}
		stateDir = filepath.Join(cwd, "data")
	}
	if maxIterationsEnv != "" {
		n, err := strconv.Atoi(maxIterationsEnv)
		if err != nil || n < 1 {
			panic("SOULMAKER_MAX_ITERATIONS must be a positive integer")
		}
		maxIterations = n
	}
}

func main() {
	os.MkdirAll(stateDir, 0755)

	store, err := journal.NewJSONStore(filepath.Join(stateDir, "behavior_log.json"))
	if err != nil {
		panic(err)
	}

	character := tracker.DefaultCharacter()
	if characterFile != "" {
		character, err = tracker.LoadCharacter(characterFile)
		if err != nil {
			panic(err)
		}
	}

	biliClient := bilibili.NewClient("")
	researcher := research.NewKeywordResearcher(weather.NewClient(""), biliClient)

	sseManager := sse.NewManager(5)

	engine, err := tracker.New(
		llm.NewClient(apiKey, apiBaseURL, timeout),
		tracker.WithModel(modelName),
		tracker.WithCharacter(character),
		tracker.WithResearcher(researcher),
		tracker.WithJournal(store),
		tracker.WithStepCallback(func(step tracker.Step) {
			sseManager.Send(sse.NewJSONMessage(step).WithEvent("step"))
		}),
	)
	if err != nil {
		panic(err)
	}

	if autopilotCron != "" {
		pilot := autopilot.New(engine, store, maxIterations, 5*time.Minute)
		if err := pilot.Start(autopilotCron); err != nil {
			panic(err)
		}
		defer pilot.Stop()
	}

	if telegramToken != "" {
		admins := []string{}
		if telegramAdmins != "" {
			admins = strings.Split(telegramAdmins, ",")
		}
		tg, err := connectors.NewTelegramConnector(telegramToken, admins, engine, biliClient, maxIterations)
		if err != nil {
			panic(err)
		}
		go func() {
			if err := tg.Start(context.Background()); err != nil {
				xlog.Error("Telegram connector stopped", "error", err)
			}
		}()
	}

	apiKeys := []string{}
	if apiKeysEnv != "" {
		apiKeys = strings.Split(apiKeysEnv, ",")
	}

	app := webui.NewApp(
		webui.WithTracker(engine),
		webui.WithJournal(store),
		webui.WithBilibili(biliClient),
		webui.WithSSEManager(sseManager),
		webui.WithApiKeys(apiKeys...),
		webui.WithMaxIterations(maxIterations),
	)

	xlog.Info("soulmaker listening", "address", address, "model", modelName)
	log.Fatal(app.Listen(address))
}
