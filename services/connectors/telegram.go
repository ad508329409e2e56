package connectors

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/mudler/xlog"

	"github.com/yanami/soulmaker/core/tracker"
	"github.com/yanami/soulmaker/pkg/bilibili"
)

// Telegram dispatches the chat commands to the tracker and the Bilibili
// client: /track <json>, /bili_rank [rid], /bili_random,
// /bili_search <keyword>, /bili_partition <rid>.
type Telegram struct {
	Token string
	bot   *bot.Bot

	tracker       *tracker.Tracker
	bilibili      *bilibili.Client
	maxIterations int

	admins []string
}

func NewTelegramConnector(token string, admins []string, t *tracker.Tracker, b *bilibili.Client, maxIterations int) (*Telegram, error) {
	if token == "" {
		return nil, errors.New("token is required")
	}
	if maxIterations < 1 {
		maxIterations = 5
	}
	return &Telegram{
		Token:         token,
		admins:        admins,
		tracker:       t,
		bilibili:      b,
		maxIterations: maxIterations,
	}, nil
}

// Start blocks until ctx is cancelled.
func (t *Telegram) Start(ctx context.Context) error {
	opts := []bot.Option{
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			go t.handleUpdate(ctx, b, update)
		}),
	}

	b, err := bot.New(t.Token, opts...)
	if err != nil {
		return err
	}

	t.bot = b
	b.Start(ctx)
	return nil
}

func (t *Telegram) handleUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	username := update.Message.From.Username
	if len(t.admins) > 0 && !slices.Contains(t.admins, username) {
		xlog.Info("Unauthorized user", "username", username)
		return
	}

	command, args := splitCommand(update.Message.Text)

	var reply string
	switch command {
	case "/track":
		reply = t.track(ctx, args)
	case "/bili_rank":
		reply = t.biliRank(ctx, args)
	case "/bili_random":
		reply = t.biliRandom(ctx)
	case "/bili_search":
		reply = t.biliSearch(ctx, args)
	case "/bili_partition":
		reply = t.biliPartition(ctx, args)
	default:
		return
	}

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   reply,
	})
	if err != nil {
		xlog.Error("Error sending message", "error", err)
	}
}

func splitCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	command, args, _ := strings.Cut(text, " ")
	// strip the @botname suffix of group commands
	command, _, _ = strings.Cut(command, "@")
	return command, strings.TrimSpace(args)
}

func (t *Telegram) track(ctx context.Context, stateJSON string) string {
	if stateJSON == "" {
		return "usage: /track <behavior state json>"
	}

	record, err := t.tracker.RunJSON(ctx, []byte(stateJSON), t.maxIterations)
	if err != nil {
		xlog.Error("Track command failed", "error", err)
		switch {
		case errors.Is(err, tracker.ErrInvalidState):
			return "that state doesn't parse, check the JSON"
		case errors.Is(err, tracker.ErrUpstream):
			return "the model isn't answering right now, try again later"
		default:
			return "something went wrong running the loop"
		}
	}

	sb := strings.Builder{}
	fmt.Fprintf(&sb, "ran %d step(s)\n", len(record.Steps))
	for _, step := range record.Steps {
		fmt.Fprintf(&sb, "%d. [%s] %s\n", step.Iteration, step.Action, step.Thought)
	}
	if b := record.FinalBehavior(); b != nil {
		fmt.Fprintf(&sb, "→ %s-%s %s (%s, %s)", b.Start, b.End, b.Activity, b.Cause, b.Mood)
	}
	return sb.String()
}

func (t *Telegram) biliRank(ctx context.Context, args string) string {
	rid := 0
	if args != "" {
		n, err := strconv.Atoi(args)
		if err != nil {
			return "usage: /bili_rank [rid]"
		}
		rid = n
	}

	videos, err := t.bilibili.Ranking(ctx, rid, "all")
	if err != nil {
		xlog.Error("Ranking lookup failed", "error", err)
		return "couldn't reach the ranking API"
	}
	return renderVideos(videos, 10)
}

func (t *Telegram) biliRandom(ctx context.Context) string {
	video, err := t.bilibili.RandomPopular(ctx)
	if err != nil {
		xlog.Error("Random lookup failed", "error", err)
		return "couldn't reach the popular API"
	}
	if video == nil {
		return "the popular list came back empty"
	}
	return fmt.Sprintf("%s — %s\nhttps://www.bilibili.com/video/%s", video.Title, video.Author, video.Bvid)
}

func (t *Telegram) biliSearch(ctx context.Context, keyword string) string {
	if keyword == "" {
		return "usage: /bili_search <keyword>"
	}
	videos, err := t.bilibili.Search(ctx, keyword, 1)
	if err != nil {
		xlog.Error("Search lookup failed", "error", err)
		return "couldn't reach the search API"
	}
	return renderVideos(videos, 10)
}

func (t *Telegram) biliPartition(ctx context.Context, args string) string {
	rid, err := strconv.Atoi(args)
	if err != nil {
		return "usage: /bili_partition <rid>"
	}
	videos, err := t.bilibili.Partition(ctx, rid, 1, 20)
	if err != nil {
		xlog.Error("Partition lookup failed", "error", err)
		return "couldn't reach the partition API"
	}
	return renderVideos(videos, 10)
}

func renderVideos(videos []bilibili.Video, limit int) string {
	if len(videos) == 0 {
		return "no videos found"
	}
	if len(videos) > limit {
		videos = videos[:limit]
	}
	sb := strings.Builder{}
	for i, v := range videos {
		fmt.Fprintf(&sb, "%d. %s — %s\n", i+1, v.Title, v.Author)
	}
	return strings.TrimRight(sb.String(), "\n")
}
