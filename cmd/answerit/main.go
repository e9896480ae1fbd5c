// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/answerit"
	"github.com/poiesic/answerit/ai"
	"github.com/poiesic/answerit/ai/tavily"
	"github.com/poiesic/answerit/core"
	"github.com/poiesic/answerit/orchestrate"
	redisstore "github.com/poiesic/answerit/storage/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "answerit",
		Usage: "Conversational question answering over indexed documents and the web",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "chat",
				Usage:  "Start an interactive chat session on a thread",
				Action: chatCommand,
				Flags: append(serviceFlags(),
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User identifier",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "thread",
						Aliases:  []string{"t"},
						Usage:    "Thread identifier",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "attachments",
						Usage: "Force document retrieval on every turn",
					},
					&cli.BoolFlag{
						Name:  "search",
						Usage: "Force web search on every turn",
					},
				),
			},
			{
				Name:      "index",
				Usage:     "Index a document file into a thread",
				ArgsUsage: "FILE",
				Action:    indexCommand,
				Flags: append(serviceFlags(),
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User identifier",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "thread",
						Aliases:  []string{"t"},
						Usage:    "Thread identifier",
						Required: true,
					},
				),
			},
			{
				Name:   "delete-thread",
				Usage:  "Delete a thread's messages, summary and documents",
				Action: deleteThreadCommand,
				Flags: append(serviceFlags(),
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User identifier",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "thread",
						Aliases:  []string{"t"},
						Usage:    "Thread identifier",
						Required: true,
					},
				),
			},
			{
				Name:   "delete-user",
				Usage:  "Delete all of a user's threads and documents",
				Action: deleteUserCommand,
				Flags: append(serviceFlags(),
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User identifier",
						Required: true,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serviceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "host",
			Usage:   "OpenAI-compatible service host URL",
			EnvVars: []string{"ANSWERIT_HOST"},
			Value:   "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "API token for the AI service",
			EnvVars: []string{"ANSWERIT_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			EnvVars: []string{"ANSWERIT_EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "chat-model",
			Usage:   "Answer-generation model name",
			EnvVars: []string{"ANSWERIT_CHAT_MODEL"},
		},
		&cli.StringFlag{
			Name:    "utility-model",
			Usage:   "Utility model name for decomposition and summarization",
			EnvVars: []string{"ANSWERIT_UTILITY_MODEL"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "Redis URL for conversation storage (documents stay in badger)",
			EnvVars: []string{"ANSWERIT_REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "tavily-key",
			Usage:   "Tavily API key enabling web search",
			EnvVars: []string{"TAVILY_API_KEY"},
		},
		&cli.BoolFlag{
			Name:  "consolidate",
			Usage: "Consolidate retrieved evidence per task before generation",
		},
	}
}

// openService assembles a Service from the command's flags.
func openService(c *cli.Context) (*answerit.Service, error) {
	var configOpts []ai.ConfigOption
	if v := c.String("host"); v != "" {
		configOpts = append(configOpts, ai.WithHost(v))
	}
	if v := c.String("token"); v != "" {
		configOpts = append(configOpts, ai.WithToken(v))
	}
	if v := c.String("embedding-model"); v != "" {
		configOpts = append(configOpts, ai.WithEmbeddingModel(v))
	}
	if v := c.String("chat-model"); v != "" {
		configOpts = append(configOpts, ai.WithChatModel(v))
	}
	if v := c.String("utility-model"); v != "" {
		configOpts = append(configOpts, ai.WithUtilityModel(v))
	}

	opts := []answerit.ServiceOption{
		answerit.WithAIConfig(ai.NewConfig(configOpts...)),
	}

	if url := c.String("redis-url"); url != "" {
		redisOpts, err := goredis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("invalid redis URL: %w", err)
		}
		opts = append(opts, answerit.WithThreadRepository(
			redisstore.NewThreadRepository(goredis.NewClient(redisOpts))))
	}

	if key := c.String("tavily-key"); key != "" {
		searcher, err := tavily.NewSearcher(key)
		if err != nil {
			return nil, fmt.Errorf("failed to create web searcher: %w", err)
		}
		opts = append(opts, answerit.WithWebSearcher(searcher))
	}

	if c.Bool("consolidate") {
		opts = append(opts, answerit.WithConsolidation())
	}

	return answerit.NewService(c.String("db"), opts...)
}

func chatCommand(c *cli.Context) error {
	ctx := context.Background()

	svc, err := openService(c)
	if err != nil {
		return fmt.Errorf("failed to open service: %w", err)
	}
	defer svc.Close()

	userID := c.String("user")
	threadID := c.String("thread")

	fmt.Fprintf(os.Stderr, "Chatting as %s on thread %s. Type /quit to exit.\n", userID, threadID)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "/quit" || line == "/exit" {
			break
		}

		req := orchestrate.TurnRequest{
			UserID:        userID,
			ThreadID:      threadID,
			Query:         line,
			UseAttachment: c.Bool("attachments"),
			UseSearch:     c.Bool("search"),
		}
		_, err := svc.ChatStream(ctx, req, func(chunk string) error {
			fmt.Print(chunk)
			return nil
		})
		fmt.Println()
		if err != nil {
			return fmt.Errorf("turn failed: %w", err)
		}
	}
	return scanner.Err()
}

func indexCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file argument")
	}
	path := c.Args().First()

	svc, err := openService(c)
	if err != nil {
		return fmt.Errorf("failed to open service: %w", err)
	}
	defer svc.Close()

	pipeline, err := svc.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	key := core.ThreadKey{UserID: c.String("user"), ThreadID: c.String("thread")}
	n, err := pipeline.IngestFile(ctx, key, path)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Indexed %d new chunks from %s\n", n, path)
	return nil
}

func deleteThreadCommand(c *cli.Context) error {
	ctx := context.Background()

	svc, err := openService(c)
	if err != nil {
		return fmt.Errorf("failed to open service: %w", err)
	}
	defer svc.Close()

	key := core.ThreadKey{UserID: c.String("user"), ThreadID: c.String("thread")}
	if err := svc.DeleteThread(ctx, key); err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Deleted thread %s\n", key.String())
	return nil
}

func deleteUserCommand(c *cli.Context) error {
	ctx := context.Background()

	svc, err := openService(c)
	if err != nil {
		return fmt.Errorf("failed to open service: %w", err)
	}
	defer svc.Close()

	userID := c.String("user")
	if err := svc.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user data: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Deleted all data for user %s\n", userID)
	return nil
}

func setup(c *cli.Context) error {
	// Optional .env for service credentials; absence is not an error.
	_ = godotenv.Load()

	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
