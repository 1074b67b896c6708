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
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/medrecall"
	"github.com/poiesic/medrecall/ai"
	"github.com/poiesic/medrecall/fhir"
	"github.com/poiesic/medrecall/ingestion"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "medrecall",
		Usage: "Index and search patient clinical records",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to the vector store directory",
				Value:   "./medrecall_db",
				EnvVars: []string{"MEDRECALL_DB"},
			},
			&cli.StringFlag{
				Name:    "ai-host",
				Usage:   "OpenAI-compatible API base URL",
				Value:   "https://api.openai.com/v1",
				EnvVars: []string{"OPENAI_HOST"},
			},
			&cli.StringFlag{
				Name:    "ai-key",
				Usage:   "API key for the embedding and chat services",
				EnvVars: []string{"OPENAI_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				Value:   "text-embedding-3-small",
				EnvVars: []string{"MEDRECALL_EMBEDDING_MODEL"},
			},
			&cli.StringFlag{
				Name:    "chat-model",
				Usage:   "Chat model name for grounded answers",
				Value:   "gpt-4o-mini",
				EnvVars: []string{"MEDRECALL_CHAT_MODEL"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "index",
				Usage:     "Fetch and index clinical records for one or more patients",
				ArgsUsage: "PATIENT_ID [PATIENT_ID...]",
				Action:    indexCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "client-id",
						Usage:   "Backend-services client identifier",
						EnvVars: []string{"FHIR_CLIENT_ID"},
					},
					&cli.StringFlag{
						Name:    "token-url",
						Usage:   "OAuth2 token endpoint URL",
						EnvVars: []string{"FHIR_TOKEN_URL"},
					},
					&cli.StringFlag{
						Name:    "key-id",
						Usage:   "Signing key identifier (kid)",
						EnvVars: []string{"FHIR_KEY_ID"},
					},
					&cli.StringFlag{
						Name:    "private-key",
						Usage:   "Path to the PEM-encoded RSA signing key",
						EnvVars: []string{"FHIR_PRIVATE_KEY_PATH"},
					},
					&cli.StringFlag{
						Name:    "base-url",
						Usage:   "FHIR resource API base URL",
						EnvVars: []string{"FHIR_BASE_URL"},
					},
					&cli.IntFlag{
						Name:  "observation-limit",
						Usage: "Max observations indexed per patient (0 for no limit)",
						Value: 50,
					},
					&cli.StringFlag{
						Name:  "observation-category",
						Usage: "Only fetch observations of this category (e.g. vital-signs)",
					},
					&cli.DurationFlag{
						Name:  "request-interval",
						Usage: "Minimum spacing between API requests",
						Value: 100 * time.Millisecond,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search a patient's indexed records",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "patient",
						Aliases:  []string{"p"},
						Usage:    "Patient whose records to search",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "top",
						Aliases: []string{"n"},
						Usage:   "Number of results to return",
						Value:   5,
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Answer a question grounded in a patient's records",
				ArgsUsage: "QUESTION",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "patient",
						Aliases:  []string{"p"},
						Usage:    "Patient whose records ground the answer",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "top",
						Aliases: []string{"n"},
						Usage:   "Number of record snippets to ground the answer in",
						Value:   5,
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show index statistics",
				Action: statsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "patient",
						Aliases: []string{"p"},
						Usage:   "Count only this patient's records",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openDatabase builds the Database facade from the global flags.
func openDatabase(c *cli.Context) (*medrecall.Database, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("ai-host")),
		ai.WithAPIKey(c.String("ai-key")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithChatModel(c.String("chat-model")),
	)

	db, err := medrecall.NewDatabase(c.String("db"), medrecall.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func indexCommand(c *cli.Context) error {
	ctx := context.Background()

	// Accept both space-separated and comma-separated patient lists
	var subjectIDs []string
	for _, arg := range c.Args().Slice() {
		for _, id := range strings.Split(arg, ",") {
			if id = strings.TrimSpace(id); id != "" {
				subjectIDs = append(subjectIDs, id)
			}
		}
	}
	if len(subjectIDs) == 0 {
		return fmt.Errorf("at least one patient ID is required")
	}

	fhirConfig := fhir.NewConfig(
		fhir.WithClientID(c.String("client-id")),
		fhir.WithTokenURL(c.String("token-url")),
		fhir.WithKeyID(c.String("key-id")),
		fhir.WithPrivateKeyPath(c.String("private-key")),
		fhir.WithBaseURL(c.String("base-url")),
		fhir.WithMinRequestInterval(c.Duration("request-interval")),
	)

	client, err := fhir.NewClient(fhirConfig)
	if err != nil {
		return fmt.Errorf("failed to create FHIR client: %w", err)
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	var source ingestion.RecordSource = client
	if category := c.String("observation-category"); category != "" {
		source = &categorySource{client: client, category: category}
	}

	pipeline, err := db.NewIngestionPipeline(source,
		ingestion.WithObservationLimit(c.Int("observation-limit")))
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	reports, err := pipeline.IngestSubjects(ctx, subjectIDs)
	for _, report := range reports {
		fmt.Printf("%s: built %d, indexed %d, skipped %d\n",
			report.SubjectID, report.Built, report.Indexed, report.Skipped)
	}
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	return nil
}

// categorySource narrows the observation fetch to one category.
type categorySource struct {
	client   *fhir.Client
	category string
}

func (s *categorySource) FetchBundle(ctx context.Context, subjectID string) (*fhir.PatientBundle, error) {
	patient, err := s.client.Patient(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	conditions, err := s.client.Conditions(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	medications, err := s.client.Medications(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	observations, err := s.client.Observations(ctx, subjectID, s.category)
	if err != nil {
		return nil, err
	}
	return &fhir.PatientBundle{
		SubjectID:    subjectID,
		Patient:      patient,
		Conditions:   conditions,
		Medications:  medications,
		Observations: observations,
	}, nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a search query is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	results, err := searcher.Search(ctx, query, c.String("patient"), c.Int("top"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("no matching records")
		return nil
	}
	for i, result := range results {
		fmt.Printf("%d. [%s] score=%.3f\n%s\n\n",
			i+1, result.Unit.ResourceKind, result.Score, result.Unit.Text)
	}
	return nil
}

func askCommand(c *cli.Context) error {
	ctx := context.Background()

	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("a question is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	answer, err := db.Ask(ctx, question, c.String("patient"), c.Int("top"))
	if err != nil {
		return fmt.Errorf("failed to generate answer: %w", err)
	}

	fmt.Println(answer)
	return nil
}

func statsCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	subjectID := c.String("patient")
	count, err := db.Count(ctx, subjectID)
	if err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}

	if subjectID == "" {
		fmt.Printf("indexed records: %d\n", count)
	} else {
		fmt.Printf("indexed records for %s: %d\n", subjectID, count)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
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
