package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	arxivsearch "github.com/Darshil999/arxiv-elasticsearch-project"
	"github.com/Darshil999/arxiv-elasticsearch-project/ai"
	"github.com/Darshil999/arxiv-elasticsearch-project/cache"
	"github.com/Darshil999/arxiv-elasticsearch-project/config"
	"github.com/Darshil999/arxiv-elasticsearch-project/core"
	"github.com/Darshil999/arxiv-elasticsearch-project/dataset"
	"github.com/Darshil999/arxiv-elasticsearch-project/pipeline"
	"github.com/Darshil999/arxiv-elasticsearch-project/search"
	"github.com/Darshil999/arxiv-elasticsearch-project/store"
	"github.com/Darshil999/arxiv-elasticsearch-project/tui"
)

func prepareCommand(c *cli.Context) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	var src dataset.Source
	switch {
	case c.Int("sample") > 0:
		slog.Info("generating synthetic sample", "records", c.Int("sample"))
		src = dataset.NewSliceSource(dataset.SampleRecords(c.Int("sample")))
	case c.String("input") != "":
		reader, closer, err := dataset.OpenRawFile(c.String("input"))
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer closer.Close()
		src = reader
	default:
		return errors.New("either --input or --sample is required")
	}

	run := core.NewIngestionRun()
	normalizer := dataset.NewNormalizer(cfg.CategoryPrefixes, cfg.MaxDocuments, run, slog.Default())

	outPath := dataset.StagingPath(cfg.DataDir, dataset.NormalizedFile)
	writer, err := dataset.CreateDocumentWriter(outPath)
	if err != nil {
		return fmt.Errorf("create staging file: %w", err)
	}

	err = normalizer.ForEach(c.Context, src, writer.Write)
	if closeErr := writer.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	run.Finalize()
	fmt.Fprintf(os.Stderr, "wrote %d documents to %s\n", writer.Count(), outPath)
	fmt.Fprintf(os.Stderr, "input: %d, filtered: %d, malformed: %d, invalid dates: %d\n",
		run.Input(), run.Filtered(), run.Malformed(), run.InvalidDates())
	return nil
}

func embedCommand(c *cli.Context) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	h, err := arxivsearch.New(cfg)
	if err != nil {
		return err
	}

	docs, err := readStagedDocuments(dataset.StagingPath(cfg.DataDir, dataset.NormalizedFile))
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return errors.New("no normalized documents found; run prepare first")
	}

	run := core.NewIngestionRun()
	stageCfg := pipeline.EmbedStageConfig{
		Dimension: cfg.EmbeddingDimension,
		MaxChars:  ai.DefaultConfig().MaxChars,
		Run:       run,
		Logger:    slog.Default(),
	}
	if !c.Bool("no-cache") {
		vc, err := cache.Open(filepath.Join(cfg.DataDir, "embed-cache"), cfg.EmbeddingModel, false)
		if err != nil {
			return fmt.Errorf("open embedding cache: %w", err)
		}
		defer vc.Close()
		stageCfg.Cache = vc
	}
	stage, err := pipeline.NewEmbedStage(h.Embedder(), stageCfg)
	if err != nil {
		return err
	}

	outPath := dataset.StagingPath(cfg.DataDir, dataset.EmbeddedFile)
	writer, err := dataset.CreateDocumentWriter(outPath)
	if err != nil {
		return fmt.Errorf("create staging file: %w", err)
	}
	defer writer.Close()

	progress := pipeline.NewProgressTracker(os.Stderr, len(docs), c.Int("report-interval"))
	progress.Start()

	for _, batch := range core.SplitBatches(docs, cfg.EmbedBatchSize) {
		if err := c.Context.Err(); err != nil {
			return err
		}
		if err := stage.EmbedBatch(c.Context, batch); err != nil {
			return err
		}
		for _, doc := range batch {
			if err := writer.Write(doc); err != nil {
				return err
			}
		}
		progress.Increment(len(batch))
	}
	progress.Finish()

	fmt.Fprintf(os.Stderr, "embedded %d documents to %s\n", run.Embedded(), outPath)
	return nil
}

func ingestCommand(c *cli.Context) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	h, err := arxivsearch.New(cfg)
	if err != nil {
		return err
	}

	if err := h.Store().Ping(c.Context); err != nil {
		return fmt.Errorf("store unreachable: %w", err)
	}
	if err := h.Store().EnsureIndex(c.Context); err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}

	docs, err := readStagedDocuments(dataset.StagingPath(cfg.DataDir, dataset.EmbeddedFile))
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return errors.New("no embedded documents found; run embed first")
	}

	run := core.NewIngestionRun()
	progress := pipeline.NewProgressTracker(os.Stderr, len(docs), c.Int("report-interval"))
	progress.Start()

	loader, err := pipeline.NewLoader(h.Store(), pipeline.LoaderConfig{
		BatchSize:   cfg.BulkBatchSize,
		Concurrency: cfg.Concurrency,
		MaxRetries:  cfg.MaxRetries,
		RetryDelay:  cfg.RetryDelay,
		Dimension:   cfg.EmbeddingDimension,
		Run:         run,
		Progress:    progress,
		Logger:      slog.Default(),
	})
	if err != nil {
		return err
	}
	defer loader.Release()

	loadErr := loader.Load(c.Context, docs)
	progress.Finish()

	if err := h.Store().Refresh(c.Context); err != nil {
		slog.Warn("refresh failed", "err", err)
	}

	run.Finalize()
	fmt.Print(run.Summary())

	if loadErr != nil {
		return loadErr
	}
	if run.Failed() {
		return cli.Exit("ingestion completed with failures", 1)
	}
	return nil
}

func queryCommand(c *cli.Context) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	h, err := arxivsearch.New(cfg)
	if err != nil {
		return err
	}

	if c.Bool("interactive") {
		model := tui.New(h.SearchClient(), c.Int("k"))
		_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
		return err
	}

	text := c.Args().First()
	if text == "" {
		return errors.New("query text is required (or use --interactive)")
	}

	var results []search.Result
	switch c.String("mode") {
	case "lexical":
		results, err = h.SearchClient().Lexical(c.Context, text, c.Int("k"))
	case "vector":
		results, err = h.SearchClient().Vector(c.Context, text, c.Int("k"))
	case "hybrid":
		results, err = h.SearchClient().Hybrid(c.Context, text, c.Int("k"), search.Weights{
			Lexical: c.Float64("lexical-weight"),
			Vector:  c.Float64("vector-weight"),
		})
	default:
		return fmt.Errorf("unknown mode %q: must be lexical, vector, or hybrid", c.String("mode"))
	}
	if err != nil {
		return err
	}

	search.Render(os.Stdout, results)
	return nil
}

func snapshotRegisterCommand(c *cli.Context) error {
	cfg, h, err := snapshotSetup()
	if err != nil {
		return err
	}
	if err := h.Store().RegisterRepository(c.Context, cfg.SnapshotRepo, cfg.SnapshotRepoPath); err != nil {
		return err
	}
	fmt.Printf("registered repository %s at %s\n", cfg.SnapshotRepo, cfg.SnapshotRepoPath)
	return nil
}

func snapshotCreateCommand(c *cli.Context) error {
	cfg, h, err := snapshotSetup()
	if err != nil {
		return err
	}
	name := c.String("name")
	if name == "" {
		name = defaultSnapshotName()
	}
	if err := h.Store().CreateSnapshot(c.Context, cfg.SnapshotRepo, name, []string{cfg.IndexName}, c.Bool("wait")); err != nil {
		return err
	}
	fmt.Printf("created snapshot %s in %s\n", name, cfg.SnapshotRepo)
	return nil
}

func snapshotListCommand(c *cli.Context) error {
	cfg, h, err := snapshotSetup()
	if err != nil {
		return err
	}
	infos, err := h.Store().ListSnapshots(c.Context, cfg.SnapshotRepo)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("no snapshots")
		return nil
	}
	for _, info := range infos {
		fmt.Printf("%s  %s  %s\n", info.Name, info.State, info.StartTime.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func snapshotDeleteCommand(c *cli.Context) error {
	cfg, h, err := snapshotSetup()
	if err != nil {
		return err
	}
	name := c.String("name")
	if err := h.Store().DeleteSnapshot(c.Context, cfg.SnapshotRepo, name); err != nil {
		return err
	}
	fmt.Printf("deleted snapshot %s from %s\n", name, cfg.SnapshotRepo)
	return nil
}

func snapshotRestoreCommand(c *cli.Context) error {
	cfg, h, err := snapshotSetup()
	if err != nil {
		return err
	}
	name := c.String("name")
	suffix := c.String("rename-suffix")
	if err := h.Store().RestoreSnapshot(c.Context, cfg.SnapshotRepo, name, suffix); err != nil {
		return err
	}
	fmt.Printf("restored snapshot %s (indices renamed with %s)\n", name, suffix)
	return nil
}

func healthCommand(c *cli.Context) error {
	_, h, err := snapshotSetup()
	if err != nil {
		return err
	}
	health, err := h.Store().Health(c.Context)
	if err != nil {
		fmt.Println("cluster: unavailable")
		return cli.Exit(fmt.Sprintf("health check failed: %v", err), 1)
	}
	class := health.Classify()
	fmt.Printf("cluster: %s (status %s, %d nodes, %d active shards)\n",
		class, health.Status, health.NumberOfNodes, health.ActiveShards)
	if class == store.Unavailable {
		return cli.Exit("cluster is unavailable", 1)
	}
	return nil
}

func snapshotSetup() (*config.Config, *arxivsearch.Harness, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, nil, err
	}
	h, err := arxivsearch.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, h, nil
}

func readStagedDocuments(path string) ([]*core.Document, error) {
	reader, err := dataset.OpenDocumentReader(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("staging file %s does not exist", path)
		}
		return nil, err
	}
	defer reader.Close()

	var docs []*core.Document
	for {
		doc, err := reader.Next()
		if err == io.EOF {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
}
