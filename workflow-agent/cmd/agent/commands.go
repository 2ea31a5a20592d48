package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/graph"
	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/ingestion"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newValidateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a workflow file without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraphFile(file)
			if err != nil {
				return err
			}
			report, err := graph.Validate(g)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "workflow file (.json or .hcl)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newRunCmd() *cobra.Command {
	var file, workflowID, query string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a workflow for a single query",
		Long:  `Runs a workflow loaded from a file (-f) or stored in the database (--workflow-id) and prints the run record.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (file == "") == (workflowID == "") {
				return errors.New("exactly one of --file or --workflow-id is required")
			}
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			var rec *graph.RunRecord
			if file != "" {
				g, err := loadGraphFile(file)
				if err != nil {
					return err
				}
				rec, err = a.service.Run(ctx, file, g, query)
				if err != nil {
					return err
				}
			} else {
				rec, err = a.service.ExecuteWorkflow(ctx, workflowID, query)
				if err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "workflow file (.json or .hcl)")
	cmd.Flags().StringVar(&workflowID, "workflow-id", "", "id of a stored workflow")
	cmd.Flags().StringVarP(&query, "query", "q", "", "user query")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the workflow HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.server().ListenAndServe(ctx, a.cfg.Server)
		},
	}
}

func newIngestCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Store local .pdf, .txt and .md files as documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := ingestion.NewIngester(a.documents, a.log).IngestDir(ctx, path)
			if err != nil {
				return err
			}
			a.log.Info("Ingestion complete",
				zap.Int("documents", len(res.Documents)),
				zap.Int("skipped", len(res.Skipped)))
			for _, d := range res.Documents {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", d.ID, d.FilePath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "./data", "folder to ingest")
	return cmd
}

func newEmbedCmd() *cobra.Command {
	var (
		documentID int64
		apiKey     string
		model      string
		chunkSize  int
		overlap    int
	)
	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Chunk and embed a stored document",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.embeddings.Bind(apiKey).GenerateEmbeddings(ctx, documentID, model, chunkSize, overlap)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %d embeddings for document %d\n", n, documentID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&documentID, "document", 0, "document id")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "embedding provider API key")
	cmd.Flags().StringVar(&model, "model", graph.DefaultEmbeddingModel, "embedding model")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", graph.DefaultChunkSize, "chunk size in bytes")
	cmd.Flags().IntVar(&overlap, "chunk-overlap", graph.DefaultChunkOverlap, "overlap between chunks")
	_ = cmd.MarkFlagRequired("document")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
